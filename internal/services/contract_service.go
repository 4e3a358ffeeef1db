// internal/services/contract_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/adspoint/adspoint-backend/internal/config"
	"github.com/adspoint/adspoint-backend/internal/database"
	"github.com/adspoint/adspoint-backend/internal/i18n"
	"github.com/adspoint/adspoint-backend/internal/models"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

// ContractService drives the contract state machine from creation
// through settlement. Every transition is a compare-and-set on the
// status column inside a transaction, so a sweep and a user request
// racing on the same contract cannot both win.
type ContractService struct {
	db            *gorm.DB
	config        *config.Config
	verification  *VerificationService
	payments      *PaymentService
	notifications *NotificationService
	stats         StatsCollector
	now           func() time.Time
}

type SubmitPlacementRequest struct {
	PostURL string `json:"post_url" validate:"required,post_url"`
}

func NewContractService(
	db *gorm.DB,
	cfg *config.Config,
	verification *VerificationService,
	payments *PaymentService,
	notifications *NotificationService,
	stats StatsCollector,
) *ContractService {
	return &ContractService{
		db:            db,
		config:        cfg,
		verification:  verification,
		payments:      payments,
		notifications: notifications,
		stats:         stats,
		now:           time.Now,
	}
}

// CreateInTransaction inserts the contract for an accepted response.
// Must run inside the same transaction that accepted the response so
// acceptance and contract creation commit atomically.
func (s *ContractService) CreateInTransaction(tx *gorm.DB, response *models.OfferResponse, offer *models.Offer) (*models.Contract, error) {
	if response.Status != models.ResponseStatusAccepted {
		return nil, newError(ErrCodeResponseNotAccepted, i18n.KeyResponseNotPending)
	}

	var existing int64
	if err := tx.Model(&models.Contract{}).
		Where("response_id = ?", response.ID).
		Count(&existing).Error; err != nil {
		return nil, internalError(err)
	}
	if existing > 0 {
		return nil, newError(ErrCodeContractExists, i18n.KeyContractExists)
	}

	now := s.now()
	placementDeadline := now.Add(time.Duration(s.config.Contract.PlacementHours) * time.Hour)
	monitoringDays := s.config.Contract.MonitoringDays
	price := offer.EffectivePrice()

	contract := &models.Contract{
		ContractNumber:    utils.GenerateContractNumber(response.ID, now),
		ResponseID:        response.ID,
		OfferID:           offer.ID,
		AdvertiserID:      offer.OwnerID,
		PublisherID:       response.UserID,
		ChannelID:         response.ChannelID,
		Price:             price,
		FundsReserved:     price,
		Status:            models.ContractStatusActive,
		Requirements:      offer.Content,
		PlacementDeadline: placementDeadline,
		MonitoringDays:    monitoringDays,
		MonitoringEnd:     placementDeadline.Add(time.Duration(monitoringDays) * 24 * time.Hour),
	}

	if err := tx.Create(contract).Error; err != nil {
		return nil, internalError(fmt.Errorf("failed to create contract: %w", err))
	}

	return contract, nil
}

// FundContract places the Stripe hold for the advertiser and stores
// the payment reference.
func (s *ContractService) FundContract(contractID, advertiserID uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	if err := s.db.First(&contract, "id = ?", contractID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyContractNotFound, err)
	}
	if contract.AdvertiserID != advertiserID {
		return nil, newError(ErrCodeForbidden, i18n.KeyContractNotParty)
	}
	if contract.Status != models.ContractStatusActive {
		return nil, newError(ErrCodeInvalidState, i18n.KeyContractWrongState)
	}

	currency := s.currencyOf(&contract)
	reference, err := s.payments.ReserveFunds(&contract, currency)
	if err != nil {
		return nil, wrapError(ErrCodeExternalService, i18n.KeyError, err)
	}

	if reference != "" {
		if err := s.db.Model(&contract).Update("payment_reference", reference).Error; err != nil {
			return nil, internalError(err)
		}
		contract.PaymentReference = reference
	}
	return &contract, nil
}

// GetContract returns one contract if the caller is a party to it.
func (s *ContractService) GetContract(contractID, userID uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	err := s.db.Preload("Offer").Preload("Channel").Preload("Payments").
		First(&contract, "id = ?", contractID).Error
	if err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyContractNotFound, err)
	}

	if contract.AdvertiserID != userID && contract.PublisherID != userID {
		return nil, newError(ErrCodeForbidden, i18n.KeyContractNotParty)
	}
	return &contract, nil
}

// GetContractByNumber resolves the user-facing contract token.
func (s *ContractService) GetContractByNumber(number string, userID uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	err := s.db.Preload("Offer").Preload("Channel").
		First(&contract, "contract_number = ?", number).Error
	if err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyContractNotFound, err)
	}

	if contract.AdvertiserID != userID && contract.PublisherID != userID {
		return nil, newError(ErrCodeForbidden, i18n.KeyContractNotParty)
	}
	return &contract, nil
}

// ListContracts returns the caller's contracts, optionally filtered by
// status.
func (s *ContractService) ListContracts(userID uuid.UUID, status string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Contract{}).
		Where("advertiser_id = ? OR publisher_id = ?", userID, userID)

	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, internalError(err)
	}

	var contracts []models.Contract
	if err := utils.ApplyPagination(query, params).
		Preload("Offer").
		Order("created_at DESC").
		Find(&contracts).Error; err != nil {
		return nil, internalError(err)
	}

	result := utils.CreatePaginationResult(contracts, total, params)
	return &result, nil
}

// SubmitPlacement records the published post and moves the contract to
// verification. Verification runs synchronously so the publisher sees
// the outcome in the same call. A submission past the deadline expires
// the contract on the spot instead of waiting for the sweep.
func (s *ContractService) SubmitPlacement(ctx context.Context, contractID, publisherID uuid.UUID, postURL string) (*models.Contract, error) {
	var contract models.Contract
	if err := s.db.First(&contract, "id = ?", contractID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyContractNotFound, err)
	}

	if contract.PublisherID != publisherID {
		return nil, newError(ErrCodeForbidden, i18n.KeyContractNotParty)
	}
	if contract.Status != models.ContractStatusActive {
		return nil, newError(ErrCodeInvalidState, i18n.KeyContractWrongState)
	}

	now := s.now()
	if now.After(contract.PlacementDeadline) {
		if err := s.ExpireContract(&contract); err != nil {
			logrus.WithError(err).WithField("contract", contract.ContractNumber).
				Error("Failed to expire contract on late submission")
		}
		return nil, newError(ErrCodeDeadlineExpired, i18n.KeyContractDeadlineExpired)
	}

	ref, err := utils.ParsePostURL(postURL)
	if err != nil {
		return nil, wrapError(ErrCodeInvalidURLFormat, i18n.KeyContractInvalidPostURL, err)
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		result := tx.Model(&models.Contract{}).
			Where("id = ? AND status = ?", contract.ID, models.ContractStatusActive).
			Updates(map[string]interface{}{
				"status":               models.ContractStatusVerification,
				"post_url":             postURL,
				"post_id":              ref.MessageID,
				"post_date":            now,
				"placement_started_at": now,
				"submitted_at":         now,
			})
		if result.Error != nil {
			return internalError(result.Error)
		}
		if result.RowsAffected == 0 {
			return newError(ErrCodeInvalidState, i18n.KeyContractWrongState)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	contract.Status = models.ContractStatusVerification
	contract.PostURL = postURL
	contract.PostID = ref.MessageID
	contract.PostDate = &now
	contract.PlacementStartedAt = &now
	contract.SubmittedAt = &now

	go s.notifications.NotifyPlacementSubmitted(&contract)

	return s.VerifyPlacement(ctx, contract.ID)
}

// VerifyPlacement fetches the post and decides pass or fail. It is
// idempotent: a contract that already left verification is returned
// as is.
func (s *ContractService) VerifyPlacement(ctx context.Context, contractID uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	if err := s.db.Preload("Offer").First(&contract, "id = ?", contractID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyContractNotFound, err)
	}

	if contract.Status != models.ContractStatusVerification {
		if contract.Status == models.ContractStatusMonitoring || contract.Status.IsTerminal() {
			return &contract, nil
		}
		return nil, newError(ErrCodeInvalidState, i18n.KeyContractWrongState)
	}

	ref, err := utils.ParsePostURL(contract.PostURL)
	if err != nil {
		return nil, wrapError(ErrCodeInvalidURLFormat, i18n.KeyContractInvalidPostURL, err)
	}

	result, err := s.verification.VerifyPost(ctx, ref, contract.Offer.Description)
	if err != nil {
		// Transport failure is not a verdict; the contract stays in
		// verification for a retry.
		return nil, wrapError(ErrCodeExternalService, i18n.KeyError, err)
	}

	now := s.now()

	if result.Passed {
		details := fmt.Sprintf("verified: content match %.0f%%", result.MatchPercent)
		err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
			res := tx.Model(&models.Contract{}).
				Where("id = ? AND status = ?", contract.ID, models.ContractStatusVerification).
				Updates(map[string]interface{}{
					"status":               models.ContractStatusMonitoring,
					"verification_passed":  true,
					"verification_details": details,
					"verified_at":          now,
				})
			if res.Error != nil {
				return internalError(res.Error)
			}
			if res.RowsAffected == 0 {
				return newError(ErrCodeInvalidState, i18n.KeyContractWrongState)
			}

			task := &models.MonitoringTask{
				ContractID: contract.ID,
				NextCheck:  now.Add(time.Duration(s.config.Contract.MonitoringCheckHours) * time.Hour),
				Status:     models.MonitoringTaskStatusActive,
			}
			if err := tx.Create(task).Error; err != nil {
				return internalError(fmt.Errorf("failed to create monitoring task: %w", err))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		contract.Status = models.ContractStatusMonitoring
		contract.VerificationPassed = true
		contract.VerificationDetails = details
		contract.VerifiedAt = &now

		go s.notifications.NotifyVerificationPassed(&contract, result.MatchPercent)
		return &contract, nil
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		res := tx.Model(&models.Contract{}).
			Where("id = ? AND status = ?", contract.ID, models.ContractStatusVerification).
			Updates(map[string]interface{}{
				"status":               models.ContractStatusVerificationFailed,
				"verification_passed":  false,
				"verification_details": result.Reason,
				"verified_at":          now,
			})
		if res.Error != nil {
			return internalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return newError(ErrCodeInvalidState, i18n.KeyContractWrongState)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	contract.Status = models.ContractStatusVerificationFailed
	contract.VerificationDetails = result.Reason
	contract.VerifiedAt = &now

	go s.notifications.NotifyVerificationFailed(&contract, result.Reason)
	return &contract, nil
}

// DeleteFailedContract hard deletes a contract stuck in
// verification_failed. Either party may request it.
func (s *ContractService) DeleteFailedContract(contractID, requesterID uuid.UUID) error {
	var contract models.Contract
	if err := s.db.First(&contract, "id = ?", contractID).Error; err != nil {
		return wrapError(ErrCodeNotFound, i18n.KeyContractNotFound, err)
	}

	if contract.AdvertiserID != requesterID && contract.PublisherID != requesterID {
		return newError(ErrCodeForbidden, i18n.KeyContractNotParty)
	}
	if contract.Status != models.ContractStatusVerificationFailed {
		return newError(ErrCodeInvalidState, i18n.KeyContractWrongState)
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("contract_id = ?", contract.ID).
			Delete(&models.MonitoringTask{}).Error; err != nil {
			return internalError(err)
		}
		if err := tx.Unscoped().Delete(&contract).Error; err != nil {
			return internalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	otherParty := contract.AdvertiserID
	if requesterID == contract.AdvertiserID {
		otherParty = contract.PublisherID
	}
	go s.notifications.NotifyContractDeleted(&contract, otherParty)

	return nil
}

// ExpireContract moves an overdue active contract to expired, writes
// the refund entry and docks the channel's reliability. Safe to call
// twice: the compare-and-set makes the second call a no-op.
func (s *ContractService) ExpireContract(contract *models.Contract) error {
	var refunded bool

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		res := tx.Model(&models.Contract{}).
			Where("id = ? AND status = ?", contract.ID, models.ContractStatusActive).
			Update("status", models.ContractStatusExpired)
		if res.Error != nil {
			return internalError(res.Error)
		}
		if res.RowsAffected == 0 {
			// Already expired or moved on; nothing to refund.
			return nil
		}

		if _, err := s.payments.CreateRefundEntry(tx, contract, s.currencyOf(contract)); err != nil {
			return internalError(err)
		}

		if err := s.adjustChannelReliability(tx, contract.ChannelID, s.config.Contract.ExpiryReliabilityLoss); err != nil {
			return internalError(err)
		}

		refunded = true
		return nil
	})
	if err != nil {
		return err
	}

	if !refunded {
		return nil
	}

	contract.Status = models.ContractStatusExpired

	if err := s.payments.ReleaseReservation(contract); err != nil {
		logrus.WithError(err).WithField("contract", contract.ContractNumber).
			Error("Failed to release payment reservation for expired contract")
	}

	go s.notifications.NotifyContractExpired(contract, contract.FundsReserved, s.currencyOf(contract))
	return nil
}

// FinalizeContract settles a contract whose monitoring window has
// closed: collects stats, computes the payout, writes the ledger rows
// and updates the channel aggregates.
func (s *ContractService) FinalizeContract(ctx context.Context, contract *models.Contract) error {
	if contract.Status != models.ContractStatusMonitoring {
		return newError(ErrCodeInvalidState, i18n.KeyContractWrongState)
	}

	stats, err := s.stats.CollectStats(ctx, contract)
	if err != nil {
		return wrapError(ErrCodeExternalService, i18n.KeyError, err)
	}

	performance := ComputePerformance(stats, contract.Price)
	settlement := ComputeSettlement(contract.Price, performance.Rating, s.config.Contract)
	now := s.now()

	finalStats := models.JSONB{
		"views":          stats.Views,
		"clicks":         stats.Clicks,
		"reactions":      stats.Reactions,
		"ctr":            performance.CTR,
		"engagement":     performance.Engagement,
		"cost_per_click": performance.CostPerClick,
		"rating":         string(performance.Rating),
		"commission":     settlement.Commission,
		"bonus":          settlement.Bonus,
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		res := tx.Model(&models.Contract{}).
			Where("id = ? AND status = ?", contract.ID, models.ContractStatusMonitoring).
			Updates(map[string]interface{}{
				"status":       models.ContractStatusCompleted,
				"final_stats":  finalStats,
				"final_payout": settlement.NetPayout,
				"completed_at": now,
			})
		if res.Error != nil {
			return internalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return newError(ErrCodeInvalidState, i18n.KeyContractWrongState)
		}

		if err := s.payments.CreateSettlementEntries(tx, contract, settlement, s.currencyOf(contract)); err != nil {
			return internalError(err)
		}

		if err := tx.Model(&models.Channel{}).
			Where("id = ?", contract.ChannelID).
			Updates(map[string]interface{}{
				"completed_placements": gorm.Expr("completed_placements + 1"),
				"total_earned":         gorm.Expr("total_earned + ?", settlement.NetPayout),
			}).Error; err != nil {
			return internalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	contract.Status = models.ContractStatusCompleted
	contract.FinalStats = finalStats
	contract.FinalPayout = settlement.NetPayout
	contract.CompletedAt = &now

	go s.notifications.NotifyContractCompleted(contract, settlement, performance.Rating, s.currencyOf(contract))
	return nil
}

// MarkViolation records a post that disappeared mid-monitoring, after
// the planned placement window but before monitoring_end. No penalty
// is charged on this path.
func (s *ContractService) MarkViolation(contract *models.Contract, reason string) error {
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		res := tx.Model(&models.Contract{}).
			Where("id = ? AND status = ?", contract.ID, models.ContractStatusMonitoring).
			Updates(map[string]interface{}{
				"status":               models.ContractStatusViolation,
				"verification_details": reason,
			})
		if res.Error != nil {
			return internalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return newError(ErrCodeInvalidState, i18n.KeyContractWrongState)
		}
		return tx.Model(&models.MonitoringTask{}).
			Where("contract_id = ?", contract.ID).
			Update("status", models.MonitoringTaskStatusCompleted).Error
	})
	if err != nil {
		return err
	}

	contract.Status = models.ContractStatusViolation

	go s.notifications.NotifyPostDeleted(contract)
	return nil
}

// ApplyEarlyDeletionPenalty handles a post deleted before its planned
// placement window ended: charges the scaled penalty, docks
// reliability by the deletion loss and terminates the contract.
func (s *ContractService) ApplyEarlyDeletionPenalty(contract *models.Contract) error {
	now := s.now()
	hoursRemaining := contract.PlannedPlacementEnd().Sub(now).Hours()
	penalty, rate := ComputeEarlyDeletionPenalty(contract.FundsReserved, hoursRemaining, s.config.Contract)

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		res := tx.Model(&models.Contract{}).
			Where("id = ? AND status = ?", contract.ID, models.ContractStatusMonitoring).
			Updates(map[string]interface{}{
				"status":               models.ContractStatusEarlyDeleted,
				"verification_details": fmt.Sprintf("post deleted early, penalty %.2f at rate %.2f", penalty, rate),
			})
		if res.Error != nil {
			return internalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return newError(ErrCodeInvalidState, i18n.KeyContractWrongState)
		}

		if _, err := s.payments.CreatePenaltyEntry(tx, contract, penalty, s.currencyOf(contract)); err != nil {
			return internalError(err)
		}

		if err := s.adjustChannelReliability(tx, contract.ChannelID, s.config.Contract.DeletionReliabilityLoss); err != nil {
			return internalError(err)
		}

		return tx.Model(&models.MonitoringTask{}).
			Where("contract_id = ?", contract.ID).
			Update("status", models.MonitoringTaskStatusCompleted).Error
	})
	if err != nil {
		return err
	}

	contract.Status = models.ContractStatusEarlyDeleted

	go s.notifications.NotifyEarlyDeletionPenalty(contract, penalty, rate, s.currencyOf(contract))
	go s.notifications.NotifyPostDeleted(contract)
	return nil
}

func (s *ContractService) adjustChannelReliability(tx *gorm.DB, channelID uuid.UUID, loss int) error {
	return tx.Model(&models.Channel{}).
		Where("id = ?", channelID).
		Update("reliability_score", gorm.Expr(
			"CASE WHEN reliability_score - ? < 0 THEN 0 ELSE reliability_score - ? END", loss, loss)).Error
}

func (s *ContractService) currencyOf(contract *models.Contract) string {
	if contract.Offer.Currency != "" {
		return contract.Offer.Currency
	}

	var offer models.Offer
	if err := s.db.Select("currency").First(&offer, "id = ?", contract.OfferID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithError(err).Warn("Failed to resolve contract currency")
		}
		return "RUB"
	}
	if offer.Currency == "" {
		return "RUB"
	}
	return offer.Currency
}
