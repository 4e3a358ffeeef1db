// internal/services/response_service.go
package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adspoint/adspoint-backend/internal/database"
	"github.com/adspoint/adspoint-backend/internal/i18n"
	"github.com/adspoint/adspoint-backend/internal/models"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

// ResponseService manages publisher bids on offers and the acceptance
// flow that spawns contracts.
type ResponseService struct {
	db            *gorm.DB
	contracts     *ContractService
	notifications *NotificationService
	now           func() time.Time
}

type SubmitResponseRequest struct {
	OfferID       uuid.UUID `json:"offer_id" validate:"required"`
	ChannelID     uuid.UUID `json:"channel_id" validate:"required"`
	Message       string    `json:"message" validate:"max=2000"`
	ProposedPrice float64   `json:"proposed_price" validate:"min=0"`
}

type RejectResponseRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

func NewResponseService(db *gorm.DB, contracts *ContractService, notifications *NotificationService) *ResponseService {
	return &ResponseService{
		db:            db,
		contracts:     contracts,
		notifications: notifications,
		now:           time.Now,
	}
}

// SubmitResponse records a pending bid. The channel snapshot fields
// are copied at this moment so later channel edits do not rewrite the
// bid history.
func (s *ResponseService) SubmitResponse(userID uuid.UUID, req *SubmitResponseRequest) (*models.OfferResponse, error) {
	var offer models.Offer
	if err := s.db.First(&offer, "id = ?", req.OfferID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyOfferNotFound, err)
	}
	if offer.Status != models.OfferStatusActive {
		return nil, newError(ErrCodeNotFound, i18n.KeyOfferNotActive)
	}

	var channel models.Channel
	if err := s.db.First(&channel, "id = ?", req.ChannelID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyChannelNotFound, err)
	}
	if channel.OwnerID != userID {
		return nil, newError(ErrCodeForbidden, i18n.KeyChannelNotYours)
	}

	var existing int64
	if err := s.db.Model(&models.OfferResponse{}).
		Where("offer_id = ? AND user_id = ? AND channel_id = ?", req.OfferID, userID, req.ChannelID).
		Count(&existing).Error; err != nil {
		return nil, internalError(err)
	}
	if existing > 0 {
		return nil, newError(ErrCodeDuplicateResponse, i18n.KeyResponseDuplicate)
	}

	response := &models.OfferResponse{
		OfferID:         req.OfferID,
		UserID:          userID,
		ChannelID:       req.ChannelID,
		ChannelTitle:    channel.Title,
		ChannelUsername: channel.Username,
		SubscriberCount: channel.SubscriberCount,
		Message:         strings.TrimSpace(req.Message),
		ProposedPrice:   req.ProposedPrice,
		Status:          models.ResponseStatusPending,
	}

	if err := s.db.Create(response).Error; err != nil {
		// The composite unique index closes the race between the count
		// above and the insert.
		if isDuplicateKeyError(err) {
			return nil, wrapError(ErrCodeDuplicateResponse, i18n.KeyResponseDuplicate, err)
		}
		return nil, internalError(err)
	}

	go s.notifications.NotifyNewResponse(&offer, response)

	return response, nil
}

// AcceptResponse accepts one bid and atomically: auto-rejects the
// offer's other pending bids, creates the contract, and moves the
// offer to in_progress so it stops accepting new bids.
func (s *ResponseService) AcceptResponse(responseID, advertiserID uuid.UUID) (*models.Contract, error) {
	var response models.OfferResponse
	if err := s.db.Preload("Offer").First(&response, "id = ?", responseID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyResponseNotFound, err)
	}

	offer := response.Offer
	if offer.OwnerID != advertiserID {
		return nil, newError(ErrCodeForbidden, i18n.KeyResponseNotYourOffer)
	}
	if response.Status != models.ResponseStatusPending {
		return nil, newError(ErrCodeInvalidState, i18n.KeyResponseNotPending)
	}

	now := s.now()
	var contract *models.Contract

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		// Compare-and-set on the response status closes the race of two
		// concurrent accepts on the same offer.
		res := tx.Model(&models.OfferResponse{}).
			Where("id = ? AND status = ?", responseID, models.ResponseStatusPending).
			Updates(map[string]interface{}{
				"status":      models.ResponseStatusAccepted,
				"accepted_at": now,
			})
		if res.Error != nil {
			return internalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return newError(ErrCodeInvalidState, i18n.KeyResponseNotPending)
		}

		if err := tx.Model(&models.OfferResponse{}).
			Where("offer_id = ? AND id != ? AND status = ?",
				offer.ID, responseID, models.ResponseStatusPending).
			Updates(map[string]interface{}{
				"status":      models.ResponseStatusAutoRejected,
				"rejected_at": now,
			}).Error; err != nil {
			return internalError(err)
		}

		response.Status = models.ResponseStatusAccepted
		response.AcceptedAt = &now

		created, err := s.contracts.CreateInTransaction(tx, &response, &offer)
		if err != nil {
			return err
		}
		contract = created

		if err := tx.Model(&models.Offer{}).
			Where("id = ? AND status = ?", offer.ID, models.OfferStatusActive).
			Update("status", models.OfferStatusInProgress).Error; err != nil {
			return internalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.notifications.NotifyResponseAccepted(&offer, &response, contract)
	go s.notifications.NotifyContractCreated(contract, offer.Title)

	return contract, nil
}

// RejectResponse declines a pending bid with an optional reason.
func (s *ResponseService) RejectResponse(responseID, advertiserID uuid.UUID, reason string) (*models.OfferResponse, error) {
	var response models.OfferResponse
	if err := s.db.Preload("Offer").First(&response, "id = ?", responseID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyResponseNotFound, err)
	}

	if response.Offer.OwnerID != advertiserID {
		return nil, newError(ErrCodeForbidden, i18n.KeyResponseNotYourOffer)
	}
	if response.Status != models.ResponseStatusPending {
		return nil, newError(ErrCodeInvalidState, i18n.KeyResponseNotPending)
	}

	now := s.now()
	res := s.db.Model(&models.OfferResponse{}).
		Where("id = ? AND status = ?", responseID, models.ResponseStatusPending).
		Updates(map[string]interface{}{
			"status":           models.ResponseStatusRejected,
			"rejection_reason": reason,
			"rejected_at":      now,
		})
	if res.Error != nil {
		return nil, internalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, newError(ErrCodeInvalidState, i18n.KeyResponseNotPending)
	}

	response.Status = models.ResponseStatusRejected
	response.RejectionReason = reason
	response.RejectedAt = &now

	go s.notifications.NotifyResponseRejected(&response.Offer, &response, reason)

	return &response, nil
}

// ListOfferResponses returns bids on one offer to its owner.
func (s *ResponseService) ListOfferResponses(offerID, advertiserID uuid.UUID, params utils.PaginationParams) (*utils.PaginationResult, error) {
	var offer models.Offer
	if err := s.db.First(&offer, "id = ?", offerID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyOfferNotFound, err)
	}
	if offer.OwnerID != advertiserID {
		return nil, newError(ErrCodeForbidden, i18n.KeyResponseNotYourOffer)
	}

	query := s.db.Model(&models.OfferResponse{}).Where("offer_id = ?", offerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, internalError(err)
	}

	var responses []models.OfferResponse
	if err := utils.ApplyPagination(query, params).
		Preload("Channel").
		Order("created_at DESC").
		Find(&responses).Error; err != nil {
		return nil, internalError(err)
	}

	result := utils.CreatePaginationResult(responses, total, params)
	return &result, nil
}

// ListMyResponses returns the publisher's own bids.
func (s *ResponseService) ListMyResponses(userID uuid.UUID, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.OfferResponse{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, internalError(err)
	}

	var responses []models.OfferResponse
	if err := utils.ApplyPagination(query, params).
		Preload("Offer").
		Order("created_at DESC").
		Find(&responses).Error; err != nil {
		return nil, internalError(err)
	}

	result := utils.CreatePaginationResult(responses, total, params)
	return &result, nil
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
