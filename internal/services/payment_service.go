// internal/services/payment_service.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"
	"gorm.io/gorm"

	"github.com/adspoint/adspoint-backend/internal/config"
	"github.com/adspoint/adspoint-backend/internal/i18n"
	"github.com/adspoint/adspoint-backend/internal/models"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

// PaymentService owns the settlement ledger. Ledger rows are written
// inside the same transaction as the contract state change that
// produced them; Stripe calls happen outside transactions and are
// gated on a configured secret key so local runs work without one.
type PaymentService struct {
	db     *gorm.DB
	config *config.Config
	now    func() time.Time
}

func NewPaymentService(db *gorm.DB, cfg *config.Config) *PaymentService {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		db:     db,
		config: cfg,
		now:    time.Now,
	}
}

// ReserveFunds places a hold on the advertiser's card for the contract
// amount. Returns the Stripe reference to store on the contract.
func (s *PaymentService) ReserveFunds(contract *models.Contract, currency string) (string, error) {
	if s.config.Payment.StripeSecretKey == "" {
		logrus.WithField("contract", contract.ContractNumber).
			Debug("Stripe not configured, recording reservation without a charge")
		return "", nil
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(int64(contract.Price * 100)),
		Currency:      stripe.String(currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
	}
	params.AddMetadata("contract_number", contract.ContractNumber)
	params.AddMetadata("advertiser_id", contract.AdvertiserID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to reserve funds: %w", err)
	}
	return pi.ID, nil
}

// ReleaseReservation refunds the advertiser's hold after expiry or a
// failed verification.
func (s *PaymentService) ReleaseReservation(contract *models.Contract) error {
	if s.config.Payment.StripeSecretKey == "" || contract.PaymentReference == "" {
		return nil
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(contract.PaymentReference),
	}
	params.AddMetadata("contract_number", contract.ContractNumber)

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}
	return nil
}

// CreateRefundEntry writes the reversing ledger row for an expired
// contract. The amount is stored negative so the ledger sums to the
// advertiser's true exposure.
func (s *PaymentService) CreateRefundEntry(tx *gorm.DB, contract *models.Contract, currency string) (*models.Payment, error) {
	payment := &models.Payment{
		ContractID:   contract.ID,
		PaymentType:  models.PaymentTypeRefund,
		Amount:       -contract.FundsReserved,
		Currency:     currency,
		Status:       models.PaymentStatusCompleted,
		AdvertiserID: &contract.AdvertiserID,
		Description:  fmt.Sprintf("Refund of reserved funds for contract %s", contract.ContractNumber),
		Reference:    contract.PaymentReference,
		ProcessedAt:  timePtr(s.now()),
	}

	if err := tx.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create refund entry: %w", err)
	}
	return payment, nil
}

// CreateSettlementEntries writes the payout and commission rows for a
// completed contract.
func (s *PaymentService) CreateSettlementEntries(tx *gorm.DB, contract *models.Contract, settlement Settlement, currency string) error {
	processedAt := timePtr(s.now())

	payout := &models.Payment{
		ContractID:  contract.ID,
		PaymentType: models.PaymentTypeCompletionPayout,
		Amount:      settlement.NetPayout,
		Currency:    currency,
		Status:      models.PaymentStatusCompleted,
		PublisherID: &contract.PublisherID,
		Description: fmt.Sprintf("Payout for contract %s", contract.ContractNumber),
		ProcessedAt: processedAt,
	}
	if err := tx.Create(payout).Error; err != nil {
		return fmt.Errorf("failed to create payout entry: %w", err)
	}

	commission := &models.Payment{
		ContractID:  contract.ID,
		PaymentType: models.PaymentTypePlatformCommission,
		Amount:      settlement.Commission,
		Currency:    currency,
		Status:      models.PaymentStatusCompleted,
		Description: fmt.Sprintf("Platform commission for contract %s", contract.ContractNumber),
		ProcessedAt: processedAt,
	}
	if err := tx.Create(commission).Error; err != nil {
		return fmt.Errorf("failed to create commission entry: %w", err)
	}

	return nil
}

// CreatePenaltyEntry writes the penalty row charged to the publisher
// for an early deletion.
func (s *PaymentService) CreatePenaltyEntry(tx *gorm.DB, contract *models.Contract, amount float64, currency string) (*models.Payment, error) {
	payment := &models.Payment{
		ContractID:  contract.ID,
		PaymentType: models.PaymentTypePenalty,
		Amount:      amount,
		Currency:    currency,
		Status:      models.PaymentStatusCompleted,
		PublisherID: &contract.PublisherID,
		Description: fmt.Sprintf("Early deletion penalty for contract %s", contract.ContractNumber),
		ProcessedAt: timePtr(s.now()),
	}

	if err := tx.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create penalty entry: %w", err)
	}
	return payment, nil
}

// GetPaymentHistory returns the ledger rows visible to the user,
// newest first.
func (s *PaymentService) GetPaymentHistory(userID uuid.UUID, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Payment{}).
		Where("publisher_id = ? OR advertiser_id = ?", userID, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, internalError(err)
	}

	var payments []models.Payment
	if err := utils.ApplyPagination(query, params).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, internalError(err)
	}

	result := utils.CreatePaginationResult(payments, total, params)
	return &result, nil
}

// GetContractPayments returns all ledger rows of one contract.
func (s *PaymentService) GetContractPayments(contractID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.db.Where("contract_id = ?", contractID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, internalError(err)
	}
	return payments, nil
}

// GetPublisherBalance sums completed payouts minus penalties.
func (s *PaymentService) GetPublisherBalance(publisherID uuid.UUID) (float64, error) {
	var payout, penalty float64

	err := s.db.Model(&models.Payment{}).
		Where("publisher_id = ? AND payment_type = ? AND status = ?",
			publisherID, models.PaymentTypeCompletionPayout, models.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&payout).Error
	if err != nil {
		return 0, internalError(err)
	}

	err = s.db.Model(&models.Payment{}).
		Where("publisher_id = ? AND payment_type = ? AND status = ?",
			publisherID, models.PaymentTypePenalty, models.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&penalty).Error
	if err != nil {
		return 0, internalError(err)
	}

	return roundMoney(payout - penalty), nil
}

// GetPayment returns one ledger row if the user is a party to it.
func (s *PaymentService) GetPayment(paymentID, userID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Preload("Contract").First(&payment, "id = ?", paymentID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyPaymentNotFound, err)
	}

	if payment.Contract.AdvertiserID != userID && payment.Contract.PublisherID != userID {
		return nil, newError(ErrCodeForbidden, i18n.KeyAccessDenied)
	}
	return &payment, nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
