// internal/services/notification_service.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/adspoint/adspoint-backend/internal/config"
	"github.com/adspoint/adspoint-backend/internal/i18n"
	"github.com/adspoint/adspoint-backend/internal/models"
)

// NotificationService delivers lifecycle messages to users through the
// Telegram Bot API. Delivery is best effort: callers fire these in a
// goroutine and a failed send never rolls back the state change that
// triggered it.
type NotificationService struct {
	db     *gorm.DB
	cfg    config.TelegramConfig
	client *http.Client
}

func NewNotificationService(db *gorm.DB, cfg config.TelegramConfig) *NotificationService {
	return &NotificationService{
		db:  db,
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.FetchTimeout) * time.Second,
		},
	}
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// SendToUser looks up the recipient and formats the i18n template in
// their language.
func (s *NotificationService) SendToUser(userID uuid.UUID, messageKey string, args ...interface{}) {
	if s == nil || s.db == nil {
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Notification recipient not found")
		return
	}

	text := i18n.T(user.LanguageCode, messageKey, args...)
	if err := s.sendTelegramMessage(user.TelegramID, text); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":     userID,
			"telegram_id": user.TelegramID,
			"message_key": messageKey,
		}).Warn("Failed to send Telegram notification")
	}
}

func (s *NotificationService) sendTelegramMessage(chatID int64, text string) error {
	if s.cfg.BotToken == "" {
		logrus.WithField("chat_id", chatID).Debug("Bot token not configured, skipping notification")
		return nil
	}

	payload, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage",
		strings.TrimSuffix(s.cfg.APIBaseURL, "/"), s.cfg.BotToken)

	resp, err := s.client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to call sendMessage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendMessage returned status %d", resp.StatusCode)
	}
	return nil
}

// Lifecycle notifications. Each maps one state change to a template.

func (s *NotificationService) NotifyNewResponse(offer *models.Offer, response *models.OfferResponse) {
	s.SendToUser(offer.OwnerID, i18n.KeyNotifyNewResponse,
		offer.Title, response.ChannelTitle, response.SubscriberCount)
}

func (s *NotificationService) NotifyResponseAccepted(offer *models.Offer, response *models.OfferResponse, contract *models.Contract) {
	s.SendToUser(response.UserID, i18n.KeyNotifyResponseAccepted,
		offer.Title, contract.ContractNumber, contract.PlacementDeadline.Format("02.01.2006 15:04"))
}

func (s *NotificationService) NotifyResponseRejected(offer *models.Offer, response *models.OfferResponse, reason string) {
	if reason == "" {
		reason = "-"
	}
	s.SendToUser(response.UserID, i18n.KeyNotifyResponseRejected, offer.Title, reason)
}

func (s *NotificationService) NotifyContractCreated(contract *models.Contract, offerTitle string) {
	s.SendToUser(contract.AdvertiserID, i18n.KeyNotifyContractCreated,
		contract.ContractNumber, offerTitle, contract.PlacementDeadline.Format("02.01.2006 15:04"))
}

func (s *NotificationService) NotifyPlacementSubmitted(contract *models.Contract) {
	s.SendToUser(contract.AdvertiserID, i18n.KeyNotifyPlacementSubmitted,
		contract.ContractNumber, contract.PostURL)
}

func (s *NotificationService) NotifyVerificationPassed(contract *models.Contract, matchPercent float64) {
	end := contract.MonitoringEnd.Format("02.01.2006 15:04")
	s.SendToUser(contract.PublisherID, i18n.KeyNotifyVerificationPassed,
		contract.ContractNumber, matchPercent, end)
	s.SendToUser(contract.AdvertiserID, i18n.KeyNotifyVerificationPassed,
		contract.ContractNumber, matchPercent, end)
}

func (s *NotificationService) NotifyVerificationFailed(contract *models.Contract, reason string) {
	s.SendToUser(contract.PublisherID, i18n.KeyNotifyVerificationFailed,
		contract.ContractNumber, reason)
}

func (s *NotificationService) NotifyDeadlineWarning(contract *models.Contract, hoursLeft int) {
	s.SendToUser(contract.PublisherID, i18n.KeyNotifyDeadlineWarning,
		contract.ContractNumber, hoursLeft)
}

func (s *NotificationService) NotifyContractExpired(contract *models.Contract, refunded float64, currency string) {
	s.SendToUser(contract.AdvertiserID, i18n.KeyNotifyContractExpired,
		contract.ContractNumber, refunded, currency)
	s.SendToUser(contract.PublisherID, i18n.KeyNotifyContractExpired,
		contract.ContractNumber, refunded, currency)
}

func (s *NotificationService) NotifyContractCompleted(contract *models.Contract, settlement Settlement, rating models.PerformanceRating, currency string) {
	s.SendToUser(contract.PublisherID, i18n.KeyNotifyContractCompleted,
		contract.ContractNumber, settlement.NetPayout, currency,
		settlement.Commission, settlement.Bonus, string(rating))
	s.SendToUser(contract.AdvertiserID, i18n.KeyNotifyContractCompleted,
		contract.ContractNumber, settlement.NetPayout, currency,
		settlement.Commission, settlement.Bonus, string(rating))
}

func (s *NotificationService) NotifyPostDeleted(contract *models.Contract) {
	s.SendToUser(contract.AdvertiserID, i18n.KeyNotifyPostDeleted, contract.ContractNumber)
}

func (s *NotificationService) NotifyEarlyDeletionPenalty(contract *models.Contract, penalty, rate float64, currency string) {
	s.SendToUser(contract.PublisherID, i18n.KeyNotifyEarlyDeletionPenalty,
		contract.ContractNumber, penalty, currency, rate*100)
}

func (s *NotificationService) NotifyContractDeleted(contract *models.Contract, recipientID uuid.UUID) {
	s.SendToUser(recipientID, i18n.KeyNotifyContractDeleted, contract.ContractNumber)
}
