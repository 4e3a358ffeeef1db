// internal/services/channel_service.go
package services

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/adspoint/adspoint-backend/internal/i18n"
	"github.com/adspoint/adspoint-backend/internal/models"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

// ChannelService maintains the publisher channel registry.
type ChannelService struct {
	db *gorm.DB
}

type RegisterChannelRequest struct {
	TelegramChannelID int64    `json:"telegram_channel_id"`
	Title             string   `json:"title" validate:"required,min=2,max=255"`
	Username          string   `json:"username" validate:"required,channel_username"`
	Description       string   `json:"description" validate:"max=2000"`
	Category          string   `json:"category" validate:"max=64"`
	Topics            []string `json:"topics" validate:"max=10"`
	SubscriberCount   int      `json:"subscriber_count" validate:"min=0"`
}

type UpdateChannelRequest struct {
	Title           *string  `json:"title" validate:"omitempty,min=2,max=255"`
	Description     *string  `json:"description" validate:"omitempty,max=2000"`
	Category        *string  `json:"category" validate:"omitempty,max=64"`
	Topics          []string `json:"topics" validate:"omitempty,max=10"`
	SubscriberCount *int     `json:"subscriber_count" validate:"omitempty,min=0"`
}

func NewChannelService(db *gorm.DB) *ChannelService {
	return &ChannelService{db: db}
}

func (s *ChannelService) RegisterChannel(ownerID uuid.UUID, req *RegisterChannelRequest) (*models.Channel, error) {
	channel := &models.Channel{
		OwnerID:           ownerID,
		TelegramChannelID: req.TelegramChannelID,
		Title:             req.Title,
		Username:          req.Username,
		Description:       req.Description,
		Category:          req.Category,
		Topics:            pq.StringArray(req.Topics),
		SubscriberCount:   req.SubscriberCount,
		ReliabilityScore:  100,
	}

	if err := s.db.Create(channel).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, wrapError(ErrCodeValidation, i18n.KeyValidationInvalid, err)
		}
		return nil, internalError(err)
	}
	return channel, nil
}

func (s *ChannelService) GetChannel(channelID uuid.UUID) (*models.Channel, error) {
	var channel models.Channel
	if err := s.db.First(&channel, "id = ?", channelID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyChannelNotFound, err)
	}
	return &channel, nil
}

// ListMyChannels returns the publisher's registered channels.
func (s *ChannelService) ListMyChannels(ownerID uuid.UUID) ([]models.Channel, error) {
	var channels []models.Channel
	if err := s.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&channels).Error; err != nil {
		return nil, internalError(err)
	}
	return channels, nil
}

// ListChannels is the public catalog with category and subscriber
// filters for advertisers scouting placements.
func (s *ChannelService) ListChannels(params utils.PaginationParams, minSubscribers int) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Channel{})

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("title ILIKE ? OR username ILIKE ?", search, search)
	}
	if minSubscribers > 0 {
		query = query.Where("subscriber_count >= ?", minSubscribers)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, internalError(err)
	}

	var channels []models.Channel
	err := utils.ApplySort(utils.ApplyPagination(query, params), params,
		[]string{"created_at", "subscriber_count", "reliability_score"}).
		Find(&channels).Error
	if err != nil {
		return nil, internalError(err)
	}

	result := utils.CreatePaginationResult(channels, total, params)
	return &result, nil
}

func (s *ChannelService) UpdateChannel(channelID, ownerID uuid.UUID, req *UpdateChannelRequest) (*models.Channel, error) {
	channel, err := s.getOwnedChannel(channelID, ownerID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Topics != nil {
		updates["topics"] = pq.StringArray(req.Topics)
	}
	if req.SubscriberCount != nil {
		updates["subscriber_count"] = *req.SubscriberCount
	}

	if len(updates) > 0 {
		if err := s.db.Model(channel).Updates(updates).Error; err != nil {
			return nil, internalError(err)
		}
	}
	return channel, nil
}

func (s *ChannelService) DeleteChannel(channelID, ownerID uuid.UUID) error {
	channel, err := s.getOwnedChannel(channelID, ownerID)
	if err != nil {
		return err
	}

	var activeContracts int64
	err = s.db.Model(&models.Contract{}).
		Where("channel_id = ? AND status IN ?", channelID, []models.ContractStatus{
			models.ContractStatusActive,
			models.ContractStatusVerification,
			models.ContractStatusMonitoring,
		}).
		Count(&activeContracts).Error
	if err != nil {
		return internalError(err)
	}
	if activeContracts > 0 {
		return newError(ErrCodeInvalidState, i18n.KeyContractWrongState)
	}

	if err := s.db.Delete(channel).Error; err != nil {
		return internalError(err)
	}
	return nil
}

func (s *ChannelService) getOwnedChannel(channelID, ownerID uuid.UUID) (*models.Channel, error) {
	var channel models.Channel
	if err := s.db.First(&channel, "id = ?", channelID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyChannelNotFound, err)
	}
	if channel.OwnerID != ownerID {
		return nil, newError(ErrCodeForbidden, i18n.KeyChannelNotYours)
	}
	return &channel, nil
}
