// internal/services/offer_service.go
package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/adspoint/adspoint-backend/internal/i18n"
	"github.com/adspoint/adspoint-backend/internal/models"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

// OfferService manages advertiser offers and their visibility to
// publishers.
type OfferService struct {
	db  *gorm.DB
	now func() time.Time
}

type CreateOfferRequest struct {
	Title          string                 `json:"title" validate:"required,min=3,max=255"`
	Description    string                 `json:"description" validate:"required,min=10"`
	Content        string                 `json:"content"`
	Price          float64                `json:"price" validate:"min=0"`
	MaxPrice       float64                `json:"max_price" validate:"min=0"`
	Currency       string                 `json:"currency" validate:"omitempty,len=3"`
	Category       string                 `json:"category" validate:"max=64"`
	BudgetTotal    float64                `json:"budget_total" validate:"min=0"`
	ExpiresAt      *time.Time             `json:"expires_at"`
	MinSubscribers int                    `json:"min_subscribers" validate:"min=0"`
	MaxSubscribers int                    `json:"max_subscribers" validate:"min=0"`
	Tags           []string               `json:"tags" validate:"max=20"`
	Metadata       map[string]interface{} `json:"metadata"`
}

type UpdateOfferRequest struct {
	Title          *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description    *string    `json:"description" validate:"omitempty,min=10"`
	Content        *string    `json:"content"`
	Price          *float64   `json:"price" validate:"omitempty,min=0"`
	MaxPrice       *float64   `json:"max_price" validate:"omitempty,min=0"`
	Category       *string    `json:"category" validate:"omitempty,max=64"`
	BudgetTotal    *float64   `json:"budget_total" validate:"omitempty,min=0"`
	ExpiresAt      *time.Time `json:"expires_at"`
	MinSubscribers *int       `json:"min_subscribers" validate:"omitempty,min=0"`
	MaxSubscribers *int       `json:"max_subscribers" validate:"omitempty,min=0"`
	Tags           []string   `json:"tags" validate:"omitempty,max=20"`
}

func NewOfferService(db *gorm.DB) *OfferService {
	return &OfferService{db: db, now: time.Now}
}

func (s *OfferService) CreateOffer(ownerID uuid.UUID, req *CreateOfferRequest) (*models.Offer, error) {
	currency := req.Currency
	if currency == "" {
		currency = "RUB"
	}

	offer := &models.Offer{
		OwnerID:        ownerID,
		Title:          req.Title,
		Description:    req.Description,
		Content:        req.Content,
		Price:          req.Price,
		MaxPrice:       req.MaxPrice,
		Currency:       currency,
		Category:       req.Category,
		Status:         models.OfferStatusActive,
		BudgetTotal:    req.BudgetTotal,
		ExpiresAt:      req.ExpiresAt,
		MinSubscribers: req.MinSubscribers,
		MaxSubscribers: req.MaxSubscribers,
		Tags:           pq.StringArray(req.Tags),
		Metadata:       models.JSONB(req.Metadata),
	}

	if err := s.db.Create(offer).Error; err != nil {
		return nil, internalError(err)
	}
	return offer, nil
}

// ListOffers returns the public catalog of offers open for responses.
func (s *OfferService) ListOffers(params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Offer{}).Where("status = ?", models.OfferStatusActive)

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, internalError(err)
	}

	var offers []models.Offer
	err := utils.ApplySort(utils.ApplyPagination(query, params), params,
		[]string{"created_at", "price", "budget_total"}).
		Find(&offers).Error
	if err != nil {
		return nil, internalError(err)
	}

	result := utils.CreatePaginationResult(offers, total, params)
	return &result, nil
}

// ListMyOffers returns the advertiser's own offers in every status.
func (s *OfferService) ListMyOffers(ownerID uuid.UUID, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Offer{}).Where("owner_id = ?", ownerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, internalError(err)
	}

	var offers []models.Offer
	if err := utils.ApplyPagination(query, params).
		Order("created_at DESC").
		Find(&offers).Error; err != nil {
		return nil, internalError(err)
	}

	result := utils.CreatePaginationResult(offers, total, params)
	return &result, nil
}

func (s *OfferService) GetOffer(offerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := s.db.Preload("Owner").First(&offer, "id = ?", offerID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyOfferNotFound, err)
	}
	return &offer, nil
}

func (s *OfferService) UpdateOffer(offerID, ownerID uuid.UUID, req *UpdateOfferRequest) (*models.Offer, error) {
	offer, err := s.getOwnedOffer(offerID, ownerID)
	if err != nil {
		return nil, err
	}

	if offer.Status != models.OfferStatusActive && offer.Status != models.OfferStatusPaused {
		return nil, newError(ErrCodeInvalidState, i18n.KeyOfferNotActive)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.MaxPrice != nil {
		updates["max_price"] = *req.MaxPrice
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.BudgetTotal != nil {
		updates["budget_total"] = *req.BudgetTotal
	}
	if req.ExpiresAt != nil {
		updates["expires_at"] = *req.ExpiresAt
	}
	if req.MinSubscribers != nil {
		updates["min_subscribers"] = *req.MinSubscribers
	}
	if req.MaxSubscribers != nil {
		updates["max_subscribers"] = *req.MaxSubscribers
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(req.Tags)
	}

	if len(updates) > 0 {
		if err := s.db.Model(offer).Updates(updates).Error; err != nil {
			return nil, internalError(err)
		}
	}
	return offer, nil
}

func (s *OfferService) PauseOffer(offerID, ownerID uuid.UUID) (*models.Offer, error) {
	return s.setStatus(offerID, ownerID, models.OfferStatusActive, models.OfferStatusPaused)
}

func (s *OfferService) ResumeOffer(offerID, ownerID uuid.UUID) (*models.Offer, error) {
	return s.setStatus(offerID, ownerID, models.OfferStatusPaused, models.OfferStatusActive)
}

// CancelOffer withdraws an offer that has not yet produced a contract.
func (s *OfferService) CancelOffer(offerID, ownerID uuid.UUID) (*models.Offer, error) {
	offer, err := s.getOwnedOffer(offerID, ownerID)
	if err != nil {
		return nil, err
	}
	if offer.Status != models.OfferStatusActive && offer.Status != models.OfferStatusPaused {
		return nil, newError(ErrCodeInvalidState, i18n.KeyOfferNotActive)
	}

	if err := s.db.Model(offer).Update("status", models.OfferStatusCancelled).Error; err != nil {
		return nil, internalError(err)
	}
	offer.Status = models.OfferStatusCancelled
	return offer, nil
}

// DeleteOffer soft deletes a cancelled or completed offer. Offers
// still visible to publishers must be cancelled first.
func (s *OfferService) DeleteOffer(offerID, ownerID uuid.UUID) error {
	offer, err := s.getOwnedOffer(offerID, ownerID)
	if err != nil {
		return err
	}

	if offer.Status == models.OfferStatusActive ||
		offer.Status == models.OfferStatusPaused ||
		offer.Status == models.OfferStatusInProgress {
		return newError(ErrCodeInvalidState, i18n.KeyOfferDeleteActive)
	}

	if err := s.db.Delete(offer).Error; err != nil {
		return internalError(err)
	}
	return nil
}

func (s *OfferService) setStatus(offerID, ownerID uuid.UUID, from, to models.OfferStatus) (*models.Offer, error) {
	offer, err := s.getOwnedOffer(offerID, ownerID)
	if err != nil {
		return nil, err
	}

	res := s.db.Model(&models.Offer{}).
		Where("id = ? AND status = ?", offerID, from).
		Update("status", to)
	if res.Error != nil {
		return nil, internalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, newError(ErrCodeInvalidState, i18n.KeyOfferNotActive)
	}

	offer.Status = to
	return offer, nil
}

func (s *OfferService) getOwnedOffer(offerID, ownerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := s.db.First(&offer, "id = ?", offerID).Error; err != nil {
		return nil, wrapError(ErrCodeNotFound, i18n.KeyOfferNotFound, err)
	}
	if offer.OwnerID != ownerID {
		return nil, newError(ErrCodeForbidden, i18n.KeyAccessDenied)
	}
	return &offer, nil
}
