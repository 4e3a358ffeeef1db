// internal/handlers/offer.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adspoint/adspoint-backend/internal/i18n"
	"github.com/adspoint/adspoint-backend/internal/models"
	"github.com/adspoint/adspoint-backend/internal/services"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

type OfferHandler struct {
	offerService   *services.OfferService
	storageService *services.StorageService
}

func NewOfferHandler(offerService *services.OfferService, storageService *services.StorageService) *OfferHandler {
	return &OfferHandler{
		offerService:   offerService,
		storageService: storageService,
	}
}

// POST /offers
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	offer, err := h.offerService.CreateOffer(userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOfferCreated),
		"offer":   offer,
	})
}

// GET /offers
func (h *OfferHandler) ListOffers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.offerService.ListOffers(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /offers/my
func (h *OfferHandler) ListMyOffers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	result, err := h.offerService.ListMyOffers(userID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /offers/:id
func (h *OfferHandler) GetOffer(c *gin.Context) {
	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid offer ID", nil)
		return
	}

	offer, err := h.offerService.GetOffer(offerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, offer)
}

// PUT /offers/:id
func (h *OfferHandler) UpdateOffer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid offer ID", nil)
		return
	}

	var req services.UpdateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	offer, err := h.offerService.UpdateOffer(offerID, userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOfferUpdated),
		"offer":   offer,
	})
}

// POST /offers/:id/pause
func (h *OfferHandler) PauseOffer(c *gin.Context) {
	h.setStatus(c, i18n.KeyOfferPaused, h.offerService.PauseOffer)
}

// POST /offers/:id/resume
func (h *OfferHandler) ResumeOffer(c *gin.Context) {
	h.setStatus(c, i18n.KeyOfferResumed, h.offerService.ResumeOffer)
}

// POST /offers/:id/cancel
func (h *OfferHandler) CancelOffer(c *gin.Context) {
	h.setStatus(c, i18n.KeyOfferCancelled, h.offerService.CancelOffer)
}

// DELETE /offers/:id
func (h *OfferHandler) DeleteOffer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid offer ID", nil)
		return
	}

	if err := h.offerService.DeleteOffer(offerID, userID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOfferDeleted),
	})
}

// POST /offers/creatives
func (h *OfferHandler) UploadCreative(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "Missing file", err.Error())
		return
	}
	defer file.Close()

	upload, err := h.storageService.UploadCreative(file, header)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, upload)
}

// GET /offers/creatives/:key/url
func (h *OfferHandler) PresignCreative(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	key := c.Param("key")
	url, err := h.storageService.PresignCreativeURL("creatives/"+key, 15*time.Minute)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{"url": url})
}

func (h *OfferHandler) setStatus(
	c *gin.Context,
	messageKey string,
	op func(offerID, ownerID uuid.UUID) (*models.Offer, error),
) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid offer ID", nil)
		return
	}

	offer, err := op(offerID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, messageKey),
		"offer":   offer,
	})
}
