// internal/handlers/channel.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adspoint/adspoint-backend/internal/i18n"
	"github.com/adspoint/adspoint-backend/internal/services"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

type ChannelHandler struct {
	channelService *services.ChannelService
}

func NewChannelHandler(channelService *services.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

// POST /channels
func (h *ChannelHandler) RegisterChannel(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.RegisterChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	channel, err := h.channelService.RegisterChannel(userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyChannelRegistered),
		"channel": channel,
	})
}

// GET /channels
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	minSubscribers, _ := strconv.Atoi(c.DefaultQuery("min_subscribers", "0"))

	result, err := h.channelService.ListChannels(params, minSubscribers)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /channels/my
func (h *ChannelHandler) ListMyChannels(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	channels, err := h.channelService.ListMyChannels(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, channels)
}

// GET /channels/:id
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid channel ID", nil)
		return
	}

	channel, err := h.channelService.GetChannel(channelID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, channel)
}

// PUT /channels/:id
func (h *ChannelHandler) UpdateChannel(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid channel ID", nil)
		return
	}

	var req services.UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	channel, err := h.channelService.UpdateChannel(channelID, userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, channel)
}

// DELETE /channels/:id
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid channel ID", nil)
		return
	}

	if err := h.channelService.DeleteChannel(channelID, userID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}
