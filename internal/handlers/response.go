// internal/handlers/response.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adspoint/adspoint-backend/internal/i18n"
	"github.com/adspoint/adspoint-backend/internal/services"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

type ResponseHandler struct {
	responseService *services.ResponseService
}

func NewResponseHandler(responseService *services.ResponseService) *ResponseHandler {
	return &ResponseHandler{responseService: responseService}
}

// POST /responses
func (h *ResponseHandler) SubmitResponse(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	response, err := h.responseService.SubmitResponse(userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyResponseSubmitted),
		"response": response,
	})
}

// POST /responses/:id/accept
func (h *ResponseHandler) AcceptResponse(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	responseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid response ID", nil)
		return
	}

	contract, err := h.responseService.AcceptResponse(responseID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyResponseAccepted),
		"contract": contract,
	})
}

// POST /responses/:id/reject
func (h *ResponseHandler) RejectResponse(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	responseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid response ID", nil)
		return
	}

	var req services.RejectResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	response, err := h.responseService.RejectResponse(responseID, userID, req.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyResponseRejected),
		"response": response,
	})
}

// GET /offers/:id/responses
func (h *ResponseHandler) ListOfferResponses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid offer ID", nil)
		return
	}

	params := utils.GetPaginationParams(c)
	result, err := h.responseService.ListOfferResponses(offerID, userID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /responses/my
func (h *ResponseHandler) ListMyResponses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	result, err := h.responseService.ListMyResponses(userID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}
