// internal/handlers/contract.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adspoint/adspoint-backend/internal/i18n"
	"github.com/adspoint/adspoint-backend/internal/services"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

type ContractHandler struct {
	contractService *services.ContractService
}

func NewContractHandler(contractService *services.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// GET /contracts
func (h *ContractHandler) ListContracts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	result, err := h.contractService.ListContracts(userID, c.Query("status"), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /contracts/:id
func (h *ContractHandler) GetContract(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	// Accepts either the UUID or the short contract number.
	idParam := c.Param("id")
	if contractID, err := uuid.Parse(idParam); err == nil {
		contract, err := h.contractService.GetContract(contractID, userID)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		utils.SuccessResponse(c, contract)
		return
	}

	contract, err := h.contractService.GetContractByNumber(idParam, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, contract)
}

// POST /contracts/:id/fund
func (h *ContractHandler) FundContract(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}

	contract, err := h.contractService.FundContract(contractID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyContractFunded),
		"contract": contract,
	})
}

// POST /contracts/:id/placement
func (h *ContractHandler) SubmitPlacement(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}

	var req services.SubmitPlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	contract, err := h.contractService.SubmitPlacement(c.Request.Context(), contractID, userID, req.PostURL)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	messageKey := i18n.KeyContractVerificationFailed
	if contract.VerificationPassed {
		messageKey = i18n.KeyContractVerificationPassed
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, messageKey),
		"contract": contract,
	})
}

// POST /contracts/:id/verify
func (h *ContractHandler) VerifyPlacement(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}

	// Only parties may trigger a re-verification.
	if _, err := h.contractService.GetContract(contractID, userID); err != nil {
		handleServiceError(c, err)
		return
	}

	contract, err := h.contractService.VerifyPlacement(c.Request.Context(), contractID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, contract)
}

// DELETE /contracts/:id
func (h *ContractHandler) DeleteFailedContract(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}

	if err := h.contractService.DeleteFailedContract(contractID, userID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyContractDeleted),
	})
}
