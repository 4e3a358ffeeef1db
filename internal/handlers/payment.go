// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adspoint/adspoint-backend/internal/services"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// GET /payments
func (h *PaymentHandler) GetPaymentHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	result, err := h.paymentService.GetPaymentHistory(userID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /payments/balance
func (h *PaymentHandler) GetBalance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	balance, err := h.paymentService.GetPublisherBalance(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"balance": balance})
}

// GET /payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid payment ID", nil)
		return
	}

	payment, err := h.paymentService.GetPayment(paymentID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, payment)
}

// GET /contracts/:id/payments
func (h *PaymentHandler) GetContractPayments(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contract ID", nil)
		return
	}

	payments, err := h.paymentService.GetContractPayments(contractID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, payments)
}
