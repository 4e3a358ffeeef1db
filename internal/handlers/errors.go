// internal/handlers/errors.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/adspoint/adspoint-backend/internal/services"
	"github.com/adspoint/adspoint-backend/internal/utils"
)

// handleServiceError maps the service error taxonomy to HTTP status
// codes and renders the localized message for the caller.
func handleServiceError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	se, ok := services.AsServiceError(err)
	if !ok {
		logrus.WithError(err).Error("Unhandled service error")
		utils.InternalErrorResponse(c, "")
		return
	}

	status := http.StatusBadRequest
	switch se.Code {
	case services.ErrCodeNotFound:
		status = http.StatusNotFound
	case services.ErrCodeForbidden:
		status = http.StatusForbidden
	case services.ErrCodeDuplicateResponse, services.ErrCodeContractExists:
		status = http.StatusConflict
	case services.ErrCodeInvalidState,
		services.ErrCodeDeadlineExpired,
		services.ErrCodeResponseNotAccepted:
		status = http.StatusUnprocessableEntity
	case services.ErrCodeExternalService:
		status = http.StatusBadGateway
	case services.ErrCodeInternal:
		logrus.WithError(se.Err).Error("Internal service error")
		status = http.StatusInternalServerError
	}

	utils.ErrorResponse(c, status, string(se.Code), se.Message(lang), nil)
}
