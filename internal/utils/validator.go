// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("post_url", validatePostURL)
	validate.RegisterValidation("channel_username", validateChannelUsername)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validatePostURL(fl validator.FieldLevel) bool {
	_, err := ParsePostURL(fl.Field().String())
	return err == nil
}

func validateChannelUsername(fl validator.FieldLevel) bool {
	username := strings.TrimPrefix(fl.Field().String(), "@")

	if len(username) < 3 || len(username) > 64 {
		return false
	}

	matched, _ := regexp.MatchString("^[a-zA-Z0-9_]+$", username)
	return matched
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "post_url":
		return "Post URL must look like https://t.me/channel/123"
	case "channel_username":
		return "Channel username must be 3-64 characters and contain only letters, numbers, and underscores"
	default:
		return e.Field() + " is invalid"
	}
}
