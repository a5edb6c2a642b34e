package validators

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"tripmate/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("currency_code", validateCurrencyCode)
	validate.RegisterValidation("notes_keys", validateNotesKeys)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "request", Tag: "invalid", Message: err.Error()}}
	}

	for _, fieldErr := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldErr.Field(),
			Tag:     fieldErr.Tag(),
			Value:   fmt.Sprintf("%v", fieldErr.Value()),
			Message: getErrorMessage(fieldErr),
		})
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
	case "currency_code":
		return "Invalid currency code"
	case "notes_keys":
		return "notes.tripId and notes.userId are required strings"
	default:
		return fmt.Sprintf("%s is invalid", err.Field())
	}
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	validCurrencies := []string{"INR", "USD", "EUR", "GBP", "AED", "SGD", "AUD", "CAD", "JPY"}

	for _, currency := range validCurrencies {
		if code == currency {
			return true
		}
	}
	return false
}

func validateNotesKeys(fl validator.FieldLevel) bool {
	notes, ok := fl.Field().Interface().(models.Notes)
	if !ok {
		return false
	}
	if _, err := notes.TripID(); err != nil {
		return false
	}
	if _, err := notes.UserID(); err != nil {
		return false
	}
	return true
}

func SanitizeInput(input string) string {
	return strings.TrimSpace(input)
}

// Fields flattens the errors into the details map of a validation response.
func (v ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(v))
	for _, err := range v {
		fields[err.Field] = err.Message
	}
	return fields
}
