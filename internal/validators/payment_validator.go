package validators

import (
	"strings"

	"tripmate/internal/models"
)

// ValidateCreateOrder normalizes the currency before checking the request.
func ValidateCreateOrder(req *models.CreateOrderRequest) ValidationErrors {
	req.Currency = strings.ToUpper(SanitizeInput(req.Currency))
	req.Receipt = SanitizeInput(req.Receipt)

	return ValidateStruct(req)
}

func ValidateVerifyPayment(req *models.VerifyPaymentRequest) ValidationErrors {
	req.PaymentID = SanitizeInput(req.PaymentID)
	req.OrderID = SanitizeInput(req.OrderID)
	req.Signature = SanitizeInput(req.Signature)
	req.Currency = strings.ToUpper(SanitizeInput(req.Currency))

	return ValidateStruct(req)
}
