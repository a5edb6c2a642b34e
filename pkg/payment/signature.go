package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// GenerateSignature returns hex(HMAC-SHA256(secret, orderID + "|" + paymentID)),
// the value the checkout widget hands back after a successful payment.
func GenerateSignature(secret, orderID, paymentID string) string {
	return sign(secret, []byte(orderID+"|"+paymentID))
}

func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := GenerateSignature(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func GenerateWebhookSignature(secret string, payload []byte) string {
	return sign(secret, payload)
}

func VerifyWebhookSignature(secret string, payload []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := GenerateWebhookSignature(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
