package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	lowerAlphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"
)

func GenerateRandomString(length int) string {
	return generateRandom(length, lowerAlphanumeric)
}

func generateRandom(length int, charset string) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = charset[num.Int64()]
	}

	return string(result)
}

// GenerateReceiptID builds a receipt used as the provider idempotency key.
// A fresh one is required after a provider timeout.
func GenerateReceiptID(tripID, userID string) string {
	if userID == "" {
		userID = "anonymous"
	}
	receipt := fmt.Sprintf("trip_%s_%s_%d_%s", tripID, userID, time.Now().Unix(), GenerateRandomString(6))
	// Razorpay caps receipts at 40 characters.
	if len(receipt) > 40 {
		receipt = receipt[len(receipt)-40:]
		receipt = strings.TrimLeft(receipt, "_")
	}
	return receipt
}
