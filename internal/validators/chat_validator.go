package validators

import (
	"unicode/utf8"

	"tripmate/internal/utils"
)

type ChatMessageRequest struct {
	TripID string `json:"trip_id" validate:"required,max=128"`
	Text   string `json:"message" validate:"required"`
}

func ValidateChatMessage(req *ChatMessageRequest) ValidationErrors {
	req.TripID = SanitizeInput(req.TripID)
	req.Text = SanitizeInput(req.Text)

	errs := ValidateStruct(req)
	if utf8.RuneCountInString(req.Text) > utils.MaxChatMessageLength {
		errs = append(errs, ValidationError{
			Field:   "message",
			Tag:     "max",
			Message: "message is too long",
		})
	}
	return errs
}
