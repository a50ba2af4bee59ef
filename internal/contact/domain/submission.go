package domain

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Submission is the contact-form payload received from a visitor.
type Submission struct {
	Name    string `validate:"required"`
	Email   string `validate:"required"`
	Message string `validate:"required"`
}

// Validate reports ErrValidation when any field is empty.
// Values are not trimmed and the email is not checked for RFC 5322 syntax.
func (s Submission) Validate() error {
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return &ValidationError{Fields: fieldNames(fieldErrs)}
		}
		return err
	}
	return nil
}

func fieldNames(errs validator.ValidationErrors) []string {
	names := make([]string, 0, len(errs))
	for _, fe := range errs {
		names = append(names, fe.Field())
	}
	return names
}

// StoredMessage is the persisted form of an accepted submission.
// It is created once and never updated.
type StoredMessage struct {
	ID        string
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

// NewStoredMessage assigns a random identifier and a UTC creation time.
func NewStoredMessage(s Submission, now time.Time) StoredMessage {
	return StoredMessage{
		ID:        uuid.NewString(),
		Name:      s.Name,
		Email:     s.Email,
		Message:   s.Message,
		CreatedAt: now.UTC(),
	}
}
