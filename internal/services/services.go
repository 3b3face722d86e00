// Package services holds the book club's business rules on top of the
// storage interfaces.
package services

import (
	"errors"

	"github.com/bookclub/api/pkg/utils"
	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnknownReading = errors.New("reading does not exist")
)

// FieldError is a user facing validation failure tied to one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

// newValidator adds bcryptlen: at most utils.MaxPasswordBytes bytes, the
// longest input bcrypt accepts.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= utils.MaxPasswordBytes
	})
	return v
}
