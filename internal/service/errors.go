package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"warungmadura/internal/repository"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidQuantity = repository.ErrInvalidQuantity
	ErrEmptyCart       = errors.New("cart is empty")
	ErrForbidden       = errors.New("forbidden")
	ErrNotEnoughStock  = repository.ErrNotEnoughStock
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Slugify нижний регистр, обрезка, пробельные последовательности -> дефис
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
