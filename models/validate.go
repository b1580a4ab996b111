package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const MinPasswordLength = 6

// ErrInvalidInput is wrapped by every validation failure below.
var ErrInvalidInput = errors.New("invalid input")

// Validate checks a listing at the input boundary. The store accepts
// anything; callers that take user input run this first.
func (in *PropertyInput) Validate() error {
	var problems []string

	if strings.TrimSpace(in.Title) == "" {
		problems = append(problems, "title is required")
	}
	if !finite(in.Price) {
		problems = append(problems, "price must be a finite number")
	} else if in.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if !in.Type.Valid() {
		problems = append(problems, fmt.Sprintf("type %q is not one of house, apartment, residence", in.Type))
	}
	if !in.Operation.Valid() {
		problems = append(problems, fmt.Sprintf("operation %q is not one of sale, rental", in.Operation))
	}
	if in.Bedrooms < 0 || in.Bathrooms < 0 {
		problems = append(problems, "bedrooms and bathrooms must not be negative")
	}
	if !finite(in.Area) {
		problems = append(problems, "area must be a finite number")
	} else if in.Area < 0 {
		problems = append(problems, "area must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// SplitList turns a comma separated form value into trimmed, non-empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
