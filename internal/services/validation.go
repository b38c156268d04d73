package services

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationHelper wraps a shared validator instance for the request
// structs the services accept.
type ValidationHelper struct {
	validator *validator.Validate
}

func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{validator: validator.New()}
}

// ValidateStruct checks a request against its validate tags. Failures
// come back wrapped in ErrValidation so callers can match the kind
// without parsing field details.
func (vh *ValidationHelper) ValidateStruct(s any) error {
	if err := vh.validator.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
