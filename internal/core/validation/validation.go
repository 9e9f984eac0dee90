// Package validation checks command inputs with struct tags.
// Decimal amounts are checked by the services themselves; tags cover
// presence, enums and list sizes.
package validation

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"stockledger/internal/core/apperror"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
	})
	return instance
}

// Struct validates v and converts failures into a VALIDATION_ERROR.
func Struct(v any) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.NewValidation("invalid input").WithCause(err)
	}

	fields := make(map[string]string, len(fieldErrs))
	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Namespace()] = fe.Tag()
		names = append(names, fe.Field())
	}
	return apperror.NewValidation("invalid "+strings.Join(names, ", ")).WithDetail("fields", fields)
}
