package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError carries per-field failures back to the error middleware.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateRequest runs struct tag validation on a request DTO.
func ValidateRequest(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(map[string]string, len(invalid))
	for _, fe := range invalid {
		fields[fe.Field()] = fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
	return &ValidationError{Fields: fields}
}
