package utils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs go-playground tag validation on seed/fixture payloads
// before they are written to the database.
func ValidateStruct(s any) error {
	return validate.Struct(s)
}
