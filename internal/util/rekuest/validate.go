// Package rekuest provides request parsing and validation helpers for
// fiber handlers.
package rekuest

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/endfieldpass/backend/internal/pkg/gerr"
)

var Validate = newValidator()

// newValidator creates a validator that reports fields by their json tag so
// violation messages match the wire names clients actually send.
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"value"`
}

func validateStruct(s any) []*ErrorResponse {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		panic(err)
	}
	violations := make([]*ErrorResponse, 0, len(errs))
	for _, fieldErr := range errs {
		violations = append(violations, &ErrorResponse{
			FailedField: fieldErr.Field(),
			Tag:         fieldErr.Tag(),
			Value:       fieldErr.Param(),
		})
	}
	return violations
}

// ValidBody will get the body from *fiber.Ctx using fiber#BodyParser(),
// and validate it using the validator singleton. If the validation passed it
// will write the unmarshalled body to dest and return a nil, otherwise it
// will return an error. Notice that dest shall always be a pointer.
func ValidBody(ctx *fiber.Ctx, dest any) error {
	if err := ctx.BodyParser(dest); err != nil {
		return gerr.ErrInvalidReq.Msg("invalid request: %s", err)
	}

	if violations := validateStruct(dest); violations != nil {
		return gerr.NewInvalidViolations(violations)
	}

	return nil
}

func ValidStruct(dest any) error {
	if violations := validateStruct(dest); violations != nil {
		return gerr.NewInvalidViolations(violations)
	}

	return nil
}
