package model

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		// Report fields by their wire name.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// FormatValidationError converts validator errors to ErrorDetail
// so Validate() methods share one error shape.
func FormatValidationError(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		// First failing field only.
		e := validationErrors[0]
		return badRequest("Field validation for '" + e.Field() + "' failed on the '" + e.Tag() + "' tag")
	}
	return badRequest(err.Error())
}

func badRequest(msg string) *ErrorDetail {
	return &ErrorDetail{Code: "bad_request", Message: msg}
}
