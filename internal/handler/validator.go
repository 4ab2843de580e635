package handler

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequestValidator adapts validator/v10 to echo.Validator.  Field names
// in errors use the json tag.
type RequestValidator struct {
	v *validator.Validate
}

func NewValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}
