package service

import (
	"errors"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

var fieldMessages = map[string]string{
	"name.required":     "name is required",
	"name.min":          "name must be between 2 and 100 characters",
	"name.max":          "name must be between 2 and 100 characters",
	"email.required":    "email is required",
	"email.email":       "email is not valid",
	"password.required": "password is required",
	"password.min":      "password must be at least 6 characters",
	"password.max":      "password must be at most 255 characters",
	"title.required":    "title is required",
	"title.max":         "title must be between 1 and 255 characters",
	"content.required":  "content is required",
}

// validateStruct runs the struct tags of v and converts failures into a ValidationError.
func validateStruct(v any) *ValidationError {
	verr := &ValidationError{}
	err := validate.Struct(v)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("_", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		field := fe.Field()
		msg, ok := fieldMessages[field+"."+fe.Tag()]
		if !ok {
			msg = field + " is invalid"
		}
		verr.Add(field, msg)
	}
	return verr
}

func validTitle(title string) bool {
	n := utf8.RuneCountInString(title)
	return n >= 1 && n <= 255
}
