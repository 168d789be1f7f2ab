package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/student-directory-api/pkg/errors"
)

const msgFieldRequired = "This field is required."

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validationFields converts validator output into per-field messages.
func validationFields(err error) appErrors.FieldErrors {
	fields := appErrors.FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields.Add("non_field_errors", err.Error())
		return fields
	}
	for _, fe := range verrs {
		fields.Add(fe.Field(), fieldMessage(fe))
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgFieldRequired
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
	}
}
