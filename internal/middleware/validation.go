package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidation configures gin's validator engine. Field names in
// validation errors follow the json tag, and the mobile tag accepts a ten
// digit number.
func RegisterValidation() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("mobile", validMobile); err != nil {
		panic(err)
	}
}

func validMobile(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var validationMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"mobile":   "must be a ten digit mobile number",
	"min":      "is too short",
	"max":      "is too long",
	"oneof":    "has an unsupported value",
}

// BindErrorMessage flattens a binding error into a readable message.
func BindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msg, ok := validationMessages[e.Tag()]
		if !ok {
			msg = fmt.Sprintf("failed the %s rule", e.Tag())
		}
		parts = append(parts, fmt.Sprintf("%s %s", e.Field(), msg))
	}
	return strings.Join(parts, "; ")
}
