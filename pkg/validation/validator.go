package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var std = newValidate()

// Init configures the validator used by Gin's binding the same way as the
// package validator used by Struct.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v)
	}
}

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	configure(v)
	return v
}

// configure makes errors use json (or form) names and registers the directory aliases.
func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return s != ""
	})
	v.RegisterAlias("pwd", "min=6")                    // password minimum length
	v.RegisterAlias("whatsapp", "digits,min=1,max=11") // BR mobile with area code
}

// Struct validates s and returns field details, or nil when s is valid.
func Struct(s any) map[string]string {
	if err := std.Struct(s); err != nil {
		return ToDetails(err)
	}
	return nil
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return map[string]string{"payload": "invalid number"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "digits":
		return "must contain digits only"
	case "whatsapp":
		return "must have 1 to 11 digits"
	case "pwd":
		return "must be at least 6 characters long"
	case "min":
		switch fe.Kind() {
		case reflect.Slice, reflect.Map, reflect.Array:
			return "must contain at least " + param + " item(s)"
		case reflect.String:
			return "must be at least " + param + " characters long"
		}
		return "must be at least " + param
	case "max":
		switch fe.Kind() {
		case reflect.Slice, reflect.Map, reflect.Array:
			return "must contain at most " + param + " item(s)"
		case reflect.String:
			return "must be at most " + param + " characters long"
		}
		return "must be at most " + param
	case "gt":
		return "must be greater than " + param
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", fe.Tag(), param)
		}
		return fmt.Sprintf("validation failed for '%s'", fe.Tag())
	}
}
