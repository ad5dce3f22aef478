package dto

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"yamdb/internal/microservices/http-api/models"
)

// RegisterValidators installs the custom binding tags on v:
//
//	notblank  string has a non-whitespace character
//	slug      string matches the slug charset
//	username  string is a valid, non-reserved username
//	pastyear  int is not after the current calendar year
//
// It also reports json field names in validation errors.
func RegisterValidators(v *validator.Validate) error {
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

	rules := map[string]validator.Func{
		"notblank": func(fl validator.FieldLevel) bool {
			return models.ValidateNotBlank(fl.Field().String()) == nil
		},
		"slug": func(fl validator.FieldLevel) bool {
			return models.ValidateSlug(fl.Field().String()) == nil
		},
		"username": func(fl validator.FieldLevel) bool {
			return models.ValidateUsername(fl.Field().String()) == nil
		},
		"pastyear": func(fl validator.FieldLevel) bool {
			return models.ValidateYear(int(fl.Field().Int()), time.Now()) == nil
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}

// RegisterGinValidators installs the custom tags on gin's default binding engine.
func RegisterGinValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	return RegisterValidators(v)
}

// ValidationMessage renders one failed rule for API clients.
func ValidationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "notblank":
		return models.ErrBlankText.Error()
	case "slug":
		return models.ErrInvalidSlug.Error()
	case "username":
		if fe.Value() == models.ReservedUsername {
			return models.ErrReservedUsername.Error()
		}
		return models.ErrInvalidUsername.Error()
	case "pastyear":
		return models.ErrYearInFuture.Error()
	case "email":
		return "enter a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "max":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("length must be %s %s", bound(fe.Tag()), fe.Param())
		}
		return fmt.Sprintf("must be %s %s", bound(fe.Tag()), fe.Param())
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

func bound(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}
