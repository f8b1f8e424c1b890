package dto

import (
	"errors"
	"reflect"
	"strings"

	"snack-checkout/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("msisdn", validateMSISDN)
	}
}

// validateMSISDN accepts any phone number that normalizes to a valid
// Kenyan MSISDN (2547XXXXXXXX / 2541XXXXXXXX forms).
func validateMSISDN(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	return domain.ValidateMSISDN(domain.NormalizeMSISDN(raw))
}

// FailedOnMSISDN reports whether a binding error was caused by the
// msisdn rule, so handlers can surface the phone-specific error code
// instead of a generic validation failure.
func FailedOnMSISDN(err error) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() == "msisdn" {
			return true
		}
	}
	return false
}

// SanitizeStruct trims whitespace on every exported string field
// (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(strings.TrimSpace(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(strings.TrimSpace(elem.String()))
			}
		}
	}
}
