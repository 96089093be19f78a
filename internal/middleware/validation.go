package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"shop-api/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// report fields by their JSON names
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegisterEnum("order_status", func(s string) bool { return domain.OrderStatus(s).Valid() })
	mustRegisterEnum("payment_status", func(s string) bool {
		_, ok := domain.ParsePaymentStatus(s)
		return ok
	})
	mustRegisterEnum("payment_method", func(s string) bool { return domain.PaymentMethod(s).Valid() })
	mustRegisterEnum("role", func(s string) bool { return domain.Role(s).Valid() })
}

func mustRegisterEnum(tag string, valid func(string) bool) {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return valid(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

var (
	// ErrEmptyBody is returned when a request carries no JSON document
	ErrEmptyBody = errors.New("request body is empty")
	// ErrUnknownField is returned by strict decoding for fields the endpoint does not accept
	ErrUnknownField = errors.New("invalid updates")
)

// ValidateRequest validates the request body against a struct with validation tags
func ValidateRequest(v any) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v any) error {
	if err := decode(json.NewDecoder(r.Body), v); err != nil {
		return err
	}
	return ValidateRequest(v)
}

// DecodeStrictAndValidate is DecodeAndValidate for partial updates: fields outside v are rejected
func DecodeStrictAndValidate(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decode(decoder, v); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			return fmt.Errorf("%w: %v", ErrUnknownField, err)
		}
		return err
	}
	return ValidateRequest(v)
}

func decode(decoder *json.Decoder, v any) error {
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validator errors to a readable format
func FormatValidationErrors(err error) []ValidationError {
	var errs []ValidationError

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			errs = append(errs, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return errs
}

// IsValidationError reports whether err came from struct tag validation rather than decoding
func IsValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "gt":
		return "Value must be greater than " + e.Param()
	case "lt":
		return "Value must be less than " + e.Param()
	case "order_status":
		return "Must be one of pending, processing, shipped, delivered"
	case "payment_status":
		return "Must be one of pending, completed, failed"
	case "payment_method":
		return "Must be one of Online, COD"
	case "role":
		return "Must be one of user, admin"
	default:
		return "Invalid value"
	}
}
