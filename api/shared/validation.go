package shared

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/badoux/checkmail"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return v
}

// Validate checks the `validate` tags of a request and turns the first
// violation into a ValidationError.
func Validate(request interface{}) error {
	err := validate.Struct(request)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return NewValidationError(err.Error())
	}
	return NewValidationError(describe(validationErrors[0]))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + strings.Replace(fe.Param(), " ", ", ", -1)
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "gte", "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "uuid":
		return fe.Field() + " is not a valid identifier"
	default:
		return fe.Field() + " is invalid"
	}
}

func ValidateEmail(email string) error {
	if err := checkmail.ValidateFormat(email); err != nil {
		return NewValidationError("email %q is invalid", email)
	}
	return nil
}

func ValidateId(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidId
	}
	return nil
}

// ParseDate accepts any layout dateparse understands and returns nil for an
// empty string.
func ParseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return nil, NewValidationError("%s: %q is not a valid date", field, value)
	}
	t = t.UTC()
	return &t, nil
}

func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return ErrInvalidJson
	}
	return nil
}

// PathId reads a mux path variable and checks it is a valid identifier.
func PathId(r *http.Request, name string) (string, error) {
	id, ok := mux.Vars(r)[name]
	if !ok {
		return "", ErrBadRouting
	}
	if err := ValidateId(id); err != nil {
		return "", err
	}
	return id, nil
}

func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func StringPtr(s string) *string {
	return &s
}
