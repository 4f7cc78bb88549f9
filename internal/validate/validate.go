// Package validate is the request validator: it decodes JSON bodies strictly
// and checks the decoded struct against its `validate` tags.
//
// Every failure comes back as an apperror.ValidationFailed naming the field,
// so handlers can reject the request before the store is touched.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/devlog/internal/apperror"
)

// EmailPattern is the accepted email shape: word characters, dots and spaces
// on either side of the @, then a dot and a word-character extension.
var EmailPattern = regexp.MustCompile(`^[\w\. ]+@[\w\. ]+\.\w+$`)

// Validator decodes request bodies and checks them against their struct
// tags. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the email and non-blank rules registered.
func New() *Validator {
	v := validator.New()

	// Report json names ("title"), not Go names ("Title").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return true
		}
		return strings.TrimSpace(field.String()) != ""
	})
	_ = v.RegisterValidation("email_pattern", func(fl validator.FieldLevel) bool {
		return EmailPattern.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Decode reads exactly one JSON object from body into dst, rejecting unknown
// fields and mistyped values, then validates dst. A missing or invalid field
// is reported ahead of an unknown one.
func (v *Validator) Decode(body io.Reader, dst any) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return decodeError(err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if _, ok := unknownField(err); !ok {
			return decodeError(err)
		}
		if lenientErr := json.Unmarshal(data, dst); lenientErr != nil {
			return decodeError(lenientErr)
		}
		if structErr := v.Struct(dst); structErr != nil {
			return structErr
		}
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.ValidationFailed("", "Request body must contain a single JSON object")
	}

	return v.Struct(dst)
}

// Struct validates an already-populated request struct.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.ValidationFailed("", "Invalid input")
	}

	// Fields are reported in declaration order; the first one wins.
	fe := fieldErrs[0]
	return apperror.ValidationFailed(fe.Field(), message(fe))
}

func message(fe validator.FieldError) string {
	label := Label(fe.Field())
	switch fe.Tag() {
	case "required", "required_without":
		return label + " is required"
	case "notblank":
		return label + " must not be blank"
	case "email_pattern":
		return "Enter a valid email address"
	case "gt":
		return label + " must be a positive integer"
	default:
		return label + " is invalid"
	}
}

// Label turns a json field name into the capitalised form used in messages.
func Label(field string) string {
	switch field {
	case "":
		return "Field"
	case "id":
		return "ID"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

func decodeError(err error) error {
	var (
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
		maxBytesErr *http.MaxBytesError
	)

	switch {
	case errors.Is(err, io.EOF):
		return apperror.ValidationFailed("", "Request body is required")
	case errors.As(err, &syntaxErr):
		return apperror.ValidationFailed("", fmt.Sprintf("Malformed JSON at position %d", syntaxErr.Offset))
	case errors.Is(err, io.ErrUnexpectedEOF):
		return apperror.ValidationFailed("", "Malformed JSON")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			return apperror.ValidationFailed("", "Request body must be a JSON object")
		}
		return apperror.ValidationFailed(field, fmt.Sprintf("%s must be %s", Label(field), kindName(typeErr.Type)))
	case errors.As(err, &maxBytesErr):
		return apperror.ValidationFailed("", "Request body too large")
	}

	if name, ok := unknownField(err); ok {
		return apperror.ValidationFailed(name, fmt.Sprintf("Unknown field %q", name))
	}

	return apperror.ValidationFailed("", "Invalid request body")
}

// unknownField extracts the field name from a DisallowUnknownFields error.
// encoding/json has no typed error for it.
func unknownField(err error) (string, bool) {
	name, ok := strings.CutPrefix(err.Error(), "json: unknown field ")
	if !ok {
		return "", false
	}
	return strings.Trim(name, `"`), true
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Bool:
		return "a boolean"
	default:
		return "a " + t.Kind().String()
	}
}
