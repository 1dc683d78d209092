package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reads the same `binding` tags gin uses for form input
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// DecodeError reports a response body that does not match the expected shape
type DecodeError struct {
	Target string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Target, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeJSON decodes r into v and validates the result. v must be a pointer
// to a struct or to a slice of structs.
func DecodeJSON(r io.Reader, v any) error {
	target := reflect.TypeOf(v).String()

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return &DecodeError{Target: target, Err: err}
	}
	if err := validateValue(reflect.ValueOf(v)); err != nil {
		return &DecodeError{Target: target, Err: err}
	}
	return nil
}

func validateValue(rv reflect.Value) error {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if rv.CanAddr() {
			return validate.Struct(rv.Addr().Interface())
		}
		return validate.Struct(rv.Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := validateValue(rv.Index(i)); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}

// Validate checks v against its `binding` tags. Used for input that never
// passes through gin, such as CLI files.
func Validate(v any) error {
	return validateValue(reflect.ValueOf(v))
}
