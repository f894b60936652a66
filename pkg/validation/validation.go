// Package validation implements the argument checks performed before a resource
// operation touches the network.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidArgument is matched by every error returned from Validate
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError names the argument which failed validation
type InvalidArgumentError struct {
	Name string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s cannot be null or empty", e.Name)
}

// Is reports whether target is ErrInvalidArgument
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate returns an *InvalidArgumentError if the value is nil, a nil pointer,
// map or slice, or an empty string.
func Validate(value interface{}, name string) error {
	if value == nil {
		return &InvalidArgumentError{Name: name}
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return &InvalidArgumentError{Name: name}
		}
		if v.Kind() == reflect.Ptr {
			// structs behind a pointer only need to be present
			return nil
		}
	case reflect.Struct:
		return nil
	}
	if err := instance().Var(value, "required"); err != nil {
		return &InvalidArgumentError{Name: name}
	}
	return nil
}
