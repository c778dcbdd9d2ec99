package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator"
	"github.com/google/shlex"
	"github.com/pkg/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the custom rules registered:
//
//	command      a non-empty, shell-splittable command line
//	file_exists  a path to an existing regular file
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		mustRegister(v, "command", func(fl validator.FieldLevel) bool {
			parts, err := shlex.Split(fl.Field().String())
			return err == nil && len(parts) > 0
		})
		mustRegister(v, "file_exists", func(fl validator.FieldLevel) bool {
			info, err := os.Stat(fl.Field().String())
			return err == nil && info.Mode().IsRegular()
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if err := ValidateStruct(c); err != nil {
		return errors.Wrap(err, "invalid config values")
	}
	return nil
}

// ValidateStruct validates any tagged struct and flattens the failures
// into one readable error
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	lines := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		lines = append(lines, fmt.Sprintf("%s: %s", fe.Namespace(), translateError(fe)))
	}
	return errors.New(strings.Join(lines, "; "))
}

func translateError(e validator.FieldError) string {
	switch e.ActualTag() {
	case "required":
		return "value is empty"
	case "command":
		return fmt.Sprintf("%q is not a valid command line", e.Value())
	case "file_exists":
		return fmt.Sprintf("file %q does not exist", e.Value())
	case "dir":
		return fmt.Sprintf("directory %q does not exist", e.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	default:
		return fmt.Sprintf("invalid value (%s)", e.Tag())
	}
}
