package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate     = newValidator()
	idCharsRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("fitrank_id", func(fl validator.FieldLevel) bool {
		return idCharsRegex.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register fitrank_id validation: %s", err))
	}
	return v
}

// describe turns a validator failure into a readable message naming the field.
func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "fitrank_id":
		return fmt.Sprintf("%s may only contain letters, digits, '_' and '-'", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func collect(field string, err error) []string {
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{fmt.Sprintf("%s: %s", field, err)}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := field
		if name == "" {
			name = strings.ToLower(fe.Field())
		}
		msgs = append(msgs, describe(name, fe))
	}
	return msgs
}
