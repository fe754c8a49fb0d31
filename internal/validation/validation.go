// Package validation declares the input forms of the site and checks them.
//
// Each form is a struct whose validate tags describe its per-field rules.
// Check evaluates those tags and returns the messages keyed by the field's
// wire name; rules that span fields or need the store live on the form.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"sitehub/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Errors maps a field name to its messages. Errors that span several fields
// are keyed by models.NonFieldKey.
type Errors map[string][]string

// Add appends msg to field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// AddNonField appends a message that belongs to no single field.
func (e Errors) AddNonField(msg string) {
	e.Add(models.NonFieldKey, msg)
}

// Has reports whether field already carries a message.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Err converts e into a validation AppError, or nil when e is empty.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return models.NewFieldValidationError(e)
}

// maxAmount is the exclusive bound of a decimal(16,2) column.
var maxAmount = decimal.New(1, 14)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("decimal2", isDecimal2); err != nil {
		panic(err)
	}
	return v
}

// isDecimal2 accepts a non-negative amount with at most two decimal places
// that fits a decimal(16,2) column. Blank values are left to "required".
func isDecimal2(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.Equal(d.Round(2)) && d.LessThan(maxAmount)
}

type normalizer interface {
	normalize()
}

// Check normalizes form and evaluates its struct tags.
func Check(form any) Errors {
	if n, ok := form.(normalizer); ok {
		n.normalize()
	}
	errs := Errors{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.AddNonField(err.Error())
		return errs
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "oneof":
		return "Select a valid choice."
	case "eqfield":
		return "The two password fields didn't match."
	case "decimal2":
		return "Enter a valid amount with at most 2 decimal places."
	case "numeric":
		return "Enter a whole number."
	default:
		return "Enter a valid value."
	}
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
