// Package forms validates submitted form structs and reports errors keyed
// by the HTML field names used in templates.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-backoffice/internal/signature"
)

// ErrInvalid is matched by every ValidationError.
var ErrInvalid = errors.New("forms: invalid submission")

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Has reports whether field has an error.
func (f FieldErrors) Has(field string) bool {
	_, ok := f[field]
	return ok
}

// Result is the outcome of validating one form.
type Result struct {
	Errors FieldErrors
}

// OK reports whether the form passed validation.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Err returns a *ValidationError, or nil when the form is valid.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Fields: r.Errors}
}

// Merge folds other errors into the result.
func (r Result) Merge(fields map[string]string) Result {
	if len(fields) == 0 {
		return r
	}
	if r.Errors == nil {
		r.Errors = FieldErrors{}
	}
	for k, v := range fields {
		r.Errors.Add(k, v)
	}
	return r
}

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("forms: invalid fields: %s", strings.Join(keys, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Validator wraps validator.Validate with the back-office rules.
type Validator struct {
	validate *validator.Validate
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns the shared Validator.
func Default() *Validator {
	defaultOnce.Do(func() { defaultValidator = New() })
	return defaultValidator
}

// New builds a Validator keyed by `form` struct tags.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("decimal", validDecimal)
	_ = v.RegisterValidation("count", validCount)
	_ = v.RegisterValidation("date", validDate)
	_ = v.RegisterValidation("datelist", validDateList)
	_ = v.RegisterValidation("signature", validSignature)
	return &Validator{validate: v}
}

// Check validates a struct and converts failures into a Result.
func (v *Validator) Check(form any) Result {
	err := v.validate.Struct(form)
	if err == nil {
		return Result{}
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Result{Errors: FieldErrors{"_form": err.Error()}}
	}
	fields := FieldErrors{}
	for _, fe := range verrs {
		fields.Add(fieldKey(fe.Namespace()), message(fe))
	}
	return Result{Errors: fields}
}

// fieldKey drops the struct name from a namespace such as
// "shopInfoForm.printers[0].model".
func fieldKey(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_with":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "oneof":
		return "Choose one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "decimal":
		return "Enter a number that is zero or more."
	case "count":
		return "Enter a whole number from 0 to " + strconv.Itoa(MaxCount) + "."
	case "date":
		return "Enter a date as YYYY-MM-DD."
	case "datelist":
		return "Enter dates as YYYY-MM-DD separated by commas."
	case "signature":
		return "The signature image could not be read."
	case "max":
		return "Use at most " + fe.Param() + " characters."
	case "min":
		return "Use at least " + fe.Param() + " characters."
	case "gte":
		return "Enter " + fe.Param() + " or more."
	case "numeric", "number":
		return "Enter a number."
	default:
		return "This value is not valid."
	}
}

func validDecimal(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	d, err := decimal.NewFromString(s)
	return err == nil && !d.IsNegative()
}

// MaxCount is the largest quantity a form accepts.
const MaxCount = 1_000_000

// ParseCount parses a whole number between 0 and MaxCount. An empty
// string is zero.
func ParseCount(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > MaxCount {
		return 0, fmt.Errorf("forms: invalid count %q", raw)
	}
	return n, nil
}

func validCount(fl validator.FieldLevel) bool {
	_, err := ParseCount(fl.Field().String())
	return err == nil
}

func validDate(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

func validDateList(fl validator.FieldLevel) bool {
	_, err := ParseDateList(fl.Field().String())
	return err == nil
}

func validSignature(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	_, err := signature.Parse(s)
	return err == nil
}
