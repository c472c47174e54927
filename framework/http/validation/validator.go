package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ── Types ────────────────────────────────────────────────────────────────────

// Errors holds validation errors — mirrors Laravel's MessageBag.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Error implements error so a bag can travel through error returns.
func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.Bag))
	for _, msgs := range e.Bag {
		parts = append(parts, msgs...)
	}
	return "validation failed: " + strings.Join(parts, " ")
}

// ── Validator ────────────────────────────────────────────────────────────────

// Rules is a map of field → validator tag.
// e.g. Rules{"email": "required,email", "name": "required,min=2,max=100"}
type Rules map[string]string

// Validator validates either a flat map of input values against Rules or a
// struct carrying `validate` tags.
type Validator struct {
	run    func() error
	done   bool
	errors *Errors
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report struct fields by their JSON name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// Make creates a new Validator — mirrors Validator::make($data, $rules).
// Values are trimmed before validation; missing keys validate as "".
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{
		errors: &Errors{},
		run: func() error {
			var all validator.ValidationErrors
			for field, tag := range rules {
				err := validate.Var(strings.TrimSpace(data[field]), tag)
				if err == nil {
					continue
				}
				var verrs validator.ValidationErrors
				if !errors.As(err, &verrs) {
					return fmt.Errorf("validation: rules for %q: %w", field, err)
				}
				for _, fe := range verrs {
					all = append(all, namedError{FieldError: fe, field: field})
				}
			}
			if len(all) == 0 {
				return nil
			}
			return all
		},
	}
}

// Struct creates a Validator for a struct with `validate` tags; errors are
// keyed by the fields' JSON names.
//
//	type CreateUser struct {
//	    Name  string `json:"name"  validate:"required,min=2"`
//	    Email string `json:"email" validate:"required,email"`
//	}
//	v := validation.Struct(&input)
func Struct(s any) *Validator {
	return &Validator{
		errors: &Errors{},
		run:    func() error { return validate.Struct(s) },
	}
}

// Fails runs validation and returns true if any rule fails.
// A malformed rule panics: it is a programming error, not bad input.
func (v *Validator) Fails() bool {
	if !v.done {
		v.done = true
		if err := v.run(); err != nil {
			bag, ok := FromError(err)
			if !ok {
				panic(err)
			}
			v.errors = bag
		}
	}
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.errors }

// Err returns the error bag as an error, or nil when validation passed.
func (v *Validator) Err() error {
	if v.Fails() {
		return v.errors
	}
	return nil
}

// FromError converts validator.ValidationErrors (possibly wrapped) into an
// error bag with Laravel-style messages.
func FromError(err error) (*Errors, bool) {
	var bag *Errors
	if errors.As(err, &bag) {
		return bag, true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	bag = &Errors{}
	for _, fe := range verrs {
		field := fe.Field()
		if nf, ok := fe.(namedError); ok {
			field = nf.field
		}
		bag.add(field, message(field, fe))
	}
	return bag, true
}

// namedError gives a Var validation error the field name it was run for.
type namedError struct {
	validator.FieldError
	field string
}

// ── Messages ─────────────────────────────────────────────────────────────────

func message(field string, fe validator.FieldError) string {
	attr := strings.ReplaceAll(field, "_", " ")
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", attr)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", attr)
	case "url", "http_url":
		return fmt.Sprintf("The %s must be a valid URL.", attr)
	case "min":
		if isNumber(fe.Kind()) {
			return fmt.Sprintf("The %s must be at least %s.", attr, param)
		}
		return fmt.Sprintf("The %s must be at least %s characters.", attr, param)
	case "max":
		if isNumber(fe.Kind()) {
			return fmt.Sprintf("The %s may not be greater than %s.", attr, param)
		}
		return fmt.Sprintf("The %s may not be greater than %s characters.", attr, param)
	case "len":
		return fmt.Sprintf("The %s must be %s characters.", attr, param)
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", attr, param)
	case "gte":
		return fmt.Sprintf("The %s must be greater than or equal to %s.", attr, param)
	case "lt":
		return fmt.Sprintf("The %s must be less than %s.", attr, param)
	case "lte":
		return fmt.Sprintf("The %s must be less than or equal to %s.", attr, param)
	case "numeric", "number":
		return fmt.Sprintf("The %s must be a number.", attr)
	case "boolean":
		return fmt.Sprintf("The %s field must be true or false.", attr)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", attr)
	case "alpha":
		return fmt.Sprintf("The %s may only contain letters.", attr)
	case "alphanum":
		return fmt.Sprintf("The %s may only contain letters and numbers.", attr)
	case "eqfield":
		return fmt.Sprintf("The %s and %s must match.", attr, strings.ToLower(param))
	default:
		return fmt.Sprintf("The %s is invalid.", attr)
	}
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
