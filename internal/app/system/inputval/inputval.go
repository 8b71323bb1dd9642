// Package inputval provides form input validation built on
// go-playground/validator.
//
// Define an input struct with validate tags, populate it from form values,
// and call Validate to get user-friendly error messages.
//
// Example:
//
//	type SaveFAQInput struct {
//	    Question string `validate:"required,max=500" label:"Question"`
//	    Category string `validate:"required" label:"Category"`
//	}
//
//	input := SaveFAQInput{
//	    Question: r.FormValue("question"),
//	    Category: r.FormValue("category"),
//	}
//
//	if res := inputval.Validate(input); res.HasErrors() {
//	    // res.First() gives the first error message for display
//	    renderWithError(w, r, res.First())
//	    return
//	}
package inputval

import (
	"net/mail"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result holds validation results with user-friendly messages.
type Result struct {
	Errors []FieldError
}

// FieldError represents a validation error for a single field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or empty string if no errors.
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// All returns all error messages joined with "; ".
func (r *Result) All() string {
	if len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// customValidator is a singleton validator with custom rules registered.
var (
	customValidator *validator.Validate
	validatorOnce   sync.Once
)

// getValidator returns the singleton validator with custom rules.
func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		customValidator = validator.New()

		// httpurl: string must be a valid http/https URL
		_ = customValidator.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsValidHTTPURL(fl.Field().String())
		})

		// objectid: string must be a valid MongoDB ObjectID hex
		_ = customValidator.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return IsValidObjectID(fl.Field().String())
		})
	})
	return customValidator
}

// Validate validates a struct and returns a Result with user-friendly errors.
// The struct should have `validate` tags for rules and optional `label` tags
// for user-friendly field names.
//
// Commonly used rules:
//   - required: field must not be empty
//   - email: field must be a valid email address
//   - oneof=a b c: field must be one of the specified values
//   - min=N / max=N: string length or numeric value bounds
//   - gte=N / lte=N: numeric bounds
//
// Custom rules registered by this package:
//   - httpurl: field must be a valid http:// or https:// URL
//   - objectid: field must be a valid MongoDB ObjectID hex string
func Validate(s any) *Result {
	result := &Result{}

	v := getValidator()
	err := v.Struct(s)
	if err == nil {
		return result
	}

	labels := getFieldLabels(s)

	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range errs {
			label := labels[e.Field()]
			if label == "" {
				label = e.Field()
			}

			msg := formatMessage(label, e.Tag(), e.Param())
			result.Errors = append(result.Errors, FieldError{
				Field:   e.Field(),
				Label:   label,
				Message: msg,
			})
		}
	}

	return result
}

// getFieldLabels extracts the "label" tag from struct fields, keyed by
// struct field name.
func getFieldLabels(s any) map[string]string {
	labels := make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if label := field.Tag.Get("label"); label != "" {
			labels[field.Name] = label
		}
	}

	return labels
}

// formatMessage creates a user-facing French message for a validation rule.
func formatMessage(label, rule, param string) string {
	switch rule {
	case "required":
		return "Le champ « " + label + " » est obligatoire."
	case "email":
		return "Une adresse e-mail valide est requise."
	case "oneof":
		return "Le champ « " + label + " » doit être parmi : " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		return "Le champ « " + label + " » doit contenir au moins " + param + " caractères."
	case "max":
		return "Le champ « " + label + " » doit contenir au plus " + param + " caractères."
	case "gte":
		return "Le champ « " + label + " » doit être au moins " + param + "."
	case "lte":
		return "Le champ « " + label + " » doit être au plus " + param + "."
	case "httpurl":
		return "Le champ « " + label + " » doit être une URL commençant par http:// ou https://."
	case "objectid":
		return "Le champ « " + label + " » n'est pas un identifiant valide."
	default:
		return "Le champ « " + label + " » est invalide."
	}
}

// IsValidEmail checks if the given string has a valid email format.
//
// This function uses Go's net/mail.ParseAddress for RFC 5322 compliant validation.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}

	// ParseAddress accepts "Name <email>" format, so verify the address
	// matches what we passed in (just the email part).
	return addr.Address == email
}

// IsValidHTTPURL checks if the given string is a valid http:// or https:// URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// IsValidObjectID checks if the given string is a valid MongoDB ObjectID hex.
func IsValidObjectID(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// Lines splits a textarea value into trimmed, non-empty lines. Used for
// list fields (FAQ steps, keywords, teacher courses) that are edited as
// one item per line.
func Lines(s string) []string {
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// JoinLines is the inverse of Lines, for pre-filling textarea fields.
func JoinLines(items []string) string {
	return strings.Join(items, "\n")
}

// Int parses a form value as an int, returning 0 for blank or malformed
// input. Numeric form fields default rather than error; validation of
// ranges happens on the parsed struct.
func Int(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// Float parses a form value as a float64, returning 0 for blank or
// malformed input. Accepts a comma decimal separator.
func Float(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
