package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	errors "github.com/frahmantamala/expense-tracker/internal"
)

// ValidatorFunc returns a non-empty message when value breaks the rule.
type ValidatorFunc func(value interface{}) string

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

// ValidationBuilder checks fields in the order they were declared. Within a
// field only the first failing rule is reported; every field is checked.
type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]*FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

// Present fails only when the value is absent (JSON null or missing).
func (fv *FieldValidator) Present() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		if value == nil {
			return fmt.Sprintf("%s is required", fv.FieldName)
		}
		return ""
	})
	return fv
}

// Required is Present that also treats the empty string as absent.
func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		if value == nil {
			return fmt.Sprintf("%s is required", fv.FieldName)
		}
		if s, ok := value.(string); ok && s == "" {
			return fmt.Sprintf("%s is required", fv.FieldName)
		}
		return ""
	})
	return fv
}

func (fv *FieldValidator) Number() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		if _, ok := AsNumber(value); !ok {
			return fmt.Sprintf("%s must be a number", fv.FieldName)
		}
		return ""
	})
	return fv
}

func (fv *FieldValidator) Positive() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		if n, ok := AsNumber(value); ok && n <= 0 {
			return fmt.Sprintf("%s must be greater than zero", fv.FieldName)
		}
		return ""
	})
	return fv
}

func (fv *FieldValidator) MaxNumber(max float64) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		if n, ok := AsNumber(value); ok && n > max {
			return fmt.Sprintf("%s is too large", fv.FieldName)
		}
		return ""
	})
	return fv
}

// NonBlankString requires a string with at least one non-whitespace rune.
func (fv *FieldValidator) NonBlankString() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return fmt.Sprintf("%s is required and must be a non-empty string", fv.FieldName)
		}
		return ""
	})
	return fv
}

func (fv *FieldValidator) Date() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) string {
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("%s must be a valid date string (e.g. 2025-01-15)", fv.FieldName)
		}
		if _, ok := ParseDate(s); !ok {
			return fmt.Sprintf("%s must be a valid date string (e.g. 2025-01-15)", fv.FieldName)
		}
		return ""
	})
	return fv
}

func (fv *FieldValidator) Custom(validator ValidatorFunc) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

// Messages returns every violated rule, in field order.
func (v *ValidationBuilder) Messages() []string {
	messages := make([]string, 0)

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			if msg := validator(field.Value); msg != "" {
				messages = append(messages, msg)
				break
			}
		}
	}

	return messages
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	if messages := v.Messages(); len(messages) > 0 {
		return errors.NewValidationFailed(messages)
	}
	return nil
}

// AsNumber accepts the numeric types encoding/json and Go callers produce.
func AsNumber(value interface{}) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case int32:
		n = float64(v)
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate accepts a calendar date or an ISO 8601 timestamp.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate reduces any accepted date form to YYYY-MM-DD as written by
// the client, so stored dates sort lexicographically.
func NormalizeDate(s string) (string, bool) {
	t, ok := ParseDate(s)
	if !ok {
		return "", false
	}
	return t.Format(time.DateOnly), true
}
