package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"atlas/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields under their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	mustRegister(v, "taskpriority", func(fl validator.FieldLevel) bool {
		return models.TaskPriority(fl.Field().String()).Valid()
	})
	mustRegister(v, "taskstatus", func(fl validator.FieldLevel) bool {
		return models.TaskStatus(fl.Field().String()).Valid()
	})
	mustRegister(v, "flexdate", func(fl validator.FieldLevel) bool {
		_, ok := parseDateFlexible(fl.Field().String())
		return ok
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// validateStruct runs the struct tags on s and converts failures into a
// ValidationError. A nil return means s is valid.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		if out.Has(fe.Field()) {
			continue
		}
		out.Add(fe.Field(), messageFor(fe))
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "taskpriority", "taskstatus", "oneof":
		return "Select a valid choice."
	case "flexdate":
		return "Enter a valid date."
	case "hexcolor":
		return "Enter a valid hex color."
	case "eqfield":
		return "The two password fields didn’t match."
	default:
		return "Enter a valid value."
	}
}

func parseDateFlexible(dateStr string) (time.Time, bool) {
	if dateStr == "" {
		return time.Time{}, false
	}
	layouts := []string{
		models.DateLayout, // ISO date
		"2 Jan 2006",      // e.g., 30 Oct 2025
		time.RFC3339,      // full RFC3339
		"02 Jan 2006",     // zero-padded day
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeDate rewrites a parseable date into the storage layout.
func normalizeDate(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	if t, ok := parseDateFlexible(trimmed); ok {
		out := t.Format(models.DateLayout)
		return &out
	}
	return &trimmed
}

// trimOptional trims s and maps blank to nil.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func clampPercent(v *int) *int {
	if v == nil {
		return nil
	}
	out := min(max(*v, 0), 100)
	return &out
}

func valueOr(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
