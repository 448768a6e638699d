package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateSettings checks the settings document against its struct tags.
func ValidateSettings(s Settings) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}
	return nil
}

// ValidateScheduler rejects documents that cannot be saved as-is.
func ValidateScheduler(cfg SchedulerConfig) error {
	if !cfg.Interval.Valid() {
		return fmt.Errorf("CFG_SCHEDULER_INTERVAL: unsupported interval %q", cfg.Interval)
	}
	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, formatFieldError(e))
	}
	return fmt.Errorf("CFG_SETTINGS_INVALID: %s", strings.Join(messages, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, e.Param())
	case "startswith":
		return fmt.Sprintf("%s must be an absolute path", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
