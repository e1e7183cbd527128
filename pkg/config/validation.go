package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks the configuration for errors.
//
// Validation includes:
//   - Struct tag validation (required fields, value ranges, enums)
//   - Cross-field rules the tags cannot express
//
// Returns a descriptive error listing all validation failures.
func Validate(cfg *Config) error {
	v := getValidator()

	if err := v.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationError(validationErrors)
		}
		return err
	}

	return validateCustomRules(cfg)
}

// validateCustomRules applies validation rules that cannot be expressed
// with struct tags.
func validateCustomRules(cfg *Config) error {
	if !cfg.Adapters.Unix.Enabled {
		return fmt.Errorf("at least one adapter must be enabled")
	}

	if cfg.Sink.Type == "file" {
		path, _ := cfg.Sink.File["path"].(string)
		if path == "" {
			return fmt.Errorf("sink.file.path is required when sink type is file")
		}
	}

	if cfg.Journal.Type == "badger" {
		dbPath, _ := cfg.Journal.Badger["db_path"].(string)
		if dbPath == "" {
			return fmt.Errorf("journal.badger.db_path is required when journal type is badger")
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		return fmt.Errorf("metrics.port is required when metrics are enabled")
	}

	return nil
}

// formatValidationError converts validator errors into readable messages.
func formatValidationError(errs validator.ValidationErrors) error {
	var messages []string

	for _, err := range errs {
		field := strings.ToLower(err.Namespace())
		// Strip the leading "config." for readability.
		field = strings.TrimPrefix(field, "config.")

		switch err.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", field, err.Param()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", field, err.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", field, err.Param()))
		case "gt":
			messages = append(messages, fmt.Sprintf("%s must be greater than %s", field, err.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, err.Tag()))
		}
	}

	return fmt.Errorf("%s", strings.Join(messages, "; "))
}
