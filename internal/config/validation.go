// Package config provides configuration management for the Diamond Edge pipeline.
package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("calibmethod", validateCalibMethod)
	_ = v.RegisterValidation("dateformat", validateDateFormat)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCalibMethod validates the calibration method field
func validateCalibMethod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "isotonic", "sigmoid":
		return true
	default:
		return false
	}
}

// validateDateFormat validates YYYY-MM-DD date strings
func validateDateFormat(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	startDate, err := time.Parse("2006-01-02", cfg.Training.StartDate)
	if err != nil {
		return fmt.Errorf("invalid training start_date format: %w", err)
	}

	endDate, err := time.Parse("2006-01-02", cfg.Training.EndDate)
	if err != nil {
		return fmt.Errorf("invalid training end_date format: %w", err)
	}

	if !startDate.Before(endDate) {
		return fmt.Errorf("training start_date must be before end_date")
	}

	if cfg.Betting.RiskLowMax >= cfg.Betting.RiskMediumMax {
		return fmt.Errorf("betting risk_low_max must be below risk_medium_max")
	}

	if cfg.Betting.Bankroll < cfg.Betting.RiskLowMax {
		return fmt.Errorf("bankroll is below the low-risk tier boundary; stakes could never be tiered")
	}

	if cfg.IsProduction() {
		if isTestCredential(cfg.OddsAPI.APIKey) {
			return fmt.Errorf("production environment should not use a test Odds API key")
		}
		if isTestCredential(cfg.Weather.APIKey) {
			return fmt.Errorf("production environment should not use a test weather API key")
		}
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "calibmethod":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: isotonic, sigmoid\n", field)
		case "dateformat":
			errMsg += fmt.Sprintf("- Field '%s' must be a YYYY-MM-DD date, got '%v'\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}
