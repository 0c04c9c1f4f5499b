package models

import "fmt"

// ConfigurationError rejects invalid settings before any analysis runs.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("CONFIGURATION_ERROR: %s: %s", e.Field, e.Reason)
}
