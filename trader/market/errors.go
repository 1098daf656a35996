package market

import "fmt"

//
// ConfigError represents a construction-time misconfiguration (a non-positive period, a negative
// duration, and so on). Components that return one are unusable and must not be retried with the
// same settings.
//
type ConfigError struct {
	Field  string
	Reason string
}

func NewConfigError(field string, reason string, args ...interface{}) *ConfigError {
	return &ConfigError{
		Field:  field,
		Reason: fmt.Sprintf(reason, args...),
	}
}

func (o *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", o.Field, o.Reason)
}
