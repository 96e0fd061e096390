package grammar

import "fmt"

// ConfigurationError reports a malformed matcher or graph at construction
// time. It is always raised before any generation begins.
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string {
	return "grammar: " + e.msg
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}
