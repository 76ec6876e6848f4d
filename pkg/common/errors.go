package common

import "fmt"

// ParseError reports a source line that could not be turned into an
// instruction. It is fatal to the whole translation.
type ParseError struct {
	File       string // Source file identifier
	FileLine   int    // 1-based line within the file
	LineNumber int    // Global instruction counter at the point of failure
	Text       string // The offending line, comments stripped
	Reason     string
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s: `%s`", e.FileLine, e.Reason, e.Text)
	}
	return fmt.Sprintf("%s.vm, line %d: %s: `%s`", e.File, e.FileLine, e.Reason, e.Text)
}

// ConfigurationError reports a problem with the translation inputs or
// options, detected before any instruction is translated.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// NewConfigurationError formats a ConfigurationError.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
