package script

import (
	"time"
)

// ErrorType categorizes filter script failures.
type ErrorType string

const (
	ErrorTypeCompilation ErrorType = "compilation"
	ErrorTypeExecution   ErrorType = "execution"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeInvalidKeep ErrorType = "invalid_keep"
)

// SecurityLimits defines resource constraints for script execution
type SecurityLimits struct {
	// MaxExecutionTime bounds a single run of the script for one event.
	MaxExecutionTime time.Duration
	// AllowedPackages lists the tengo stdlib modules a script may import.
	AllowedPackages []string
}

// DefaultSecurityLimits provides safe default constraints for script execution
var DefaultSecurityLimits = SecurityLimits{
	MaxExecutionTime: 100 * time.Millisecond,
	AllowedPackages: []string{
		"fmt",
		"strings",
		"math",
		"text",
		"times",
	},
}

// ScriptError represents script-related errors with context
type ScriptError struct {
	Type      ErrorType
	Script    string
	Message   string
	Cause     error
	Timestamp time.Time
}

func (e *ScriptError) Error() string {
	msg := e.Script + ": " + e.Message
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ScriptError) Unwrap() error {
	return e.Cause
}

// NewScriptError creates a new ScriptError with the given parameters
func NewScriptError(errorType ErrorType, script, message string, cause error) *ScriptError {
	return &ScriptError{
		Type:      errorType,
		Script:    script,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}
