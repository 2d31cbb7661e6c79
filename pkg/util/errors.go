// Package util provides utility functions and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for the provisioning pipeline
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrUnknownModel     = errors.New("no template for device model")
	ErrTemplateSyntax   = errors.New("template syntax error")
	ErrTimeout          = errors.New("device unreachable")
	ErrRefused          = errors.New("connection refused")
	ErrAuth             = errors.New("authentication failed")
	ErrExec             = errors.New("command rejected by device")
	ErrClosed           = errors.New("session closed")
)

// ValidationError represents one or more topology validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddError adds an error message unconditionally
func (v *ValidationBuilder) AddError(message string) *ValidationBuilder {
	v.errors = append(v.errors, message)
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}

// UnknownModelError means no template is registered for a device's model family
type UnknownModelError struct {
	Device string
	Family string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("device '%s': no template registered for model family '%s'", e.Device, e.Family)
}

func (e *UnknownModelError) Unwrap() error {
	return ErrUnknownModel
}

// TemplateSyntaxError reports a malformed template construct or an
// unresolvable substitution with no documented default.
type TemplateSyntaxError struct {
	Template string
	Line     int
	Message  string
}

func (e *TemplateSyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("template '%s' line %d: %s", e.Template, e.Line, e.Message)
	}
	return fmt.Sprintf("template '%s': %s", e.Template, e.Message)
}

func (e *TemplateSyntaxError) Unwrap() error {
	return ErrTemplateSyntax
}

// TimeoutError means the device did not respond within the deadline.
// Remediation is reachability, not credentials.
type TimeoutError struct {
	Target  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: no response within %s", e.Target, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// RefusedError means the transport rejected the connection: the SSH
// service is not listening on the target.
type RefusedError struct {
	Target string
}

func (e *RefusedError) Error() string {
	return fmt.Sprintf("%s: connection refused (is the SSH service enabled?)", e.Target)
}

func (e *RefusedError) Unwrap() error {
	return ErrRefused
}

// AuthError means the device rejected the credentials.
type AuthError struct {
	Target string
	User   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed for user '%s'", e.Target, e.User)
}

func (e *AuthError) Unwrap() error {
	return ErrAuth
}

// ExecError carries the offending command and the raw device output so an
// operator can act without re-running at higher verbosity.
type ExecError struct {
	Device  string
	Command string
	Output  string
	Marker  string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("device '%s' rejected command '%s': %s", e.Device, e.Command, e.Marker)
}

func (e *ExecError) Unwrap() error {
	return ErrExec
}
