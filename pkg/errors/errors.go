// Package errors provides structured error types used across the service.
// Callers check kinds with Is (or errors.As) instead of matching strings; each
// type carries the operation that failed and a message safe to show a client.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError indicates invalid input supplied by a caller.
// Fields maps a request field name to a human readable message.
type ValidationError struct {
	Op     string
	Msg    string
	Fields map[string]string
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Msg
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s (%s)", msg, joinFields(e.Fields))
	}
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("validation: %s: %s", e.Op, msg)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func NewValidation(op, msg string, err error) error {
	return &ValidationError{Op: op, Msg: msg, Err: err}
}

// NewFieldValidation builds a ValidationError from per-field messages.
func NewFieldValidation(op string, fields map[string]string) error {
	return &ValidationError{Op: op, Msg: "invalid submission", Fields: fields}
}

// DBError represents database access failures.
type DBError struct {
	Op  string
	Msg string
	Err error
}

func (e *DBError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("db: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("db: %s: %s", e.Op, e.Msg)
}

func (e *DBError) Unwrap() error { return e.Err }

func NewDB(op, msg string, err error) error { return &DBError{Op: op, Msg: msg, Err: err} }

// ExternalAPIError represents failures in external services (Google Maps, OpenAI).
type ExternalAPIError struct {
	Op     string
	Msg    string
	Err    error
	System string
}

func (e *ExternalAPIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	sys := e.System
	if sys == "" {
		sys = "external"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", sys, e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", sys, e.Op, e.Msg)
}

func (e *ExternalAPIError) Unwrap() error { return e.Err }

func NewExternal(op, system, msg string, err error) error {
	return &ExternalAPIError{Op: op, System: system, Msg: msg, Err: err}
}

// BizError is a domain rule rejection, e.g. a nomination blocked as a duplicate.
type BizError struct {
	Op  string
	Msg string
	Err error
}

func (e *BizError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("biz: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("biz: %s: %s", e.Op, e.Msg)
}

func (e *BizError) Unwrap() error { return e.Err }

func NewBiz(op, msg string, err error) error { return &BizError{Op: op, Msg: msg, Err: err} }

// NotFoundError reports a missing record.
type NotFoundError struct {
	Op       string
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("not found: %s: %s %s", e.Op, e.Resource, e.ID)
}

func NewNotFound(op, resource, id string) error {
	return &NotFoundError{Op: op, Resource: resource, ID: id}
}

// Kind sentinels for Is.
// Example: if errors.Is(err, errors.ErrValidation) { ... }
var (
	ErrValidation = &ValidationError{}
	ErrDB         = &DBError{}
	ErrExternal   = &ExternalAPIError{}
	ErrBiz        = &BizError{}
	ErrNotFound   = &NotFoundError{}
)

// Is reports whether err has the same kind as target. For targets that are not
// one of the kind sentinels it falls back to errors.Is.
func Is(err, target error) bool {
	if err == nil || target == nil {
		return errors.Is(err, target)
	}
	switch target.(type) {
	case *ValidationError:
		var v *ValidationError
		return errors.As(err, &v)
	case *DBError:
		var d *DBError
		return errors.As(err, &d)
	case *ExternalAPIError:
		var ex *ExternalAPIError
		return errors.As(err, &ex)
	case *BizError:
		var b *BizError
		return errors.As(err, &b)
	case *NotFoundError:
		var n *NotFoundError
		return errors.As(err, &n)
	default:
		return errors.Is(err, target)
	}
}

// FieldsOf returns the per-field messages of a ValidationError in err's chain.
func FieldsOf(err error) map[string]string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Fields
	}
	return nil
}

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}
