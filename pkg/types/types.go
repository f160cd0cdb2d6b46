// Package types holds the shared vocabulary of the request guard: the request
// fields a RuleSet can target, the rejection payload written to clients and the
// logging/metrics contracts adapters depend on.
package types

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Field names the part of an HTTP request a RuleSet is applied to
type Field string

const (
	// FieldBody is the decoded JSON request body
	FieldBody Field = "body"
	// FieldQuery is the parsed query string
	FieldQuery Field = "query"
	// FieldParams holds the route path parameters
	FieldParams Field = "params"
	// FieldHeaders holds the request headers with lower-cased names
	FieldHeaders Field = "headers"
	// FieldCookies holds the request cookies
	FieldCookies Field = "cookies"
)

// Fields lists every supported request field
var Fields = []Field{FieldBody, FieldQuery, FieldParams, FieldHeaders, FieldCookies}

// ParseField converts a field name into a Field
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Fields {
		if f == known {
			return f, nil
		}
	}
	return "", errors.Errorf("unknown request field: %s", s)
}

func (f Field) String() string {
	return string(f)
}

// Rejection is the payload written when a request fails validation
type Rejection struct {
	Status  int      `json:"status"`
	Message []string `json:"message"`
}

// NewRejection creates a Rejection
func NewRejection(status int, messages ...string) *Rejection {
	if messages == nil {
		messages = []string{}
	}
	return &Rejection{
		Status:  status,
		Message: messages,
	}
}

// Error represents a failure raised while guarding a request
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// NewError creates a new Error instance
func NewError(status int, message string) *Error {
	return &Error{
		Status:  status,
		Message: message,
	}
}

// WrapError creates an Error carrying cause
func WrapError(status int, message string, cause error) *Error {
	return &Error{
		Status:  status,
		Message: message,
		Cause:   cause,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Rejection converts e into the client payload
func (e *Error) Rejection() *Rejection {
	return NewRejection(e.Status, e.Message)
}
