// Package errors writes the JSON payloads produced by the request guard
package errors

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/harriteja/reqguard/pkg/logger"
	"github.com/harriteja/reqguard/pkg/types"
)

// Common headers
const (
	HeaderContentType              = "Content-Type"
	HeaderRequestID                = "X-Request-ID"
	HeaderAccessControlAllowOrigin = "Access-Control-Allow-Origin"
)

// Common content types
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Messages for failures that happen before rules are evaluated
const (
	MsgBodyUnparseable = "Request body could not be parsed"
	MsgBodyTooLarge    = "Request body is too large"
	MsgInternal        = "internal server error"
	MsgTooManyRequests = "Too many requests"
)

// Common errors
var (
	ErrBodyUnparseable       = types.NewError(http.StatusBadRequest, MsgBodyUnparseable)
	ErrRequestEntityTooLarge = types.NewError(http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
	ErrTooManyRequests       = types.NewError(http.StatusTooManyRequests, MsgTooManyRequests)
	ErrInternalServer        = types.NewError(http.StatusInternalServerError, MsgInternal)
)

// WriteRejection writes rej with its own status code
func WriteRejection(w http.ResponseWriter, rej *types.Rejection) {
	WriteJSON(w, rej.Status, rej)
}

// WriteError writes err as a single-message rejection
func WriteError(w http.ResponseWriter, err *types.Error) {
	WriteRejection(w, err.Rejection())
}

// WriteJSON writes data as JSON with proper headers
func WriteJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Default().Error("Failed to encode JSON response",
			types.LogField{Key: "error", Value: err.Error()})
	}
}
