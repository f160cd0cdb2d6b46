package http

import (
	"net/http"
)

// ResponseWriter wraps http.ResponseWriter to capture status code and bytes written
type ResponseWriter struct {
	http.ResponseWriter
	status       int
	wroteHeader  bool
	bytesWritten int64
}

// NewResponseWriter creates a new ResponseWriter
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

// WriteHeader records the first status code written
func (w *ResponseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

// Status returns the HTTP status code of the response
func (w *ResponseWriter) Status() int {
	return w.status
}

// Written reports whether the header has been sent
func (w *ResponseWriter) Written() bool {
	return w.wroteHeader
}

// BytesWritten returns the number of bytes written in the response
func (w *ResponseWriter) BytesWritten() int64 {
	return w.bytesWritten
}

// Unwrap returns the original http.ResponseWriter
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
