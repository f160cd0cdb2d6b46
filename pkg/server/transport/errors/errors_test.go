package errors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harriteja/reqguard/pkg/types"
)

func TestWriteRejection(t *testing.T) {
	w := httptest.NewRecorder()
	WriteRejection(w, types.NewRejection(http.StatusBadRequest, "name is required", "age should be a valid number"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ContentTypeJSON, w.Header().Get(HeaderContentType))
	assert.JSONEq(t, `{"status":400,"message":["name is required","age should be a valid number"]}`, w.Body.String())
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, ErrRequestEntityTooLarge)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"status":413,"message":["Request body is too large"]}`, w.Body.String())
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestInternalServerRejection(t *testing.T) {
	rej := ErrInternalServer.Rejection()

	assert.Equal(t, http.StatusInternalServerError, rej.Status)
	assert.Equal(t, []string{MsgInternal}, rej.Message)
	assert.Equal(t, "internal server error", MsgInternal)
}
