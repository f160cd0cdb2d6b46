package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harriteja/reqguard/pkg/server/transport"
	"github.com/harriteja/reqguard/pkg/types"
	"github.com/harriteja/reqguard/pkg/validation/core"
)

type captured struct {
	calls int
	data  map[string]any
	body  string
}

func capture(field types.Field) (*captured, http.Handler) {
	c := &captured{}
	return c, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.calls++
		c.data, _ = Validated(r.Context(), field)
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			c.body = string(raw)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func decodeRejection(t *testing.T, w *httptest.ResponseRecorder) types.Rejection {
	t.Helper()
	var rej types.Rejection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rej))
	return rej
}

var userRules = core.RuleSet{
	{Key: "name", Type: core.Types(core.TypeString), Required: true, Min: core.Fixed(3)},
	{Key: "age", Type: core.Types(core.TypeNumber), Required: true, Min: core.Fixed(18)},
}

func TestBody(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		c, next := capture(types.FieldBody)
		h := Body(userRules)(next)

		r := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"John","age":30,"admin":true}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, 1, c.calls)
		assert.Equal(t, map[string]any{"name": "John", "age": 30.0}, c.data)
		assert.JSONEq(t, `{"name":"John","age":30}`, c.body)
	})

	t.Run("rejected", func(t *testing.T) {
		c, next := capture(types.FieldBody)
		h := Body(userRules)(next)

		r := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"Jo"}`))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, 0, c.calls)
		assert.Equal(t, types.Rejection{
			Status: 400,
			Message: []string{
				"name type is string, it should be at least 3 characters",
				"age is required",
			},
		}, decodeRejection(t, w))
	})

	t.Run("unparseable", func(t *testing.T) {
		c, next := capture(types.FieldBody)
		w := httptest.NewRecorder()
		Body(userRules)(next).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name"`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"Request body could not be parsed"}, decodeRejection(t, w).Message)
		assert.Equal(t, 0, c.calls)
	})

	t.Run("too large", func(t *testing.T) {
		_, next := capture(types.FieldBody)
		w := httptest.NewRecorder()
		h := Body(userRules, transport.WithMaxBodyBytes(8))(next)
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"John","age":30}`)))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, []string{"Request body is too large"}, decodeRejection(t, w).Message)
	})

	t.Run("nil rules", func(t *testing.T) {
		_, next := capture(types.FieldBody)
		w := httptest.NewRecorder()
		Body(nil)(next).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"Validation rules are not properly defined."}, decodeRejection(t, w).Message)
	})
}

func TestQuery(t *testing.T) {
	rules := core.RuleSet{
		{Key: "page", Type: core.Types(core.TypeNumber), Required: true, Min: core.Fixed(1)},
		{Key: "tag", Type: core.Types(core.TypeArray)},
	}

	c, next := capture(types.FieldQuery)
	h := Query(rules)(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?page=2&tag=go&q=ignored", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, map[string]any{"page": 2.0, "tag": []any{"go"}}, c.data)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?page=2&tag=go&tag=rust", nil))
	assert.Equal(t, []any{"go", "rust"}, c.data["tag"])

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?page=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"page should be a valid number"}, decodeRejection(t, w).Message)
	assert.Equal(t, 2, c.calls)
}

func TestParams(t *testing.T) {
	rules := core.RuleSet{
		{Key: "id", Type: core.Types(core.TypeNumber), Required: true},
		{Key: "ids", Type: core.Types(core.TypeArray), Max: core.Fixed(3)},
	}

	t.Run("chi", func(t *testing.T) {
		c, next := capture(types.FieldParams)
		router := chi.NewRouter()
		router.With(Params(rules)).Method(http.MethodGet, "/users/{id}/batch/{ids}", next)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/42/batch/1,2", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, map[string]any{"id": 42.0, "ids": []any{"1", "2"}}, c.data)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/42/batch/1,2,3,4", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"ids type is array, it should be at most 3 items"}, decodeRejection(t, w).Message)
	})

	t.Run("custom extractor", func(t *testing.T) {
		c, next := capture(types.FieldParams)
		extract := func(r *http.Request) map[string]string {
			return map[string]string{"id": r.PathValue("id")}
		}
		mux := http.NewServeMux()
		mux.Handle("GET /items/{id}", Params(rules, transport.WithParamsExtractor(extract))(next))

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/7", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, map[string]any{"id": 7.0}, c.data)
	})
}

func TestHeaders(t *testing.T) {
	rules := core.RuleSet{
		{Key: "x-api-key", Type: core.Types(core.TypeString), Required: true, Min: core.Fixed(8)},
	}
	c, next := capture(types.FieldHeaders)
	h := Headers(rules)(next)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-API-Key", "secret-key-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, map[string]any{"x-api-key": "secret-key-123"}, c.data)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"x-api-key is required"}, decodeRejection(t, w).Message)
}

func TestCookies(t *testing.T) {
	rules := core.RuleSet{
		{Key: "session", Type: core.Types(core.TypeString), Required: true},
	}
	c, next := capture(types.FieldCookies)
	h := Cookies(rules)(next)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "session", Value: "abc"})
	r.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, map[string]any{"session": "abc"}, c.data)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChainedFields(t *testing.T) {
	var body, query map[string]any
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = Validated(r.Context(), types.FieldBody)
		query, _ = Validated(r.Context(), types.FieldQuery)
	})

	h := For(types.FieldQuery, core.RuleSet{{Key: "dry", Type: core.Types(core.TypeString)}})(
		For(types.FieldBody, userRules)(final),
	)

	r := httptest.NewRequest(http.MethodPost, "/?dry=1", strings.NewReader(`{"name":"John","age":20}`))
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, map[string]any{"dry": "1"}, query)
	assert.Equal(t, map[string]any{"name": "John", "age": 20.0}, body)
}

func TestValidatedMissing(t *testing.T) {
	_, ok := Validated(httptest.NewRequest(http.MethodGet, "/", nil).Context(), types.FieldBody)
	assert.False(t, ok)
}
