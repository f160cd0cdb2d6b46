package transport

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	reqerrors "github.com/harriteja/reqguard/pkg/server/transport/errors"
	"github.com/harriteja/reqguard/pkg/types"
)

// ValuesMap converts query or form values. A key with one value maps to that
// string; a repeated key maps to a sequence of strings.
func ValuesMap(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
		case 1:
			out[k] = vs[0]
		default:
			seq := make([]any, len(vs))
			for i, v := range vs {
				seq[i] = v
			}
			out[k] = seq
		}
	}
	return out
}

// HeaderMap converts headers to lower-cased names. Repeated headers are joined
// with ", ".
func HeaderMap(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for k, vs := range h {
		if len(vs) == 0 {
			continue
		}
		out[strings.ToLower(k)] = strings.Join(vs, ", ")
	}
	return out
}

// RequestHeaders is HeaderMap plus the host header, which net/http keeps
// outside r.Header
func RequestHeaders(r *http.Request) map[string]any {
	out := HeaderMap(r.Header)
	if _, ok := out["host"]; !ok && r.Host != "" {
		out["host"] = r.Host
	}
	return out
}

// CookieMap converts cookies by name. The first cookie with a name wins.
func CookieMap(cookies []*http.Cookie) map[string]any {
	out := make(map[string]any, len(cookies))
	for _, c := range cookies {
		if _, exists := out[c.Name]; exists {
			continue
		}
		out[c.Name] = c.Value
	}
	return out
}

// StringMap converts a string map such as route parameters
func StringMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DecodeBody reads and decodes the request body. JSON is the default;
// form-urlencoded bodies are decoded like query strings. An empty body decodes
// to an empty mapping. The raw bytes are put back on r.Body.
func DecodeBody(r *http.Request, maxBytes int64) (any, *types.Error) {
	if r.Body == nil || r.Body == http.NoBody {
		return map[string]any{}, nil
	}

	var body io.Reader = r.Body
	if maxBytes > 0 {
		body = io.LimitReader(r.Body, maxBytes+1)
	}
	raw, err := io.ReadAll(body)
	_ = r.Body.Close()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, reqerrors.ErrRequestEntityTooLarge
		}
		return nil, types.WrapError(http.StatusBadRequest, reqerrors.MsgBodyUnparseable,
			errors.Wrap(err, "failed to read request body"))
	}
	if maxBytes > 0 && int64(len(raw)) > maxBytes {
		return nil, reqerrors.ErrRequestEntityTooLarge
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	return DecodeBytes(r.Header.Get(reqerrors.HeaderContentType), raw)
}

// DecodeBytes decodes raw according to contentType
func DecodeBytes(contentType string, raw []byte) (any, *types.Error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == reqerrors.ContentTypeForm {
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, types.WrapError(http.StatusBadRequest, reqerrors.MsgBodyUnparseable,
				errors.Wrap(err, "failed to parse form body"))
		}
		return ValuesMap(values), nil
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, types.WrapError(http.StatusBadRequest, reqerrors.MsgBodyUnparseable,
			errors.Wrap(err, "failed to decode JSON body"))
	}
	return data, nil
}

// ReplaceBody swaps r.Body for the JSON encoding of data
func ReplaceBody(r *http.Request, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "failed to encode sanitized body")
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	r.ContentLength = int64(len(raw))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(raw)), nil
	}
	r.Header.Set(reqerrors.HeaderContentType, reqerrors.ContentTypeJSON)
	return nil
}
