// Package http provides net/http middleware that validates one request field
// each and exposes the sanitized values through the request context.
//
//	r := chi.NewRouter()
//	r.With(
//	    http.Params(paramRules),
//	    http.Body(createUserRules),
//	).Post("/users/{id}", handler)
package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harriteja/reqguard/pkg/server/transport"
	reqerrors "github.com/harriteja/reqguard/pkg/server/transport/errors"
	"github.com/harriteja/reqguard/pkg/types"
	"github.com/harriteja/reqguard/pkg/validation/core"
)

type contextKey struct {
	field types.Field
}

// Validated returns the sanitized values stored for field
func Validated(ctx context.Context, field types.Field) (map[string]any, bool) {
	data, ok := ctx.Value(contextKey{field}).(map[string]any)
	return data, ok
}

// WithValidated stores data for field on ctx
func WithValidated(ctx context.Context, field types.Field, data map[string]any) context.Context {
	return context.WithValue(ctx, contextKey{field}, data)
}

// ChiParams reads route parameters from the chi routing context
func ChiParams(r *http.Request) map[string]string {
	out := make(map[string]string)
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return out
	}
	for i, key := range rctx.URLParams.Keys {
		if key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		out[key] = rctx.URLParams.Values[i]
	}
	return out
}

// Body validates the decoded request body. On success r.Body is replaced with
// the JSON encoding of the sanitized values.
func Body(rules core.RuleSet, opts ...transport.Option) func(http.Handler) http.Handler {
	o := transport.NewOptions(opts...)
	g := transport.NewGuard(types.FieldBody, rules, o)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, decodeErr := transport.DecodeBody(r, o.MaxBodyBytes)
			if decodeErr != nil {
				o.Logger.Info("Request body rejected",
					types.LogField{Key: "status", Value: decodeErr.Status},
					types.LogField{Key: "error", Value: decodeErr.Error()},
				)
				reqerrors.WriteError(w, decodeErr)
				return
			}

			sanitized, rej := g.Check(data)
			if rej != nil {
				reqerrors.WriteRejection(w, rej)
				return
			}
			if err := transport.ReplaceBody(r, sanitized); err != nil {
				o.Logger.Error("Failed to replace request body", types.LogField{Key: "error", Value: err.Error()})
				reqerrors.WriteError(w, reqerrors.ErrInternalServer)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithValidated(r.Context(), types.FieldBody, sanitized)))
		})
	}
}

// Query validates the query string
func Query(rules core.RuleSet, opts ...transport.Option) func(http.Handler) http.Handler {
	return field(types.FieldQuery, rules, opts, func(r *http.Request, _ transport.Options) any {
		return transport.ValuesMap(r.URL.Query())
	})
}

// Params validates route parameters, read with chi unless WithParamsExtractor
// says otherwise
func Params(rules core.RuleSet, opts ...transport.Option) func(http.Handler) http.Handler {
	return field(types.FieldParams, rules, opts, func(r *http.Request, o transport.Options) any {
		extract := o.Params
		if extract == nil {
			extract = ChiParams
		}
		return transport.StringMap(extract(r))
	})
}

// Headers validates request headers by lower-cased name
func Headers(rules core.RuleSet, opts ...transport.Option) func(http.Handler) http.Handler {
	return field(types.FieldHeaders, rules, opts, func(r *http.Request, _ transport.Options) any {
		return transport.RequestHeaders(r)
	})
}

// Cookies validates request cookies
func Cookies(rules core.RuleSet, opts ...transport.Option) func(http.Handler) http.Handler {
	return field(types.FieldCookies, rules, opts, func(r *http.Request, _ transport.Options) any {
		return transport.CookieMap(r.Cookies())
	})
}

// For returns the middleware validating f
func For(f types.Field, rules core.RuleSet, opts ...transport.Option) func(http.Handler) http.Handler {
	switch f {
	case types.FieldBody:
		return Body(rules, opts...)
	case types.FieldQuery:
		return Query(rules, opts...)
	case types.FieldParams:
		return Params(rules, opts...)
	case types.FieldHeaders:
		return Headers(rules, opts...)
	default:
		return Cookies(rules, opts...)
	}
}

func field(f types.Field, rules core.RuleSet, opts []transport.Option, extract func(*http.Request, transport.Options) any) func(http.Handler) http.Handler {
	o := transport.NewOptions(opts...)
	g := transport.NewGuard(f, rules, o)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sanitized, rej := g.Check(extract(r, o))
			if rej != nil {
				reqerrors.WriteRejection(w, rej)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithValidated(r.Context(), f, sanitized)))
		})
	}
}
