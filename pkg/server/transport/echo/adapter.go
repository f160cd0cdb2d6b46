// Package echo adapts the request guard to echo middleware
package echo

import (
	"github.com/labstack/echo/v4"

	"github.com/harriteja/reqguard/pkg/server/transport"
	reqerrors "github.com/harriteja/reqguard/pkg/server/transport/errors"
	"github.com/harriteja/reqguard/pkg/types"
	"github.com/harriteja/reqguard/pkg/validation/core"
)

const contextKeyPrefix = "reqguard."

// Validated returns the sanitized values stored for field
func Validated(c echo.Context, field types.Field) (map[string]any, bool) {
	data, ok := c.Get(contextKeyPrefix + field.String()).(map[string]any)
	return data, ok
}

// Body validates the decoded request body and replaces the request body with
// the sanitized JSON
func Body(rules core.RuleSet, opts ...transport.Option) echo.MiddlewareFunc {
	o := transport.NewOptions(opts...)
	g := transport.NewGuard(types.FieldBody, rules, o)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			data, decodeErr := transport.DecodeBody(req, o.MaxBodyBytes)
			if decodeErr != nil {
				return c.JSON(decodeErr.Status, decodeErr.Rejection())
			}
			sanitized, rej := g.Check(data)
			if rej != nil {
				return c.JSON(rej.Status, rej)
			}
			if err := transport.ReplaceBody(req, sanitized); err != nil {
				return c.JSON(reqerrors.ErrInternalServer.Status, reqerrors.ErrInternalServer.Rejection())
			}
			c.Set(contextKeyPrefix+types.FieldBody.String(), sanitized)
			return next(c)
		}
	}
}

// Query validates the query string
func Query(rules core.RuleSet, opts ...transport.Option) echo.MiddlewareFunc {
	return field(types.FieldQuery, rules, opts, func(c echo.Context) any {
		return transport.ValuesMap(c.QueryParams())
	})
}

// Params validates echo path parameters
func Params(rules core.RuleSet, opts ...transport.Option) echo.MiddlewareFunc {
	return field(types.FieldParams, rules, opts, func(c echo.Context) any {
		names := c.ParamNames()
		values := c.ParamValues()
		params := make(map[string]string, len(names))
		for i, name := range names {
			if i < len(values) {
				params[name] = values[i]
			}
		}
		return transport.StringMap(params)
	})
}

// Headers validates request headers by lower-cased name
func Headers(rules core.RuleSet, opts ...transport.Option) echo.MiddlewareFunc {
	return field(types.FieldHeaders, rules, opts, func(c echo.Context) any {
		return transport.RequestHeaders(c.Request())
	})
}

// Cookies validates request cookies
func Cookies(rules core.RuleSet, opts ...transport.Option) echo.MiddlewareFunc {
	return field(types.FieldCookies, rules, opts, func(c echo.Context) any {
		return transport.CookieMap(c.Cookies())
	})
}

func field(f types.Field, rules core.RuleSet, opts []transport.Option, extract func(echo.Context) any) echo.MiddlewareFunc {
	g := transport.NewGuard(f, rules, transport.NewOptions(opts...))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sanitized, rej := g.Check(extract(c))
			if rej != nil {
				return c.JSON(rej.Status, rej)
			}
			c.Set(contextKeyPrefix+f.String(), sanitized)
			return next(c)
		}
	}
}
