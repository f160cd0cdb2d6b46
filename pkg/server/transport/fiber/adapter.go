// Package fiber adapts the request guard to fiber handler chains
package fiber

import (
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/harriteja/reqguard/pkg/server/transport"
	reqerrors "github.com/harriteja/reqguard/pkg/server/transport/errors"
	"github.com/harriteja/reqguard/pkg/types"
	"github.com/harriteja/reqguard/pkg/validation/core"
)

const localsKeyPrefix = "reqguard."

// Validated returns the sanitized values stored for field
func Validated(c *fiber.Ctx, field types.Field) (map[string]any, bool) {
	data, ok := c.Locals(localsKeyPrefix + field.String()).(map[string]any)
	return data, ok
}

func reject(c *fiber.Ctx, rej *types.Rejection) error {
	return c.Status(rej.Status).JSON(rej)
}

// Body validates the decoded request body and replaces it with the
// sanitized JSON
func Body(rules core.RuleSet, opts ...transport.Option) fiber.Handler {
	o := transport.NewOptions(opts...)
	g := transport.NewGuard(types.FieldBody, rules, o)

	return func(c *fiber.Ctx) error {
		raw := c.Body()
		if o.MaxBodyBytes > 0 && int64(len(raw)) > o.MaxBodyBytes {
			return reject(c, reqerrors.ErrRequestEntityTooLarge.Rejection())
		}
		data, decodeErr := transport.DecodeBytes(c.Get(fiber.HeaderContentType), raw)
		if decodeErr != nil {
			return reject(c, decodeErr.Rejection())
		}

		sanitized, rej := g.Check(data)
		if rej != nil {
			return reject(c, rej)
		}

		encoded, err := json.Marshal(sanitized)
		if err != nil {
			return reject(c, types.NewRejection(http.StatusInternalServerError, reqerrors.MsgInternal))
		}
		c.Request().SetBody(encoded)
		c.Request().Header.SetContentType(fiber.MIMEApplicationJSON)
		c.Locals(localsKeyPrefix+types.FieldBody.String(), sanitized)
		return c.Next()
	}
}

// Query validates the query string
func Query(rules core.RuleSet, opts ...transport.Option) fiber.Handler {
	return field(types.FieldQuery, rules, opts, func(c *fiber.Ctx) any {
		values := url.Values{}
		c.Context().QueryArgs().VisitAll(func(key, value []byte) {
			values.Add(string(key), string(value))
		})
		return transport.ValuesMap(values)
	})
}

// Params validates fiber route parameters
func Params(rules core.RuleSet, opts ...transport.Option) fiber.Handler {
	return field(types.FieldParams, rules, opts, func(c *fiber.Ctx) any {
		return transport.StringMap(c.AllParams())
	})
}

// Headers validates request headers by lower-cased name
func Headers(rules core.RuleSet, opts ...transport.Option) fiber.Handler {
	return field(types.FieldHeaders, rules, opts, func(c *fiber.Ctx) any {
		h := http.Header{}
		c.Request().Header.VisitAll(func(key, value []byte) {
			h.Add(string(key), string(value))
		})
		return transport.HeaderMap(h)
	})
}

// Cookies validates request cookies
func Cookies(rules core.RuleSet, opts ...transport.Option) fiber.Handler {
	return field(types.FieldCookies, rules, opts, func(c *fiber.Ctx) any {
		var cookies []*http.Cookie
		c.Request().Header.VisitAllCookie(func(key, value []byte) {
			cookies = append(cookies, &http.Cookie{Name: string(key), Value: string(value)})
		})
		return transport.CookieMap(cookies)
	})
}

func field(f types.Field, rules core.RuleSet, opts []transport.Option, extract func(*fiber.Ctx) any) fiber.Handler {
	g := transport.NewGuard(f, rules, transport.NewOptions(opts...))

	return func(c *fiber.Ctx) error {
		sanitized, rej := g.Check(extract(c))
		if rej != nil {
			return reject(c, rej)
		}
		c.Locals(localsKeyPrefix+f.String(), sanitized)
		return c.Next()
	}
}
