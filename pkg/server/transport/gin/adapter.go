// Package gin adapts the request guard to gin handler chains
package gin

import (
	"github.com/gin-gonic/gin"

	"github.com/harriteja/reqguard/pkg/server/transport"
	reqerrors "github.com/harriteja/reqguard/pkg/server/transport/errors"
	"github.com/harriteja/reqguard/pkg/types"
	"github.com/harriteja/reqguard/pkg/validation/core"
)

const contextKeyPrefix = "reqguard."

// Validated returns the sanitized values stored for field
func Validated(c *gin.Context, field types.Field) (map[string]any, bool) {
	v, ok := c.Get(contextKeyPrefix + field.String())
	if !ok {
		return nil, false
	}
	data, ok := v.(map[string]any)
	return data, ok
}

// Body validates the decoded request body and replaces c.Request.Body with
// the sanitized JSON
func Body(rules core.RuleSet, opts ...transport.Option) gin.HandlerFunc {
	o := transport.NewOptions(opts...)
	g := transport.NewGuard(types.FieldBody, rules, o)

	return func(c *gin.Context) {
		data, decodeErr := transport.DecodeBody(c.Request, o.MaxBodyBytes)
		if decodeErr != nil {
			c.AbortWithStatusJSON(decodeErr.Status, decodeErr.Rejection())
			return
		}
		sanitized, rej := g.Check(data)
		if rej != nil {
			c.AbortWithStatusJSON(rej.Status, rej)
			return
		}
		if err := transport.ReplaceBody(c.Request, sanitized); err != nil {
			c.AbortWithStatusJSON(reqerrors.ErrInternalServer.Status, reqerrors.ErrInternalServer.Rejection())
			return
		}
		c.Set(contextKeyPrefix+types.FieldBody.String(), sanitized)
		c.Next()
	}
}

// Query validates the query string
func Query(rules core.RuleSet, opts ...transport.Option) gin.HandlerFunc {
	return field(types.FieldQuery, rules, opts, func(c *gin.Context) any {
		return transport.ValuesMap(c.Request.URL.Query())
	})
}

// Params validates gin route parameters
func Params(rules core.RuleSet, opts ...transport.Option) gin.HandlerFunc {
	return field(types.FieldParams, rules, opts, func(c *gin.Context) any {
		params := make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			params[p.Key] = p.Value
		}
		return transport.StringMap(params)
	})
}

// Headers validates request headers by lower-cased name
func Headers(rules core.RuleSet, opts ...transport.Option) gin.HandlerFunc {
	return field(types.FieldHeaders, rules, opts, func(c *gin.Context) any {
		return transport.RequestHeaders(c.Request)
	})
}

// Cookies validates request cookies
func Cookies(rules core.RuleSet, opts ...transport.Option) gin.HandlerFunc {
	return field(types.FieldCookies, rules, opts, func(c *gin.Context) any {
		return transport.CookieMap(c.Request.Cookies())
	})
}

func field(f types.Field, rules core.RuleSet, opts []transport.Option, extract func(*gin.Context) any) gin.HandlerFunc {
	g := transport.NewGuard(f, rules, transport.NewOptions(opts...))

	return func(c *gin.Context) {
		sanitized, rej := g.Check(extract(c))
		if rej != nil {
			c.AbortWithStatusJSON(rej.Status, rej)
			return
		}
		c.Set(contextKeyPrefix+f.String(), sanitized)
		c.Next()
	}
}
