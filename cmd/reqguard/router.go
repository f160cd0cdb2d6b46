package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/harriteja/reqguard/pkg/rulefile"
	"github.com/harriteja/reqguard/pkg/server/transport"
	transporterrors "github.com/harriteja/reqguard/pkg/server/transport/errors"
	httpadapter "github.com/harriteja/reqguard/pkg/server/transport/http"
	"github.com/harriteja/reqguard/pkg/types"
)

// routerDeps are the parts of the router that outlive a rule file reload
type routerDeps struct {
	guardOpts      []transport.Option
	metricsPath    string
	metricsHandler http.Handler
}

// buildRouter mounts every route of file behind its guards. A route answers
// with the sanitized fields it validated.
func buildRouter(file *rulefile.File, deps routerDeps) (http.Handler, error) {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		transporterrors.WriteJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"rulesets": len(file.RuleSets),
			"routes":   len(file.Routes),
		})
	})
	if deps.metricsHandler != nil && deps.metricsPath != "" {
		r.Method(http.MethodGet, deps.metricsPath, deps.metricsHandler)
	}

	for _, route := range file.Routes {
		fields := route.Fields()
		guards := make([]func(http.Handler) http.Handler, 0, len(fields))
		for _, field := range fields {
			rules, ok := file.RuleSets[route.Validate[field]]
			if !ok {
				return nil, errors.Errorf("route %s: unknown rule set %q for %s", route, route.Validate[field], field)
			}
			guards = append(guards, httpadapter.For(field, rules, deps.guardOpts...))
		}
		if err := mount(r, route, guards, echoValidated(fields)); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// mount registers one route. chi panics on patterns it cannot parse, such as
// an unclosed or repeated parameter; that panic comes back as an error.
func mount(r chi.Router, route rulefile.Route, guards []func(http.Handler) http.Handler, h http.Handler) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("route %s: %v", route, p)
		}
	}()
	r.With(guards...).Method(route.Method, route.Path, h)
	return nil
}

func echoValidated(fields []types.Field) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := make(map[string]any, len(fields))
		for _, field := range fields {
			if validated, ok := httpadapter.Validated(r.Context(), field); ok {
				data[string(field)] = validated
			}
		}
		transporterrors.WriteJSON(w, http.StatusOK, map[string]any{
			"status": http.StatusOK,
			"data":   data,
		})
	})
}
