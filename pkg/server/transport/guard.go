// Package transport holds the framework independent half of the field
// adapters: the Guard that validates one request field and the helpers that
// turn net/http request parts into generic maps.
package transport

import (
	"net/http"
	"time"

	"github.com/harriteja/reqguard/pkg/logger"
	"github.com/harriteja/reqguard/pkg/types"
	"github.com/harriteja/reqguard/pkg/validation"
	"github.com/harriteja/reqguard/pkg/validation/coerce"
	"github.com/harriteja/reqguard/pkg/validation/core"
)

// DefaultMaxBodyBytes caps decoded request bodies when no limit is configured
const DefaultMaxBodyBytes int64 = 1 << 20

// ParamsFunc extracts route parameters from a net/http request
type ParamsFunc func(r *http.Request) map[string]string

// Options configures the adapters built on a Guard
type Options struct {
	Logger   types.Logger
	Recorder types.OutcomeRecorder
	// MaxBodyBytes limits body decoding; zero means DefaultMaxBodyBytes and a
	// negative value disables the limit
	MaxBodyBytes int64
	// Params is used by the net/http adapter to read route parameters
	Params ParamsFunc
}

// Option configures Options
type Option func(*Options)

// WithLogger sets the logger used for validation outcomes
func WithLogger(l types.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r types.OutcomeRecorder) Option {
	return func(o *Options) {
		o.Recorder = r
	}
}

// WithMaxBodyBytes limits the request body size
func WithMaxBodyBytes(n int64) Option {
	return func(o *Options) {
		o.MaxBodyBytes = n
	}
}

// WithParamsExtractor overrides how route parameters are read from a request
func WithParamsExtractor(fn ParamsFunc) Option {
	return func(o *Options) {
		o.Params = fn
	}
}

// NewOptions applies opts over the defaults
func NewOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o.withDefaults()
}

func (o Options) withDefaults() Options {
	o.Logger = logger.OrDefault(o.Logger)
	if o.Recorder == nil {
		o.Recorder = types.NewNoOpRecorder()
	}
	if o.MaxBodyBytes == 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return o
}

// Guard validates one request field against a RuleSet
type Guard struct {
	field    types.Field
	rules    core.RuleSet
	engine   *validation.Engine
	logger   types.Logger
	recorder types.OutcomeRecorder
}

// NewGuard creates a Guard for field. Coercion is chosen from the field kind.
func NewGuard(field types.Field, rules core.RuleSet, opts Options) *Guard {
	var engineOpts []validation.Option
	if c := coerce.ForField(field); c != nil {
		engineOpts = append(engineOpts, validation.WithCoercer(c))
	}
	opts = opts.withDefaults()
	return &Guard{
		field:    field,
		rules:    rules,
		engine:   validation.NewEngine(engineOpts...),
		logger:   opts.Logger.With(types.LogField{Key: "field", Value: field.String()}),
		recorder: opts.Recorder,
	}
}

// Field returns the request field this Guard validates
func (g *Guard) Field() types.Field {
	return g.field
}

// Check validates data and returns the sanitized map, or the rejection to
// send when any rule failed.
func (g *Guard) Check(data any) (map[string]any, *types.Rejection) {
	start := time.Now()
	outcome := g.engine.Validate(g.rules, data)
	g.recorder.RecordOutcome(g.field, outcome.Accepted(), len(outcome.Errors), time.Since(start))

	if !outcome.Accepted() {
		g.logger.Info("Request rejected",
			types.LogField{Key: "error_count", Value: len(outcome.Errors)},
			types.LogField{Key: "errors", Value: outcome.Errors},
		)
		return nil, types.NewRejection(http.StatusBadRequest, outcome.Errors...)
	}

	g.logger.Debug("Request validated",
		types.LogField{Key: "keys", Value: len(outcome.Data)},
	)
	return outcome.Data, nil
}
