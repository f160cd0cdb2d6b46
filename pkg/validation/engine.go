// Package validation evaluates declarative field rules against generic request
// data, aggregating every violation and reconstructing a sanitized copy of the
// values that passed.
package validation

import (
	"fmt"
	"strings"

	"github.com/harriteja/reqguard/pkg/validation/core"
	"github.com/harriteja/reqguard/pkg/validation/path"
)

// MsgRulesNotDefined is reported when the RuleSet itself is missing
const MsgRulesNotDefined = "Validation rules are not properly defined."

// Coercer normalizes a present value before type matching. A non-empty
// message rejects the value and skips the rest of the rule.
type Coercer func(rule core.Rule, value any) (any, string)

// Option configures an Engine
type Option func(*Engine)

// WithCoercer installs a pre-type-matching coercion hook
func WithCoercer(c Coercer) Option {
	return func(e *Engine) {
		e.coercer = c
	}
}

// Engine runs RuleSets. The zero value is ready to use and performs no coercion.
// An Engine holds no per-call state and is safe for concurrent use.
type Engine struct {
	coercer Coercer
}

// NewEngine creates an Engine with the given options
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate runs rules against data with a zero-option Engine
func Validate(rules core.RuleSet, data any, opts ...Option) core.Outcome {
	return NewEngine(opts...).Validate(rules, data)
}

// Validate evaluates every rule in order against data. All rules are attempted;
// a rule whose own check fails skips its later checks. Any error rejects the
// whole structure.
func (e *Engine) Validate(rules core.RuleSet, data any) core.Outcome {
	if rules == nil {
		return core.Rejected(MsgRulesNotDefined)
	}

	errs := make([]string, 0)
	sanitized := make(map[string]any)

	for _, rule := range rules {
		errs = e.apply(rule, data, errs, sanitized)
	}

	if len(errs) > 0 {
		return core.Rejected(errs...)
	}
	return core.AcceptedWith(sanitized)
}

func (e *Engine) apply(rule core.Rule, data any, errs []string, sanitized map[string]any) []string {
	key := rule.Key
	if strings.TrimSpace(key) == "" {
		return append(errs, fmt.Sprintf("Key %q must be a non-empty string", key))
	}

	if len(rule.Type) == 0 {
		return append(errs, fmt.Sprintf("Type for %q must declare at least one type", key))
	}

	validType := true
	for _, t := range rule.Type {
		if !t.Valid() {
			errs = append(errs, fmt.Sprintf("%s is not a valid type. Allowed types are %s",
				t, core.JoinTypes(core.AllowedTypes, ", ")))
			validType = false
		}
	}
	if !validType {
		return errs
	}

	value, found := path.Resolve(data, key)

	if !IsPresent(value, found) {
		if rule.Required {
			errs = append(errs, fmt.Sprintf("%s is required", key))
		}
		return errs
	}

	if e.coercer != nil {
		coerced, msg := e.coercer(rule, value)
		if msg != "" {
			return append(errs, msg)
		}
		value = coerced
	}

	if !MatchesAnyType(value, rule.Type) {
		return append(errs, fmt.Sprintf("%s should be a valid %s", key, core.JoinTypes(rule.Type, " or ")))
	}

	ruleErrs := checkConstraints(rule, value)
	if len(ruleErrs) == 0 {
		path.Assign(sanitized, key, path.Clone(value))
		return errs
	}
	return append(errs, ruleErrs...)
}

// checkConstraints applies bounds for every declared tag, then the regex and
// custom hooks, returning the messages produced by this rule alone.
func checkConstraints(rule core.Rule, value any) []string {
	var errs []string
	key := rule.Key

	for _, tag := range rule.Type {
		minValue, hasMin := core.ResolveBound(rule.Min, tag)
		maxValue, hasMax := core.ResolveBound(rule.Max, tag)

		if hasMin && !core.ValidBound(minValue) {
			errs = append(errs, fmt.Sprintf("Minimum value for %s must be a non-negative number", key))
			hasMin = false
		}
		if hasMax && !core.ValidBound(maxValue) {
			errs = append(errs, fmt.Sprintf("Maximum value for %s must be a non-negative number", key))
			hasMax = false
		}

		switch tag {
		case core.TypeString:
			s, ok := value.(string)
			if !ok {
				continue
			}
			n := float64(textLen(s))
			if hasMin && n < minValue {
				errs = append(errs, fmt.Sprintf("%s type is %s, it should be at least %s characters", key, tag, FormatNumber(minValue)))
			}
			if hasMax && n > maxValue {
				errs = append(errs, fmt.Sprintf("%s type is %s, it should be at most %s characters", key, tag, FormatNumber(maxValue)))
			}
		case core.TypeNumber:
			n, ok := AsNumber(value)
			if !ok {
				continue
			}
			if hasMin && n < minValue {
				errs = append(errs, fmt.Sprintf("%s type is %s, it should be at least %s", key, tag, FormatNumber(minValue)))
			}
			if hasMax && n > maxValue {
				errs = append(errs, fmt.Sprintf("%s type is %s, it should be at most %s", key, tag, FormatNumber(maxValue)))
			}
		case core.TypeArray:
			if !IsSequence(value) {
				continue
			}
			n := float64(sequenceLen(value))
			if hasMin && n < minValue {
				errs = append(errs, fmt.Sprintf("%s type is %s, it should be at least %s items", key, tag, FormatNumber(minValue)))
			}
			if hasMax && n > maxValue {
				errs = append(errs, fmt.Sprintf("%s type is %s, it should be at most %s items", key, tag, FormatNumber(maxValue)))
			}
		case core.TypeBoolean, core.TypeObject, core.TypeEmail, core.TypeURL,
			core.TypeCustomRegex, core.TypeCustomFunction:
			// not bounded
		}
	}

	if len(errs) > 0 {
		return errs
	}

	if rule.HasType(core.TypeCustomRegex) && rule.Regex != nil && !rule.Regex.MatchString(Text(value)) {
		return append(errs, fmt.Sprintf("%s is invalid", key))
	}

	if rule.CustomValidator != nil {
		if msg := rule.CustomValidator(value); msg != "" {
			return append(errs, msg)
		}
	}

	return errs
}
