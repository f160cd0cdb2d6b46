package core

import (
	"math"
	"regexp"
	"strings"
)

// TypeTag represents a kind a value may be checked against
type TypeTag string

const (
	// TypeString matches textual values
	TypeString TypeTag = "string"

	// TypeNumber matches numeric values (textual numerals excluded)
	TypeNumber TypeTag = "number"

	// TypeBoolean matches booleans
	TypeBoolean TypeTag = "boolean"

	// TypeArray matches sequences
	TypeArray TypeTag = "array"

	// TypeObject matches keyed, non-sequence containers
	TypeObject TypeTag = "object"

	// TypeEmail matches textual values shaped like an email address
	TypeEmail TypeTag = "email"

	// TypeURL matches textual values that parse as an absolute URL
	TypeURL TypeTag = "url"

	// TypeCustomRegex always passes type matching; validity comes from Rule.Regex
	TypeCustomRegex TypeTag = "custom-regex"

	// TypeCustomFunction always passes type matching; validity comes from Rule.CustomValidator
	TypeCustomFunction TypeTag = "custom-function"
)

// AllowedTypes lists every recognized tag in reporting order
var AllowedTypes = []TypeTag{
	TypeString,
	TypeNumber,
	TypeBoolean,
	TypeArray,
	TypeObject,
	TypeEmail,
	TypeURL,
	TypeCustomRegex,
	TypeCustomFunction,
}

// Valid reports whether t is one of AllowedTypes
func (t TypeTag) Valid() bool {
	for _, allowed := range AllowedTypes {
		if t == allowed {
			return true
		}
	}
	return false
}

// String returns the tag name
func (t TypeTag) String() string {
	return string(t)
}

// JoinTypes joins tag names with sep
func JoinTypes(tags []TypeTag, sep string) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	return strings.Join(names, sep)
}

// Types is a convenience constructor for a rule's type list
func Types(tags ...TypeTag) []TypeTag {
	return tags
}

// Bound is either a fixed number applying to every tag of a rule,
// or a per-tag mapping. Use Fixed or PerType to construct one.
type Bound interface {
	resolve(tag TypeTag) (float64, bool)
}

// Fixed is a bound applying to every tag of a rule
type Fixed float64

func (f Fixed) resolve(TypeTag) (float64, bool) {
	return float64(f), true
}

// PerType is a bound keyed by tag; tags without an entry are unbounded
type PerType map[TypeTag]float64

func (p PerType) resolve(tag TypeTag) (float64, bool) {
	v, ok := p[tag]
	return v, ok
}

// ResolveBound returns the effective bound for tag, or false when b does not bound it
func ResolveBound(b Bound, tag TypeTag) (float64, bool) {
	if b == nil {
		return 0, false
	}
	return b.resolve(tag)
}

// ValidBound reports whether a resolved bound is a usable non-negative number
func ValidBound(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// CustomFunc checks a raw value and returns a non-empty message when it is invalid.
// It must be synchronous and must not mutate shared state.
type CustomFunc func(value any) string

// Rule represents one field's validation specification
type Rule struct {
	// Key is the dotted/bracketed path of the field
	Key string `json:"key" yaml:"key"`

	// Type lists the acceptable tags; a value matching any of them passes type matching
	Type []TypeTag `json:"type" yaml:"type"`

	// Required rejects absent, null and empty-string values
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`

	// Min is the lower length/value/item bound
	Min Bound `json:"-" yaml:"-"`

	// Max is the upper length/value/item bound
	Max Bound `json:"-" yaml:"-"`

	// Regex is tested against the value when Type contains TypeCustomRegex
	Regex *regexp.Regexp `json:"-" yaml:"-"`

	// CustomValidator runs last; its message is reported verbatim
	CustomValidator CustomFunc `json:"-" yaml:"-"`
}

// HasType reports whether the rule declares tag
func (r Rule) HasType(tag TypeTag) bool {
	for _, t := range r.Type {
		if t == tag {
			return true
		}
	}
	return false
}

// RuleSet is an ordered list of rules applied together to one request field.
// A nil RuleSet is treated as not properly defined.
type RuleSet []Rule

// Outcome is the result of validating one structure against a RuleSet
type Outcome struct {
	// Errors contains every message in first-encountered order
	Errors []string `json:"errors,omitempty"`

	// Data is the sanitized structure; nil when rejected
	Data map[string]any `json:"data,omitempty"`
}

// Accepted reports whether validation produced no errors
func (o Outcome) Accepted() bool {
	return len(o.Errors) == 0
}

// Rejected builds a rejected outcome
func Rejected(errs ...string) Outcome {
	return Outcome{Errors: errs}
}

// AcceptedWith builds an accepted outcome
func AcceptedWith(data map[string]any) Outcome {
	return Outcome{Data: data}
}
