// Package rulefile loads RuleSets and route bindings from YAML or JSON files.
//
// Closures cannot be written in data, so a rule file carries a declarative
// subset of core.Rule: regex patterns are compiled with regexp and `assert`
// expressions are compiled with expr into a CustomValidator.
package rulefile

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/harriteja/reqguard/pkg/types"
	"github.com/harriteja/reqguard/pkg/validation"
	"github.com/harriteja/reqguard/pkg/validation/core"
)

// Format selects the rule file decoder
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the decoder from a file extension. Anything that is not
// .json is read as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// routeFieldOrder is the order adapters are chained for a route
var routeFieldOrder = []types.Field{
	types.FieldParams,
	types.FieldQuery,
	types.FieldHeaders,
	types.FieldCookies,
	types.FieldBody,
}

// Route binds RuleSets to the fields of one endpoint
type Route struct {
	Method   string
	Path     string
	Validate map[types.Field]string
}

// Fields returns the validated fields in chaining order
func (r Route) Fields() []types.Field {
	fields := make([]types.Field, 0, len(r.Validate))
	for _, f := range routeFieldOrder {
		if _, ok := r.Validate[f]; ok {
			fields = append(fields, f)
		}
	}
	return fields
}

func (r Route) String() string {
	return r.Method + " " + r.Path
}

// File is a loaded rule file
type File struct {
	Path     string
	RuleSets map[string]core.RuleSet
	Routes   []Route
}

// Names returns the RuleSet names in sorted order
func (f *File) Names() []string {
	names := make([]string, 0, len(f.RuleSets))
	for name := range f.RuleSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry registers every RuleSet of f into a new Registry
func (f *File) Registry() (*validation.Registry, error) {
	reg := validation.NewRegistry()
	for _, name := range f.Names() {
		if err := reg.Register(name, f.RuleSets[name]); err != nil {
			return nil, errors.Wrapf(err, "failed to register %s", name)
		}
	}
	return reg, nil
}

// Load reads and parses the rule file at path
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read rule file")
	}
	f, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, err
	}
	f.Path = path
	return f, nil
}

// Parse decodes, lints and builds a rule file. Schema violations are returned
// as a *LintError.
func Parse(data []byte, format Format) (*File, error) {
	var generic any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, errors.Wrap(err, "failed to decode JSON rule file")
		}
	default:
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, errors.Wrap(err, "failed to decode YAML rule file")
		}
	}

	if err := Lint(generic); err != nil {
		return nil, err
	}

	// the linted document is re-encoded so both formats share one typed decoder
	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, errors.Wrap(err, "failed to normalize rule file")
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode rule file")
	}
	return doc.build()
}

type document struct {
	RuleSets map[string][]ruleSpec `json:"rulesets"`
	Routes   []routeSpec           `json:"routes"`
}

type ruleSpec struct {
	Key      string     `json:"key"`
	Type     typeList   `json:"type"`
	Required bool       `json:"required"`
	Min      *boundSpec `json:"min"`
	Max      *boundSpec `json:"max"`
	Regex    string     `json:"regex"`
	Assert   string     `json:"assert"`
	Message  string     `json:"message"`
}

type routeSpec struct {
	Method   string            `json:"method"`
	Path     string            `json:"path"`
	Validate map[string]string `json:"validate"`
}

// typeList accepts a single tag or a list of tags
type typeList []core.TypeTag

func (t *typeList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = typeList{core.TypeTag(single)}
		return nil
	}
	var many []core.TypeTag
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.Wrap(err, "type must be a string or a list of strings")
	}
	*t = many
	return nil
}

// boundSpec accepts a number or a per-type map
type boundSpec struct {
	bound core.Bound
}

func (b *boundSpec) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		b.bound = core.Fixed(n)
		return nil
	}
	var perType map[core.TypeTag]float64
	if err := json.Unmarshal(data, &perType); err != nil {
		return errors.Wrap(err, "bound must be a number or a map of type to number")
	}
	b.bound = core.PerType(perType)
	return nil
}

func (b *boundSpec) value() core.Bound {
	if b == nil {
		return nil
	}
	return b.bound
}

func (d document) build() (*File, error) {
	f := &File{RuleSets: make(map[string]core.RuleSet, len(d.RuleSets))}

	for name, specs := range d.RuleSets {
		rules := make(core.RuleSet, 0, len(specs))
		for i, spec := range specs {
			rule, err := spec.build()
			if err != nil {
				return nil, errors.Wrapf(err, "rulesets.%s[%d]", name, i)
			}
			rules = append(rules, rule)
		}
		f.RuleSets[name] = rules
	}

	for _, spec := range d.Routes {
		route := Route{
			Method:   strings.ToUpper(spec.Method),
			Path:     spec.Path,
			Validate: make(map[types.Field]string, len(spec.Validate)),
		}
		for fieldName, setName := range spec.Validate {
			field, err := types.ParseField(fieldName)
			if err != nil {
				return nil, errors.Wrapf(err, "route %s", route)
			}
			if _, ok := f.RuleSets[setName]; !ok {
				return nil, errors.Errorf("route %s: unknown rule set %q for %s", route, setName, field)
			}
			route.Validate[field] = setName
		}
		f.Routes = append(f.Routes, route)
	}

	return f, nil
}

func (s ruleSpec) build() (core.Rule, error) {
	rule := core.Rule{
		Key:      s.Key,
		Type:     []core.TypeTag(s.Type),
		Required: s.Required,
		Min:      s.Min.value(),
		Max:      s.Max.value(),
	}

	if s.Regex != "" {
		re, err := regexp.Compile(s.Regex)
		if err != nil {
			return core.Rule{}, errors.Wrapf(err, "failed to compile regex for %s", s.Key)
		}
		rule.Regex = re
	}

	if s.Assert != "" {
		fn, err := compileAssert(s.Key, s.Assert, s.Message)
		if err != nil {
			return core.Rule{}, err
		}
		rule.CustomValidator = fn
	}

	return rule, nil
}
