package validation

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/harriteja/reqguard/pkg/validation/core"
)

// Registry holds named RuleSets shared by request handlers
type Registry struct {
	mu   sync.RWMutex
	sets map[string]core.RuleSet
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		sets: make(map[string]core.RuleSet),
	}
}

// Register stores a copy of rules under name
func (r *Registry) Register(name string, rules core.RuleSet) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("rule set name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sets[name]; exists {
		return errors.Errorf("rule set %s already exists", name)
	}

	r.sets[name] = cloneRuleSet(rules)
	return nil
}

// Remove deletes the RuleSet registered under name
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sets[name]; !exists {
		return errors.Errorf("rule set %s not found", name)
	}

	delete(r.sets, name)
	return nil
}

// Get returns the RuleSet registered under name
func (r *Registry) Get(name string) (core.RuleSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules, ok := r.sets[name]
	return rules, ok
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate runs the RuleSet registered under name against data
func (r *Registry) Validate(name string, data any, opts ...Option) (core.Outcome, error) {
	rules, ok := r.Get(name)
	if !ok {
		return core.Outcome{}, errors.Errorf("rule set %s not found", name)
	}
	return Validate(rules, data, opts...), nil
}

func cloneRuleSet(rules core.RuleSet) core.RuleSet {
	if rules == nil {
		return nil
	}
	out := make(core.RuleSet, len(rules))
	for i, rule := range rules {
		rule.Type = append([]core.TypeTag(nil), rule.Type...)
		if pt, ok := rule.Min.(core.PerType); ok {
			rule.Min = clonePerType(pt)
		}
		if pt, ok := rule.Max.(core.PerType); ok {
			rule.Max = clonePerType(pt)
		}
		out[i] = rule
	}
	return out
}

func clonePerType(pt core.PerType) core.PerType {
	out := make(core.PerType, len(pt))
	for k, v := range pt {
		out[k] = v
	}
	return out
}
