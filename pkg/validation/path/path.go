// Package path resolves and assigns dotted/bracketed keys such as
// "user.contacts[0].value" on generic map/slice structures.
//
// "a[0].b" and "a.0.b" address the same location. Numeric-looking mapping keys
// (for example a key literally named "1.2.3.4") cannot be addressed distinctly
// from sequence indexes.
package path

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// Split normalizes every "[n]" segment to ".n" and splits on "."
func Split(p string) []string {
	return strings.Split(indexPattern.ReplaceAllString(p, ".$1"), ".")
}

// Resolve walks p through root and returns the addressed value.
// The second result is false when any step is missing.
func Resolve(root any, p string) (any, bool) {
	current := root
	for _, seg := range Split(p) {
		next, ok := child(current, seg)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func child(container any, seg string) (any, bool) {
	switch c := container.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := c[seg]
		return v, ok
	case []any:
		i, ok := index(seg)
		if !ok || i >= len(c) {
			return nil, false
		}
		return c[i], true
	}

	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		i, ok := index(seg)
		if !ok || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

// Assign stores value at p inside root, creating intermediate containers.
// A missing intermediate becomes a []any when the following segment is a
// non-negative integer and a map[string]any otherwise.
func Assign(root map[string]any, p string, value any) {
	segs := Split(p)
	if len(segs) == 0 {
		return
	}
	head := segs[0]
	if len(segs) == 1 {
		root[head] = value
		return
	}
	root[head] = assignInto(root[head], segs[1:], value)
}

func assignInto(container any, segs []string, value any) any {
	seg := segs[0]
	last := len(segs) == 1

	switch c := container.(type) {
	case map[string]any:
		if last {
			c[seg] = value
		} else {
			c[seg] = assignInto(c[seg], segs[1:], value)
		}
		return c
	case []any:
		i, ok := index(seg)
		if !ok {
			// a named property cannot live on a sequence
			return c
		}
		for len(c) <= i {
			c = append(c, nil)
		}
		if last {
			c[i] = value
		} else {
			c[i] = assignInto(c[i], segs[1:], value)
		}
		return c
	}

	if _, ok := index(seg); ok {
		return assignInto([]any{}, segs, value)
	}
	return assignInto(map[string]any{}, segs, value)
}

func index(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Clone deep-copies map[string]any and []any containers so that later Assign
// calls into the copy never write through to the source.
func Clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	}
	return value
}
