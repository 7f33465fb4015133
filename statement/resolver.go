package statement

import (
	"regexp"
	"strings"
)

var (
	hintCentury21 = regexp.MustCompile(`(?i)century\s*21|c21`)
	hintAaronMoon = regexp.MustCompile(`(?i)aaron\s*moon`)
)

// Resolver picks the adapter for a statement. Adapters are tried in order;
// the fallback handles anything none of them recognise.
type Resolver struct {
	adapters []Adapter
	fallback Adapter
}

// NewResolver builds a resolver over the given agency adapters.
func NewResolver(fallback Adapter, adapters ...Adapter) *Resolver {
	return &Resolver{adapters: adapters, fallback: fallback}
}

// DefaultResolver knows every supported agency.
func DefaultResolver() *Resolver {
	return NewResolver(Generic(), Century21(), AaronMoon())
}

// Adapters lists the agency adapters followed by the fallback.
func (r *Resolver) Adapters() []Adapter {
	return append(append([]Adapter{}, r.adapters...), r.fallback)
}

// ByName finds an adapter by case-insensitive name.
func (r *Resolver) ByName(name string) (Adapter, bool) {
	for _, a := range r.Adapters() {
		if strings.EqualFold(a.Name(), name) {
			return a, true
		}
	}
	return nil, false
}

// Resolve uses the agency hint first, typically the rental agency name on
// the property, then the statement text. The hint is matched against every
// adapter name including the fallback's.
func (r *Resolver) Resolve(text, hint string) Adapter {
	if hint = strings.ToLower(strings.TrimSpace(hint)); hint != "" {
		for _, a := range r.Adapters() {
			name := strings.ToLower(a.Name())
			if strings.Contains(name, hint) || strings.Contains(hint, name) {
				return a
			}
		}
		switch {
		case hintCentury21.MatchString(hint):
			if a, ok := r.ByName(century21Patterns.name); ok {
				return a
			}
		case hintAaronMoon.MatchString(hint):
			if a, ok := r.ByName(aaronMoonPatterns.name); ok {
				return a
			}
		}
	}

	for _, a := range r.adapters {
		if a.CanParse(text) {
			return a
		}
	}
	return r.fallback
}
