// Package analyzers implements the web-security checklist rules and the
// factory registry that builds them from configuration.
package analyzers

import (
	"fmt"
	"sort"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

// Factory builds one analyzer instance named name from its config section.
type Factory func(name string, cfg Section) (analysis.Analyzer, error)

// Entry describes one analyzer kind.
type Entry struct {
	Kind        string
	Description string
	Failures    []analysis.FailureKind
	// Required lists config keys the kind cannot do without.
	Required []string
	New      Factory
}

// Registry maps analyzer kinds to factories.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// DefaultRegistry registers every built-in analyzer kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Entry{
		Kind:        KindAPIContentType,
		Description: contentTypeDescription,
		Failures:    contentTypeOutputs.Failures,
		Required:    []string{"api_uri"},
		New:         NewContentTypeAnalyzer,
	})
	r.Register(Entry{
		Kind:        KindAPIBearerToken,
		Description: bearerDescription,
		Failures:    bearerOutputs.Failures,
		Required:    []string{"token_regex"},
		New:         NewBearerTokenAnalyzer,
	})
	r.Register(Entry{
		Kind:        KindAPIOpenAPIExport,
		Description: openAPIDescription,
		Failures:    openAPIOutputs.Failures,
		Required:    []string{"api_uri", "openapi_uri"},
		New:         NewOpenAPIAnalyzer,
	})
	for _, flag := range cookieFlagRules {
		r.Register(Entry{
			Kind:        flag.kind,
			Description: flag.description,
			Failures:    cookieFlagOutputs.Failures,
			New:         newCookieFlagFactory(flag),
		})
	}
	r.Register(Entry{
		Kind:        KindCookieHostPrefix,
		Description: hostPrefixDescription,
		Failures:    hostPrefixOutputs.Failures,
		New:         NewHostPrefixAnalyzer,
	})
	r.Register(Entry{
		Kind:        KindSubresourceIntegrity,
		Description: sriDescription,
		Failures:    sriOutputs.Failures,
		New:         NewSRIAnalyzer,
	})
	r.Register(Entry{
		Kind:        KindTabnabbing,
		Description: tabnabbingDescription,
		Failures:    tabnabbingOutputs.Failures,
		New:         NewTabnabbingAnalyzer,
	})
	r.Register(Entry{
		Kind:        KindCSP,
		Description: cspDescription,
		Failures:    cspOutputs.Failures,
		New:         NewCSPAnalyzer,
	})
	r.Register(Entry{
		Kind:        KindSecurityHeaders,
		Description: securityHeadersDescription,
		Failures:    securityHeadersOutputs.Failures,
		New:         NewSecurityHeadersAnalyzer,
	})
	r.Register(Entry{
		Kind:        KindCORS,
		Description: corsDescription,
		Failures:    corsOutputs.Failures,
		New:         NewCORSAnalyzer,
	})
	r.Register(Entry{
		Kind:        KindCacheControl,
		Description: cacheControlDescription,
		Failures:    cacheControlOutputs.Failures,
		New:         NewCacheControlAnalyzer,
	})
	r.Register(Entry{
		Kind:        KindVulnerableJS,
		Description: vulnerableJSDescription,
		Failures:    vulnerableJSOutputs.Failures,
		New:         NewVulnerableJSAnalyzer,
	})
	r.Register(Entry{
		Kind:        KindExpression,
		Description: expressionDescription,
		Failures:    expressionOutputs.Failures,
		Required:    []string{"passes"},
		New:         NewExpressionAnalyzer,
	})
	return r
}

// Register adds or replaces a kind.
func (r *Registry) Register(e Entry) {
	r.entries[e.Kind] = e
}

// Entries lists registered kinds sorted by name.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Build constructs the named analyzers in order. A section's "kind" key
// selects the factory; without it the name itself is the kind. Unknown kinds
// and bad sections fail the whole build.
func (r *Registry) Build(names []string, sections map[string]Section) ([]analysis.Analyzer, error) {
	seen := make(map[string]bool, len(names))
	out := make([]analysis.Analyzer, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		cfg := sections[name]
		if cfg == nil {
			cfg = Section{}
		}
		kind := name
		if v, ok := cfg.lookup("kind"); ok {
			s, isString := v.(string)
			if !isString || s == "" {
				return nil, fmt.Errorf("%w: %s.kind must be a non-empty string", sharedErrors.ErrInvalidConfig, name)
			}
			kind = s
		}
		entry, ok := r.entries[kind]
		if !ok {
			return nil, fmt.Errorf("%w: %q", sharedErrors.ErrUnknownAnalyzer, kind)
		}
		a, err := entry.New(name, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
