package analyzers

import (
	"fmt"
	"strings"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
)

const (
	KindCSP = "csp"

	cspDescription = "Responses set a strict Content-Security-Policy"
)

var cspOutputs = analysis.OutputTypes{
	Success:  []string{"CSPDirectives"},
	Failures: []analysis.FailureKind{analysis.MissingContentSecurityPolicy, analysis.UnsafeContentSecurityPolicy},
}

// CSPDirectives maps lower-cased directive names to their source tokens.
type CSPDirectives map[string][]string

func parseCSPDirectives(value string) CSPDirectives {
	result := make(CSPDirectives)
	for _, part := range strings.Split(strings.ToLower(value), ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		// the first occurrence of a directive wins
		if _, dup := result[fields[0]]; dup {
			continue
		}
		result[fields[0]] = fields[1:]
	}
	return result
}

// sources returns the directive's tokens, falling back to default-src.
func (d CSPDirectives) sources(name string) ([]string, bool) {
	if tokens, ok := d[name]; ok {
		return tokens, true
	}
	tokens, ok := d["default-src"]
	return tokens, ok
}

func (d CSPDirectives) isNone(name string) bool {
	tokens, ok := d[name]
	return ok && len(tokens) == 1 && tokens[0] == "'none'"
}

// CSPAnalyzer checks HTML pages, and optionally API responses, for a
// Content-Security-Policy without unsafe sources.
//
// API responses under api_uri must lock everything down with
// default-src 'none' and frame-ancestors 'none'.
type CSPAnalyzer struct {
	analysis.Base
	apiURI string
}

// NewCSPAnalyzer accepts an optional api_uri.
func NewCSPAnalyzer(name string, cfg Section) (analysis.Analyzer, error) {
	apiURI, err := cfg.optionalString(name, "api_uri", "")
	if err != nil {
		return nil, err
	}
	return &CSPAnalyzer{
		Base:   analysis.NewBase(name, cspDescription, httpmsg.KindExchange, cspOutputs),
		apiURI: apiURI,
	}, nil
}

func (a *CSPAnalyzer) isAPI(ex *httpmsg.Exchange) bool {
	return a.apiURI != "" && ex.Request != nil && strings.HasPrefix(ex.Request.URI, a.apiURI)
}

func (a *CSPAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	if _, ok := htmlExchange(p); ok {
		return true
	}
	ex, ok := p.(*httpmsg.Exchange)
	return ok && ex.Response != nil && a.isAPI(ex)
}

func (a *CSPAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	ex := p.(*httpmsg.Exchange)
	if err := ex.Response.Header.CheckUnique(); err != nil {
		return analysis.Outcome{}, err
	}
	value, ok := ex.Response.Header.Get("Content-Security-Policy")
	if !ok || strings.TrimSpace(value) == "" {
		return analysis.Fail(analysis.MissingContentSecurityPolicy, ""), nil
	}
	directives := parseCSPDirectives(value)
	if issue := a.firstIssue(ex, directives); issue != "" {
		return analysis.Fail(analysis.UnsafeContentSecurityPolicy, issue), nil
	}
	return analysis.Pass(directives), nil
}

func (a *CSPAnalyzer) firstIssue(ex *httpmsg.Exchange, d CSPDirectives) string {
	for _, name := range []string{"script-src", "style-src", "img-src"} {
		tokens, _ := d.sources(name)
		for _, token := range tokens {
			if token == "'unsafe-inline'" || token == "'unsafe-eval'" {
				return fmt.Sprintf("%s allows %s", name, token)
			}
		}
	}
	if !d.isNone("default-src") {
		for _, name := range []string{"frame-src", "object-src"} {
			tokens, _ := d.sources(name)
			for _, token := range tokens {
				if token == "*" || token == "http:" || token == "https:" || token == "data:" {
					return fmt.Sprintf("%s allows any origin via %s", name, token)
				}
			}
		}
	}
	if a.isAPI(ex) {
		if !d.isNone("default-src") {
			return "API responses need default-src 'none'"
		}
		if !d.isNone("frame-ancestors") {
			return "API responses need frame-ancestors 'none'"
		}
	}
	return ""
}
