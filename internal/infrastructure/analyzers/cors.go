package analyzers

import (
	"fmt"
	"strings"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
)

const (
	KindCORS = "cors"

	corsDescription = "Cross-origin responses grant access to trusted origins only"
)

var corsOutputs = analysis.OutputTypes{
	Success:  []string{"CORSPolicy"},
	Failures: []analysis.FailureKind{analysis.InsecureCORSPolicy},
}

// CORSPolicy is the set of access-control headers a response granted.
type CORSPolicy struct {
	AllowOrigin      string `json:"allow_origin"`
	AllowCredentials bool   `json:"allow_credentials"`
	AllowMethods     string `json:"allow_methods,omitempty"`
	AllowHeaders     string `json:"allow_headers,omitempty"`
	ExposeHeaders    string `json:"expose_headers,omitempty"`
	VaryOrigin       bool   `json:"vary_origin"`
}

func readCORSPolicy(h httpmsg.Header) CORSPolicy {
	origin, _ := h.Get("Access-Control-Allow-Origin")
	credentials, _ := h.Get("Access-Control-Allow-Credentials")
	methods, _ := h.Get("Access-Control-Allow-Methods")
	headers, _ := h.Get("Access-Control-Allow-Headers")
	expose, _ := h.Get("Access-Control-Expose-Headers")
	return CORSPolicy{
		AllowOrigin:      strings.TrimSpace(origin),
		AllowCredentials: strings.EqualFold(strings.TrimSpace(credentials), "true"),
		AllowMethods:     methods,
		AllowHeaders:     headers,
		ExposeHeaders:    expose,
		VaryOrigin:       varyIncludesOrigin(h.Values("Vary")),
	}
}

func varyIncludesOrigin(values []string) bool {
	for _, value := range values {
		for _, token := range strings.Split(value, ",") {
			token = strings.TrimSpace(token)
			if token == "*" || strings.EqualFold(token, "origin") {
				return true
			}
		}
	}
	return false
}

// CORSAnalyzer inspects responses carrying Access-Control-Allow-Origin.
//
// A wildcard origin passes unless credentials are also allowed or
// allow_wildcard is false. Specific origins must be listed in
// allowed_origins, when set, and must be served with Vary: Origin.
type CORSAnalyzer struct {
	analysis.Base
	allowWildcard bool
	allowed       map[string]bool
}

// NewCORSAnalyzer accepts allow_wildcard (default true) and allowed_origins.
func NewCORSAnalyzer(name string, cfg Section) (analysis.Analyzer, error) {
	wildcard, err := cfg.optionalBool(name, "allow_wildcard", true)
	if err != nil {
		return nil, err
	}
	origins, err := cfg.optionalStrings(name, "allowed_origins")
	if err != nil {
		return nil, err
	}
	a := &CORSAnalyzer{
		Base:          analysis.NewBase(name, corsDescription, httpmsg.KindExchange, corsOutputs),
		allowWildcard: wildcard,
	}
	if len(origins) > 0 {
		a.allowed = make(map[string]bool, len(origins))
		for _, o := range origins {
			a.allowed[strings.ToLower(strings.TrimSuffix(o, "/"))] = true
		}
	}
	return a, nil
}

func (a *CORSAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	ex, ok := p.(*httpmsg.Exchange)
	return ok && ex.Response != nil && ex.Response.Header.Has("Access-Control-Allow-Origin")
}

func (a *CORSAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	ex := p.(*httpmsg.Exchange)
	if err := ex.Response.Header.CheckUnique(); err != nil {
		return analysis.Outcome{}, err
	}
	policy := readCORSPolicy(ex.Response.Header)
	if issue := a.firstIssue(ex.Request, policy); issue != "" {
		return analysis.Fail(analysis.InsecureCORSPolicy, issue), nil
	}
	return analysis.Pass(policy), nil
}

func (a *CORSAnalyzer) firstIssue(req *httpmsg.Request, policy CORSPolicy) string {
	switch origin := policy.AllowOrigin; {
	case origin == "":
		return "empty Access-Control-Allow-Origin"
	case strings.EqualFold(origin, "null"):
		return "allows the null origin"
	case origin == "*":
		if policy.AllowCredentials {
			return "allows credentials with a wildcard origin"
		}
		if !a.allowWildcard {
			return "allows any origin (*)"
		}
		return ""
	}

	if a.allowed != nil && !a.allowed[strings.ToLower(strings.TrimSuffix(policy.AllowOrigin, "/"))] {
		if req != nil {
			if requested, ok := req.Header.Get("Origin"); ok && requested == policy.AllowOrigin {
				return fmt.Sprintf("reflects untrusted origin %s", requested)
			}
		}
		return fmt.Sprintf("allows untrusted origin %s", policy.AllowOrigin)
	}
	if policy.AllowCredentials && strings.Contains(policy.AllowHeaders, "*") {
		return "allows any request header with credentials"
	}
	if !policy.VaryOrigin {
		return "missing Vary: Origin for origin " + policy.AllowOrigin
	}
	return ""
}
