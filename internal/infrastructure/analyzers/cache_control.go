package analyzers

import (
	"strings"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
)

const (
	KindCacheControl = "cache-control"

	cacheControlDescription = "Responses to authenticated requests or setting cookies are not cacheable"
)

var cacheControlOutputs = analysis.OutputTypes{
	Success:  []string{"CachePolicy"},
	Failures: []analysis.FailureKind{analysis.CacheableSensitiveResponse},
}

// CachePolicy holds the caching headers of one response.
type CachePolicy struct {
	CacheControl string `json:"cache_control,omitempty"`
	Expires      string `json:"expires,omitempty"`
	Pragma       string `json:"pragma,omitempty"`
}

func (c CachePolicy) directives() map[string]bool {
	out := make(map[string]bool)
	for _, part := range strings.Split(strings.ToLower(c.CacheControl), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(part), "=")
		if name != "" {
			out[name] = true
		}
	}
	return out
}

// CacheControlAnalyzer requires no-store on sensitive responses: those that
// set cookies or answer a request carrying Authorization. With
// allow_private, Cache-Control: private is accepted as well.
type CacheControlAnalyzer struct {
	analysis.Base
	allowPrivate bool
}

// NewCacheControlAnalyzer accepts allow_private (default false).
func NewCacheControlAnalyzer(name string, cfg Section) (analysis.Analyzer, error) {
	private, err := cfg.optionalBool(name, "allow_private", false)
	if err != nil {
		return nil, err
	}
	return &CacheControlAnalyzer{
		Base:         analysis.NewBase(name, cacheControlDescription, httpmsg.KindExchange, cacheControlOutputs),
		allowPrivate: private,
	}, nil
}

func (a *CacheControlAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	ex, ok := p.(*httpmsg.Exchange)
	if !ok || ex.Response == nil {
		return false
	}
	if ex.Response.Header.Has("Set-Cookie") {
		return true
	}
	return ex.Request != nil && ex.Request.Header.Has("Authorization")
}

func (a *CacheControlAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	res := p.(*httpmsg.Exchange).Response
	if err := res.Header.CheckUnique(); err != nil {
		return analysis.Outcome{}, err
	}
	policy := CachePolicy{
		CacheControl: strings.Join(res.Header.Values("Cache-Control"), ", "),
	}
	policy.Expires, _ = res.Header.Get("Expires")
	policy.Pragma, _ = res.Header.Get("Pragma")

	d := policy.directives()
	switch {
	case d["no-store"]:
		return analysis.Pass(policy), nil
	case a.allowPrivate && d["private"]:
		return analysis.Pass(policy), nil
	case policy.CacheControl == "":
		return analysis.Fail(analysis.CacheableSensitiveResponse, "missing Cache-Control"), nil
	}
	return analysis.Fail(analysis.CacheableSensitiveResponse, "Cache-Control: "+policy.CacheControl), nil
}
