package analyzers

import (
	"strings"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
)

const (
	KindCookieSecure     = "cookie-secure"
	KindCookieHTTPOnly   = "cookie-httponly"
	KindCookieHostPrefix = "cookie-host-prefix"

	hostPrefix            = "__Host-"
	hostPrefixDescription = "Cookies use the __Host- name prefix"
)

var (
	cookieFlagOutputs = analysis.OutputTypes{
		Success:  []string{"[]httpmsg.Cookie"},
		Failures: []analysis.FailureKind{analysis.MissingCookieFlag},
	}
	hostPrefixOutputs = analysis.OutputTypes{
		Success:  []string{"[]httpmsg.Cookie"},
		Failures: []analysis.FailureKind{analysis.MissingCookiePrefix},
	}
)

type cookieFlagRule struct {
	kind        string
	flag        string
	description string
}

var cookieFlagRules = []cookieFlagRule{
	{kind: KindCookieSecure, flag: "Secure", description: "Cookies set the Secure flag"},
	{kind: KindCookieHTTPOnly, flag: "HttpOnly", description: "Cookies set the HttpOnly flag"},
}

func responseCookies(ex *httpmsg.Exchange) []httpmsg.Cookie {
	cookies := ex.Response.Cookies()
	if cookies == nil {
		return []httpmsg.Cookie{}
	}
	return cookies
}

// CookieFlagAnalyzer requires every Set-Cookie to carry a flag spelled exactly.
// Responses without cookies pass.
type CookieFlagAnalyzer struct {
	analysis.Base
	flag string
}

func newCookieFlagFactory(rule cookieFlagRule) Factory {
	return func(name string, _ Section) (analysis.Analyzer, error) {
		return &CookieFlagAnalyzer{
			Base: analysis.NewBase(name, rule.description, httpmsg.KindExchange, cookieFlagOutputs),
			flag: rule.flag,
		}, nil
	}
}

func (a *CookieFlagAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	_, ok := answeredExchange(p)
	return ok
}

func (a *CookieFlagAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	cookies := responseCookies(p.(*httpmsg.Exchange))
	var missing []string
	for _, c := range cookies {
		if !c.HasFlag(a.flag) {
			missing = append(missing, c.Name())
		}
	}
	if len(missing) > 0 {
		return analysis.Fail(analysis.MissingCookieFlag, a.flag+" missing on "+strings.Join(missing, ", ")), nil
	}
	return analysis.Pass(cookies), nil
}

// HostPrefixAnalyzer requires every cookie name to start with "__Host-".
type HostPrefixAnalyzer struct {
	analysis.Base
}

// NewHostPrefixAnalyzer takes no configuration.
func NewHostPrefixAnalyzer(name string, _ Section) (analysis.Analyzer, error) {
	return &HostPrefixAnalyzer{
		Base: analysis.NewBase(name, hostPrefixDescription, httpmsg.KindExchange, hostPrefixOutputs),
	}, nil
}

func (a *HostPrefixAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	_, ok := answeredExchange(p)
	return ok
}

func (a *HostPrefixAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	cookies := responseCookies(p.(*httpmsg.Exchange))
	var missing []string
	for _, c := range cookies {
		if !c.HasPrefix(hostPrefix) {
			missing = append(missing, c.Name())
		}
	}
	if len(missing) > 0 {
		return analysis.Fail(analysis.MissingCookiePrefix, strings.Join(missing, ", ")), nil
	}
	return analysis.Pass(cookies), nil
}
