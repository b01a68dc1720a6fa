package analyzers

import (
	"strings"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
)

const (
	KindTabnabbing = "tabnabbing"

	tabnabbingDescription = "External target=_blank links set rel=noopener noreferrer"
)

var tabnabbingOutputs = analysis.OutputTypes{
	Success:  []string{"[]Attrs"},
	Failures: []analysis.FailureKind{analysis.ExternalLinkMissingTabnabbingAttrs},
}

// TabnabbingAnalyzer checks links that open a new tab on another site.
// Bodies without such links pass.
type TabnabbingAnalyzer struct {
	analysis.Base
}

// NewTabnabbingAnalyzer takes no configuration.
func NewTabnabbingAnalyzer(name string, _ Section) (analysis.Analyzer, error) {
	return &TabnabbingAnalyzer{
		Base: analysis.NewBase(name, tabnabbingDescription, httpmsg.KindExchange, tabnabbingOutputs),
	}, nil
}

func (a *TabnabbingAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	_, ok := answeredExchange(p)
	return ok
}

func (a *TabnabbingAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	ex := p.(*httpmsg.Exchange)
	host := pageHost(ex)
	links := elementAttrs(ex.Response.Body, "a", "href", "target", "rel")
	for _, attrs := range links {
		if attrs["target"] != "_blank" {
			continue
		}
		href := attrs["href"]
		if href == "" || !isExternalURL(href, host) {
			continue
		}
		rel := make(map[string]bool)
		for _, token := range strings.Fields(attrs["rel"]) {
			rel[token] = true
		}
		if !rel["noopener"] || !rel["noreferrer"] {
			return analysis.Fail(analysis.ExternalLinkMissingTabnabbingAttrs, href), nil
		}
	}
	return analysis.Pass(links), nil
}
