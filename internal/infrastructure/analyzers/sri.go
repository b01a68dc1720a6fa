package analyzers

import (
	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
)

const (
	KindSubresourceIntegrity = "subresource-integrity"

	sriDescription = "Third-party scripts are pinned with Subresource Integrity"
)

var sriOutputs = analysis.OutputTypes{
	Success:  []string{"[]Attrs"},
	Failures: []analysis.FailureKind{analysis.MissingSubresourceIntegrityForThirdPartyScript},
}

// SRIAnalyzer requires an integrity attribute on every external script.
// Bodies without scripts pass.
type SRIAnalyzer struct {
	analysis.Base
}

// NewSRIAnalyzer takes no configuration.
func NewSRIAnalyzer(name string, _ Section) (analysis.Analyzer, error) {
	return &SRIAnalyzer{
		Base: analysis.NewBase(name, sriDescription, httpmsg.KindExchange, sriOutputs),
	}, nil
}

func (a *SRIAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	_, ok := answeredExchange(p)
	return ok
}

func (a *SRIAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	ex := p.(*httpmsg.Exchange)
	host := pageHost(ex)
	scripts := elementAttrs(ex.Response.Body, "script", "src", "integrity")
	for _, attrs := range scripts {
		src, ok := attrs["src"]
		if !ok {
			continue
		}
		if _, pinned := attrs["integrity"]; !pinned && isExternalURL(src, host) {
			return analysis.Fail(analysis.MissingSubresourceIntegrityForThirdPartyScript, src), nil
		}
	}
	return analysis.Pass(scripts), nil
}
