package analyzers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
)

const (
	KindVulnerableJS = "vulnerable-js"

	vulnerableJSDescription = "Pages do not load JavaScript libraries with known vulnerabilities"
)

var vulnerableJSOutputs = analysis.OutputTypes{
	Success:  []string{"[]ScriptLibrary"},
	Failures: []analysis.FailureKind{analysis.VulnerableJavaScriptLibrary},
}

type knownLibrary struct {
	name       string
	pattern    *regexp.Regexp
	vulnerable *semver.Constraints
	advisories []string
}

func mustConstraint(c string) *semver.Constraints {
	parsed, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return parsed
}

var knownLibraries = []knownLibrary{
	{
		name:       "jQuery",
		pattern:    regexp.MustCompile(`jquery[/@-](\d+\.\d+(?:\.\d+)?)`),
		vulnerable: mustConstraint("< 3.5.0"),
		advisories: []string{"CVE-2020-11022", "CVE-2020-11023"},
	},
	{
		name:       "AngularJS",
		pattern:    regexp.MustCompile(`angular(?:js)?(?:\.js)?[/@-](1\.\d+(?:\.\d+)?)`),
		vulnerable: mustConstraint("< 1.7.9"),
		advisories: []string{"CVE-2019-10768"},
	},
	{
		name:       "Lodash",
		pattern:    regexp.MustCompile(`lodash(?:\.js)?[/@-](\d+\.\d+(?:\.\d+)?)`),
		vulnerable: mustConstraint("< 4.17.12"),
		advisories: []string{"CVE-2019-10744"},
	},
	{
		name:       "Moment.js",
		pattern:    regexp.MustCompile(`moment(?:\.js)?[/@-](\d+\.\d+(?:\.\d+)?)`),
		vulnerable: mustConstraint("< 2.29.2"),
		advisories: []string{"CVE-2022-24785"},
	},
	{
		name:       "Bootstrap",
		pattern:    regexp.MustCompile(`bootstrap[/@-](\d+\.\d+(?:\.\d+)?)`),
		vulnerable: mustConstraint("< 3.4.0"),
		advisories: []string{"CVE-2019-8331"},
	},
}

// ScriptLibrary is a library version recognised in a script URL.
type ScriptLibrary struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Source  string `json:"source"`
}

// detect reports the library version named in src, if any.
func (lib knownLibrary) detect(src string) (ScriptLibrary, bool) {
	m := lib.pattern.FindStringSubmatch(strings.ToLower(src))
	if m == nil {
		return ScriptLibrary{}, false
	}
	return ScriptLibrary{Name: lib.name, Version: m[1], Source: src}, true
}

// VulnerableJSAnalyzer matches script URLs of HTML pages against library
// versions with published advisories.
type VulnerableJSAnalyzer struct {
	analysis.Base
}

// NewVulnerableJSAnalyzer takes no configuration.
func NewVulnerableJSAnalyzer(name string, _ Section) (analysis.Analyzer, error) {
	return &VulnerableJSAnalyzer{
		Base: analysis.NewBase(name, vulnerableJSDescription, httpmsg.KindExchange, vulnerableJSOutputs),
	}, nil
}

func (a *VulnerableJSAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	_, ok := htmlExchange(p)
	return ok
}

func (a *VulnerableJSAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	ex := p.(*httpmsg.Exchange)
	found := []ScriptLibrary{}
	for _, attrs := range elementAttrs(ex.Response.Body, "script", "src") {
		src, ok := attrs["src"]
		if !ok {
			continue
		}
		for _, lib := range knownLibraries {
			detected, ok := lib.detect(src)
			if !ok {
				continue
			}
			version, err := semver.NewVersion(detected.Version)
			if err != nil {
				continue
			}
			if lib.vulnerable.Check(version) {
				detail := fmt.Sprintf("%s %s (%s) from %s", lib.name, detected.Version, strings.Join(lib.advisories, ", "), src)
				return analysis.Fail(analysis.VulnerableJavaScriptLibrary, detail), nil
			}
			found = append(found, detected)
		}
	}
	return analysis.Pass(found), nil
}
