package analyzers

import (
	"fmt"
	"strings"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

const (
	KindSecurityHeaders = "security-headers"

	securityHeadersDescription = "HTML responses set hardening security headers"
)

var securityHeadersOutputs = analysis.OutputTypes{
	Success:  []string{"HeaderReport"},
	Failures: []analysis.FailureKind{analysis.WeakSecurityHeaders},
}

// headerRule scores one response header.
type headerRule struct {
	name     string
	maxScore int
	check    func(value string) (int, []string)
}

var headerRules = []headerRule{
	{name: "Strict-Transport-Security", maxScore: 20, check: checkHSTS},
	{name: "Content-Security-Policy", maxScore: 20, check: checkCSPScore},
	{name: "X-Frame-Options", maxScore: 15, check: checkXFrameOptions},
	{name: "X-Content-Type-Options", maxScore: 15, check: checkXContentTypeOptions},
	{name: "Referrer-Policy", maxScore: 10, check: checkReferrerPolicy},
}

var disclosureHeaders = []string{"Server", "X-Powered-By", "X-AspNet-Version", "X-AspNetMvc-Version"}

// HeaderReport is the scored header set of one response.
type HeaderReport struct {
	Score    int      `json:"score"`
	MaxScore int      `json:"max_score"`
	Grade    string   `json:"grade"`
	Missing  []string `json:"missing,omitempty"`
	Issues   []string `json:"issues,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func scoreHeaders(h httpmsg.Header) HeaderReport {
	report := HeaderReport{}
	for _, rule := range headerRules {
		report.MaxScore += rule.maxScore
		value, ok := h.Get(rule.name)
		if !ok || strings.TrimSpace(value) == "" {
			report.Missing = append(report.Missing, rule.name)
			continue
		}
		score, issues := rule.check(value)
		report.Score += score
		for _, issue := range issues {
			report.Issues = append(report.Issues, rule.name+": "+issue)
		}
	}
	for _, name := range disclosureHeaders {
		if value, ok := h.Get(name); ok && value != "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s exposes %q", name, value))
		}
	}
	report.Grade = calculateGrade(report.Score, report.MaxScore)
	return report
}

func checkHSTS(value string) (int, []string) {
	var issues []string
	score := 20
	value = strings.ToLower(value)

	switch {
	case !strings.Contains(value, "max-age="):
		issues = append(issues, "missing max-age")
		score -= 10
	case strings.Contains(value, "max-age=0"):
		return 0, []string{"max-age=0 disables HSTS"}
	case !strings.Contains(value, "max-age=31536000") && !strings.Contains(value, "max-age=63072000"):
		issues = append(issues, "max-age below one year")
		score -= 3
	}
	if !strings.Contains(value, "includesubdomains") {
		issues = append(issues, "missing includeSubDomains")
		score -= 5
	}
	if !strings.Contains(value, "preload") {
		issues = append(issues, "missing preload")
		score -= 2
	}
	return max(score, 0), issues
}

func checkCSPScore(value string) (int, []string) {
	var issues []string
	score := 20
	d := parseCSPDirectives(value)
	for _, token := range []string{"'unsafe-inline'", "'unsafe-eval'"} {
		if strings.Contains(strings.ToLower(value), token) {
			issues = append(issues, "contains "+token)
			score -= 5
		}
	}
	if _, ok := d["default-src"]; !ok {
		issues = append(issues, "missing default-src")
		score -= 3
	}
	if _, ok := d["script-src"]; !ok {
		issues = append(issues, "missing script-src")
		score -= 2
	}
	return max(score, 0), issues
}

func checkXFrameOptions(value string) (int, []string) {
	value = strings.ToUpper(strings.TrimSpace(value))
	switch {
	case value == "DENY" || value == "SAMEORIGIN":
		return 15, nil
	case strings.HasPrefix(value, "ALLOW-FROM"):
		return 5, []string{"ALLOW-FROM is deprecated"}
	}
	return 0, []string{"invalid value " + value}
}

func checkXContentTypeOptions(value string) (int, []string) {
	if strings.EqualFold(strings.TrimSpace(value), "nosniff") {
		return 15, nil
	}
	return 0, []string{"should be nosniff"}
}

func checkReferrerPolicy(value string) (int, []string) {
	value = strings.ToLower(value)
	for _, policy := range []string{"no-referrer", "strict-origin", "strict-origin-when-cross-origin", "same-origin"} {
		if strings.Contains(value, policy) {
			return 10, nil
		}
	}
	if strings.Contains(value, "unsafe-url") || strings.Contains(value, "origin-when-cross-origin") {
		return 5, []string{"policy may leak referrers"}
	}
	return 7, []string{"unusual referrer policy"}
}

func calculateGrade(score, maxScore int) string {
	if maxScore == 0 {
		return "F"
	}
	percentage := float64(score) / float64(maxScore) * 100
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	case percentage >= 50:
		return "E"
	default:
		return "F"
	}
}

// SecurityHeadersAnalyzer grades HTML responses on their hardening headers
// and fails those graded below min_grade.
type SecurityHeadersAnalyzer struct {
	analysis.Base
	minGrade string
}

// NewSecurityHeadersAnalyzer accepts min_grade, one of A-F (default C).
func NewSecurityHeadersAnalyzer(name string, cfg Section) (analysis.Analyzer, error) {
	grade, err := cfg.optionalString(name, "min_grade", "C")
	if err != nil {
		return nil, err
	}
	grade = strings.ToUpper(grade)
	if len(grade) != 1 || grade < "A" || grade > "F" {
		return nil, fmt.Errorf("%w: %s.min_grade must be one of A-F, got %q", sharedErrors.ErrInvalidConfig, name, grade)
	}
	return &SecurityHeadersAnalyzer{
		Base:     analysis.NewBase(name, securityHeadersDescription, httpmsg.KindExchange, securityHeadersOutputs),
		minGrade: grade,
	}, nil
}

func (a *SecurityHeadersAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	_, ok := htmlExchange(p)
	return ok
}

func (a *SecurityHeadersAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	res := p.(*httpmsg.Exchange).Response
	if err := res.Header.CheckUnique(); err != nil {
		return analysis.Outcome{}, err
	}
	report := scoreHeaders(res.Header)
	// grades sort alphabetically from best to worst
	if report.Grade > a.minGrade {
		detail := fmt.Sprintf("grade %s below %s", report.Grade, a.minGrade)
		if len(report.Missing) > 0 {
			detail += "; missing " + strings.Join(report.Missing, ", ")
		}
		return analysis.Fail(analysis.WeakSecurityHeaders, detail), nil
	}
	return analysis.Pass(report), nil
}
