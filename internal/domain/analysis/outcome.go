package analysis

import "fmt"

// FailureKind names one way a checklist item can be violated.
type FailureKind string

const (
	MissingContentTypeHeader                       FailureKind = "MissingContentTypeHeader"
	HTMLContentTypeHeader                          FailureKind = "HTMLContentTypeHeader"
	MissingAuthHeader                              FailureKind = "MissingAuthHeader"
	NonBearerAuthHeader                            FailureKind = "NonBearerAuthHeader"
	NonScannableAuthToken                          FailureKind = "NonScannableAuthToken"
	InvalidOpenAPISpec                             FailureKind = "InvalidOpenAPISpec"
	OpenAPISpecErrored                             FailureKind = "OpenAPISpecErrored"
	MissingCookieFlag                              FailureKind = "MissingCookieFlag"
	MissingCookiePrefix                            FailureKind = "MissingCookiePrefix"
	MissingSubresourceIntegrityForThirdPartyScript FailureKind = "MissingSubresourceIntegrityForThirdPartyScript"
	ExternalLinkMissingTabnabbingAttrs             FailureKind = "ExternalLinkMissingTabnabbingAttrs"
	MissingContentSecurityPolicy                   FailureKind = "MissingContentSecurityPolicy"
	UnsafeContentSecurityPolicy                    FailureKind = "UnsafeContentSecurityPolicy"
	WeakSecurityHeaders                            FailureKind = "WeakSecurityHeaders"
	InsecureCORSPolicy                             FailureKind = "InsecureCORSPolicy"
	CacheableSensitiveResponse                     FailureKind = "CacheableSensitiveResponse"
	VulnerableJavaScriptLibrary                    FailureKind = "VulnerableJavaScriptLibrary"
	ExpressionFailed                               FailureKind = "ExpressionFailed"
	ExpressionErrored                              FailureKind = "ExpressionErrored"
)

// Failure is a violated checklist item. It is data, not an error.
type Failure struct {
	Kind   FailureKind `json:"kind"`
	Detail string      `json:"detail,omitempty"`
}

func (f Failure) String() string {
	if f.Detail == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

// Outcome is the result of one evaluation: a success value or a failure.
type Outcome struct {
	Value   any
	Failure *Failure
}

// Pass wraps a success value.
func Pass(value any) Outcome {
	return Outcome{Value: value}
}

// Fail builds a failure outcome. detail is optional.
func Fail(kind FailureKind, detail string) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Detail: detail}}
}

// Failed reports whether the outcome is a failure kind.
func (o Outcome) Failed() bool {
	return o.Failure != nil
}

func (o Outcome) String() string {
	if o.Failure != nil {
		return "fail: " + o.Failure.String()
	}
	return fmt.Sprintf("pass: %v", o.Value)
}

// OutputTypes lists what an analyzer may return: the names of its success
// value types and its closed set of failure kinds.
type OutputTypes struct {
	Success  []string
	Failures []FailureKind
}

// Declares reports whether kind belongs to the declared failure set.
func (o OutputTypes) Declares(kind FailureKind) bool {
	for _, k := range o.Failures {
		if k == kind {
			return true
		}
	}
	return false
}
