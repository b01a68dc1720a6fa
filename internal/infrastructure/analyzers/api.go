package analyzers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

const (
	KindAPIContentType   = "api-content-type"
	KindAPIBearerToken   = "api-bearer-token"
	KindAPIOpenAPIExport = "api-openapi-export"

	contentTypeDescription = "API responses set non-HTML Content-Type header"
	bearerDescription      = "API requests use a scannable bearer Authorization header"
	openAPIDescription     = "API exports an OpenAPI (Swagger) spec"
)

var (
	contentTypeOutputs = analysis.OutputTypes{
		Success:  []string{"string"},
		Failures: []analysis.FailureKind{analysis.MissingContentTypeHeader, analysis.HTMLContentTypeHeader},
	}
	bearerOutputs = analysis.OutputTypes{
		Success:  []string{"string"},
		Failures: []analysis.FailureKind{analysis.MissingAuthHeader, analysis.NonBearerAuthHeader, analysis.NonScannableAuthToken},
	}
	openAPIOutputs = analysis.OutputTypes{
		Success:  []string{"*httpmsg.Response"},
		Failures: []analysis.FailureKind{analysis.InvalidOpenAPISpec, analysis.OpenAPISpecErrored},
	}
)

// apiExchange returns the exchange when it answers a request under prefix.
func apiExchange(p httpmsg.Payload, prefix string) (*httpmsg.Exchange, bool) {
	ex, ok := p.(*httpmsg.Exchange)
	if !ok || ex.Request == nil || ex.Response == nil {
		return nil, false
	}
	return ex, strings.HasPrefix(ex.Request.URI, prefix)
}

// ContentTypeAnalyzer checks that API responses never declare HTML.
type ContentTypeAnalyzer struct {
	analysis.Base
	apiURI string
}

// NewContentTypeAnalyzer requires api_uri.
func NewContentTypeAnalyzer(name string, cfg Section) (analysis.Analyzer, error) {
	apiURI, err := cfg.requireString(name, "api_uri")
	if err != nil {
		return nil, err
	}
	return &ContentTypeAnalyzer{
		Base:   analysis.NewBase(name, contentTypeDescription, httpmsg.KindExchange, contentTypeOutputs),
		apiURI: apiURI,
	}, nil
}

func (a *ContentTypeAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	_, ok := apiExchange(p, a.apiURI)
	return ok
}

func (a *ContentTypeAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	res := p.(*httpmsg.Exchange).Response
	if err := res.Header.CheckUnique(); err != nil {
		return analysis.Outcome{}, err
	}
	contentType, ok := res.ContentType()
	if !ok {
		return analysis.Fail(analysis.MissingContentTypeHeader, ""), nil
	}
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(normalized, "text/html") || strings.HasPrefix(normalized, "application/xhtml+xml") {
		return analysis.Fail(analysis.HTMLContentTypeHeader, contentType), nil
	}
	return analysis.Pass(contentType), nil
}

// BearerTokenAnalyzer checks that requests carry a bearer token whose shape
// a secret scanner could recognise.
type BearerTokenAnalyzer struct {
	analysis.Base
	token *regexp.Regexp
}

// NewBearerTokenAnalyzer requires token_regex, which must match the whole token.
func NewBearerTokenAnalyzer(name string, cfg Section) (analysis.Analyzer, error) {
	pattern, err := cfg.requireString(name, "token_regex")
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w: %s.token_regex: %v", sharedErrors.ErrInvalidConfig, name, err)
	}
	return &BearerTokenAnalyzer{
		Base:  analysis.NewBase(name, bearerDescription, httpmsg.KindRequest, bearerOutputs),
		token: re,
	}, nil
}

func (a *BearerTokenAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	_, ok := p.(*httpmsg.Request)
	return ok
}

func (a *BearerTokenAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	req := p.(*httpmsg.Request)
	if err := req.Header.CheckUnique(); err != nil {
		return analysis.Outcome{}, err
	}
	scheme, token, ok := req.Authorization()
	if !ok {
		return analysis.Fail(analysis.MissingAuthHeader, ""), nil
	}
	if scheme != "bearer" {
		return analysis.Fail(analysis.NonBearerAuthHeader, scheme), nil
	}
	if !a.token.MatchString(token) {
		return analysis.Fail(analysis.NonScannableAuthToken, ""), nil
	}
	return analysis.Pass(token), nil
}

// OpenAPIAnalyzer looks for the API's OpenAPI document. It finishes after
// the first successful fetch.
type OpenAPIAnalyzer struct {
	analysis.Base
	apiURI     string
	openAPIURI string
	validator  *documentValidator
}

// NewOpenAPIAnalyzer requires api_uri and openapi_uri. validate_document
// turns on structural validation of the fetched document.
func NewOpenAPIAnalyzer(name string, cfg Section) (analysis.Analyzer, error) {
	apiURI, err := cfg.requireString(name, "api_uri")
	if err != nil {
		return nil, err
	}
	openAPIURI, err := cfg.requireString(name, "openapi_uri")
	if err != nil {
		return nil, err
	}
	validate, err := cfg.optionalBool(name, "validate_document", false)
	if err != nil {
		return nil, err
	}
	a := &OpenAPIAnalyzer{
		Base:       analysis.NewBase(name, openAPIDescription, httpmsg.KindExchange, openAPIOutputs),
		apiURI:     apiURI,
		openAPIURI: openAPIURI,
	}
	if validate {
		if a.validator, err = newDocumentValidator(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *OpenAPIAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	_, ok := apiExchange(p, a.apiURI)
	return ok
}

func (a *OpenAPIAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	ex := p.(*httpmsg.Exchange)
	if ex.Request.URI != a.openAPIURI {
		return analysis.Fail(analysis.InvalidOpenAPISpec, ex.Request.URI), nil
	}
	if !ex.Response.IsSuccess() {
		return analysis.Fail(analysis.OpenAPISpecErrored, fmt.Sprintf("status %d", ex.Response.Status)), nil
	}
	if a.validator != nil {
		if err := a.validator.validate(ex.Response.Body); err != nil {
			return analysis.Fail(analysis.InvalidOpenAPISpec, err.Error()), nil
		}
	}
	a.Finish()
	return analysis.Pass(ex.Response), nil
}
