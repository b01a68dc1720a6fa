package analyzers

import (
	"bytes"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
)

// Attrs holds the recorded attributes of one element. Absent attributes are
// absent keys.
type Attrs map[string]string

// elementAttrs tokenizes document and returns, for each start tag named
// element, the attributes listed in keep.
func elementAttrs(document []byte, element string, keep ...string) []Attrs {
	wanted := make(map[string]bool, len(keep))
	for _, k := range keep {
		wanted[k] = true
	}

	var out []Attrs
	z := html.NewTokenizer(bytes.NewReader(document))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != element {
				continue
			}
			attrs := Attrs{}
			for _, a := range tok.Attr {
				if wanted[a.Key] {
					attrs[a.Key] = a.Val
				}
			}
			out = append(out, attrs)
		}
	}
}

// isExternalURL reports whether ref points at another host than pageHost.
// Scheme-relative and absolute URLs are external unless their host equals
// pageHost; an empty pageHost makes every such URL external.
func isExternalURL(ref, pageHost string) bool {
	ref = strings.TrimSpace(ref)
	u, err := url.Parse(ref)
	if err != nil {
		return strings.HasPrefix(ref, "//")
	}
	if !strings.HasPrefix(ref, "//") && u.Host == "" {
		return false
	}
	if pageHost == "" {
		return true
	}
	return !strings.EqualFold(u.Hostname(), pageHost)
}

// answeredExchange reports whether p is an exchange with a response.
func answeredExchange(p httpmsg.Payload) (*httpmsg.Exchange, bool) {
	ex, ok := p.(*httpmsg.Exchange)
	if !ok || ex.Response == nil {
		return nil, false
	}
	return ex, true
}

// htmlExchange reports whether the exchange response carries an HTML body.
func htmlExchange(p httpmsg.Payload) (*httpmsg.Exchange, bool) {
	ex, ok := p.(*httpmsg.Exchange)
	if !ok || ex.Response == nil || len(ex.Response.Body) == 0 {
		return nil, false
	}
	contentType, ok := ex.Response.ContentType()
	if !ok {
		contentType = http.DetectContentType(ex.Response.Body)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, false
	}
	return ex, mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// pageHost is the host the exchange was served from, when known.
func pageHost(ex *httpmsg.Exchange) string {
	if ex.Request == nil {
		return ""
	}
	return ex.Request.Host()
}
