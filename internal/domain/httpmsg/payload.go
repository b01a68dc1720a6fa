package httpmsg

import (
	"fmt"
	"strings"
)

// Kind identifies one variant of the Payload sum type.
type Kind int

const (
	KindRequest Kind = iota + 1
	KindResponse
	KindRawPacket
	KindExchange
)

var kindNames = map[Kind]string{
	KindRequest:   "request",
	KindResponse:  "response",
	KindRawPacket: "raw-packet",
	KindExchange:  "exchange",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a configuration or persisted name back to a Kind.
func ParseKind(s string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for kind, name := range kindNames {
		if name == want {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown payload kind %q", s)
}

// Payload is implemented only by *Request, *Response, *RawPacket and *Exchange.
type Payload interface {
	Kind() Kind
	isPayload()
}

// Ref points at one event of a timeline by source file and per-file index.
type Ref struct {
	File  string `json:"file"`
	Index int    `json:"index"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s#%d", r.File, r.Index)
}

// Request is a parsed HTTP request. URI holds only the path; the query string
// and fragment are kept apart.
type Request struct {
	Method   string `json:"method"`
	URI      string `json:"uri"`
	Query    string `json:"query,omitempty"`
	Fragment string `json:"fragment,omitempty"`
	Version  string `json:"version"`
	Header   Header `json:"headers"`
	Body     []byte `json:"body,omitempty"`
}

// Response is a parsed HTTP response. Answers is set at ingestion when the
// request it replies to is known.
type Response struct {
	Version string `json:"version"`
	Status  int    `json:"status"`
	Reason  string `json:"reason"`
	Header  Header `json:"headers"`
	Body    []byte `json:"body,omitempty"`
	Answers *Ref   `json:"answers,omitempty"`
}

// RawPacket is a transport payload that has not been parsed as HTTP yet.
type RawPacket struct {
	Src     string `json:"src"`
	Dst     string `json:"dst"`
	Data    []byte `json:"data"`
	Answers *Ref   `json:"answers,omitempty"`
}

// Exchange pairs a response with the request it answers. Request is nil when
// the answered request could not be resolved.
type Exchange struct {
	Request  *Request  `json:"request,omitempty"`
	Response *Response `json:"response"`
}

func (*Request) Kind() Kind   { return KindRequest }
func (*Response) Kind() Kind  { return KindResponse }
func (*RawPacket) Kind() Kind { return KindRawPacket }
func (*Exchange) Kind() Kind  { return KindExchange }

func (*Request) isPayload()   {}
func (*Response) isPayload()  {}
func (*RawPacket) isPayload() {}
func (*Exchange) isPayload()  {}

func (r *Request) String() string {
	if r.Query != "" {
		return fmt.Sprintf("%s %s?%s %s", r.Method, r.URI, r.Query, r.Version)
	}
	return fmt.Sprintf("%s %s %s", r.Method, r.URI, r.Version)
}

func (r *Response) String() string {
	return fmt.Sprintf("%s %d %s", r.Version, r.Status, r.Reason)
}

func (p *RawPacket) String() string {
	return fmt.Sprintf("%s > %s (%d bytes)", p.Src, p.Dst, len(p.Data))
}

// Headers implements HasHeaders.
func (r *Request) Headers() Header { return r.Header }

// Headers implements HasHeaders.
func (r *Response) Headers() Header { return r.Header }

// Cookies implements HasCookies.
func (r *Request) Cookies() []Cookie { return r.Header.SetCookies() }

// Cookies implements HasCookies.
func (r *Response) Cookies() []Cookie { return r.Header.SetCookies() }

// Authorization implements HasAuthorization.
func (r *Request) Authorization() (string, string, bool) { return r.Header.Authorization() }

// Authorization implements HasAuthorization.
func (r *Response) Authorization() (string, string, bool) { return r.Header.Authorization() }

// Endpoints returns the Origin and Host of a request, in that order.
func (r *Request) Endpoints() (src, dst string, ok bool) {
	src, ok = r.Header.Get("Origin")
	if !ok {
		return "", "", false
	}
	dst, ok = r.Header.Get("Host")
	if !ok {
		return "", "", false
	}
	return src, dst, true
}

// Host returns the Host header with any port removed, lower-cased.
func (r *Request) Host() string {
	host, _ := r.Header.Get("Host")
	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	return host
}

// IsSuccess reports whether the status is in [200, 300).
func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// ContentType returns the response Content-Type header, if any.
func (r *Response) ContentType() (string, bool) {
	return r.Header.Get("Content-Type")
}

// HasHeaders is implemented by payloads carrying an HTTP header block.
type HasHeaders interface {
	Headers() Header
}

// HasCookies is implemented by payloads that can carry Set-Cookie headers.
type HasCookies interface {
	Cookies() []Cookie
}

// HasAuthorization is implemented by payloads that can carry an Authorization header.
type HasAuthorization interface {
	Authorization() (scheme, credentials string, ok bool)
}

var (
	_ HasHeaders       = (*Request)(nil)
	_ HasCookies       = (*Response)(nil)
	_ HasAuthorization = (*Request)(nil)
)
