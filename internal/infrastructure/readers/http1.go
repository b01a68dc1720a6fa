package readers

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

var (
	requestLine  = regexp.MustCompile(`^(OPTIONS|GET|HEAD|POST|PUT|PATCH|DELETE|TRACE|CONNECT) (\S+) (HTTP/\d\.\d)$`)
	responseLine = regexp.MustCompile(`^(HTTP/\d\.\d) (\d{3})(?: (.*))?$`)
)

// startLine returns the first line of data without its line terminator.
func startLine(data []byte) (string, bool) {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return "", false
	}
	return strings.TrimSuffix(string(data[:i]), "\r"), true
}

func looksLikeRequest(data []byte) bool {
	line, ok := startLine(data)
	return ok && requestLine.MatchString(line)
}

func looksLikeResponse(data []byte) bool {
	line, ok := startLine(data)
	return ok && responseLine.MatchString(line)
}

// parseHTTPRequest parses one HTTP/1.x request head and body. Header names
// keep their recorded spelling and order.
func parseHTTPRequest(data []byte) (*httpmsg.Request, error) {
	line, ok := startLine(data)
	if !ok {
		return nil, fmt.Errorf("%w: no request line", sharedErrors.ErrNotHTTP)
	}
	m := requestLine.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("%w: bad request line %q", sharedErrors.ErrNotHTTP, line)
	}
	header, body, err := parseHeaderBlock(data[len(line):])
	if err != nil {
		return nil, err
	}

	req := &httpmsg.Request{Method: m[1], Version: m[3], Header: header, Body: body}
	u, err := url.ParseRequestURI(m[2])
	if err != nil {
		req.URI = m[2]
	} else {
		req.URI = u.EscapedPath()
		req.Query = u.RawQuery
	}
	return req, nil
}

// parseHTTPResponse parses one HTTP/1.x response head and body.
func parseHTTPResponse(data []byte) (*httpmsg.Response, error) {
	line, ok := startLine(data)
	if !ok {
		return nil, fmt.Errorf("%w: no status line", sharedErrors.ErrNotHTTP)
	}
	m := responseLine.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("%w: bad status line %q", sharedErrors.ErrNotHTTP, line)
	}
	status, _ := strconv.Atoi(m[2])
	header, body, err := parseHeaderBlock(data[len(line):])
	if err != nil {
		return nil, err
	}
	return &httpmsg.Response{Version: m[1], Status: status, Reason: m[3], Header: header, Body: body}, nil
}

// parseHeaderBlock reads header lines after the start line up to the blank
// line. The body is truncated to Content-Length when the header is present.
func parseHeaderBlock(rest []byte) (httpmsg.Header, []byte, error) {
	rest = bytes.TrimPrefix(rest, []byte("\r"))
	rest = bytes.TrimPrefix(rest, []byte("\n"))

	var header httpmsg.Header
	for len(rest) > 0 {
		i := bytes.IndexByte(rest, '\n')
		var raw []byte
		if i < 0 {
			raw, rest = rest, nil
		} else {
			raw, rest = rest[:i], rest[i+1:]
		}
		line := strings.TrimSuffix(string(raw), "\r")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			return nil, nil, fmt.Errorf("%w: bad header line %q", sharedErrors.ErrNotHTTP, line)
		}
		header.Add(name, strings.TrimSpace(value))
	}

	body := rest
	if v, ok := header.Get("Content-Length"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 && n < len(body) {
			body = body[:n]
		}
	}
	if len(body) == 0 {
		body = nil
	}
	return header, body, nil
}
