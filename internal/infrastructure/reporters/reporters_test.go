package reporters

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

var t0 = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func sampleRuns() []*analysis.Run {
	cookies := &analysis.Run{ID: "1", Analyzer: "cookie-secure", Description: "Cookies set the Secure flag", StartedAt: t0}
	cookies.Append(analysis.Result{Timestamp: t0, Ref: httpmsg.Ref{File: "a.har", Index: 1}, Outcome: analysis.Pass(nil)})
	cookies.Append(analysis.Result{Timestamp: t0, Ref: httpmsg.Ref{File: "a.har", Index: 3}, Outcome: analysis.Fail(analysis.MissingCookieFlag, "Secure missing on theme")})
	cookies.Complete(t0, false)

	bearer := &analysis.Run{ID: "2", Analyzer: "api-bearer-token", Description: "API requests use a scannable bearer Authorization header", StartedAt: t0}
	bearer.Complete(t0, false)
	return []*analysis.Run{cookies, bearer}
}

func sampleTimeline(t *testing.T) *timeline.Timeline {
	tl := timeline.New(nil, zaptest.NewLogger(t).Sugar())
	add := func(i int, p httpmsg.Payload) {
		tl.Add(timeline.Event{Timestamp: t0.Add(time.Duration(i) * time.Second), Reader: "har", SourceFile: "a.har", SequenceIndex: i, Payload: p})
	}
	req := func(origin, host, method, uri string) *httpmsg.Request {
		var h httpmsg.Header
		if origin != "" {
			h.Add("Origin", origin)
		}
		h.Add("Host", host)
		return &httpmsg.Request{Method: method, URI: uri, Version: "HTTP/1.1", Header: h}
	}
	res := func(answers int, status int, reason string) *httpmsg.Response {
		return &httpmsg.Response{Version: "HTTP/1.1", Status: status, Reason: reason, Answers: &httpmsg.Ref{File: "a.har", Index: answers}}
	}

	add(0, req("https://app.example.com", "api.example.com", "GET", "/users"))
	add(1, res(0, 200, "OK"))
	add(2, req("", "api.example.com", "GET", "/health"))
	add(3, res(2, 200, "OK"))
	add(4, req("http://localhost:3000", "api.example.com", "POST", "/login"))
	add(5, res(4, 401, "Unauthorized"))
	add(6, &httpmsg.Response{Version: "HTTP/1.1", Status: 500, Reason: "Oops"})
	return tl
}

func TestTextReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextReporter{}.WriteReport(&buf, nil, sampleRuns()))
	assert.Equal(t, "Summary:\n\n"+
		"Cookies set the Secure flag: 1 passed, 1 failed; 2 matched\n"+
		"API requests use a scannable bearer Authorization header: 0 passed, 0 failed; 0 matched\n",
		buf.String())
}

func TestJSONReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONReporter{}.WriteReport(&buf, nil, sampleRuns()))

	var decoded map[string]map[string]map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, map[string]int{"passed": 1, "failed": 1, "matched": 2}, decoded["summary"]["Cookies set the Secure flag"])
	assert.Contains(t, decoded["summary"], "API requests use a scannable bearer Authorization header")
}

func TestJSONReportKeepsRunsSharingADescription(t *testing.T) {
	strict := &analysis.Run{ID: "1", Analyzer: "bearer-strict", Description: "API requests use a scannable bearer Authorization header", StartedAt: t0}
	strict.Append(analysis.Result{Timestamp: t0, Outcome: analysis.Pass(nil)})
	strict.Complete(t0, false)
	loose := &analysis.Run{ID: "2", Analyzer: "bearer-loose", Description: strict.Description, StartedAt: t0}
	loose.Append(analysis.Result{Timestamp: t0, Outcome: analysis.Fail(analysis.NonScannableAuthToken, "abc")})
	loose.Complete(t0, false)

	var buf bytes.Buffer
	require.NoError(t, JSONReporter{}.WriteReport(&buf, nil, append(sampleRuns()[:1], strict, loose)))

	var decoded map[string]map[string]map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded["summary"], 3)
	assert.Contains(t, decoded["summary"], "Cookies set the Secure flag")
	assert.Equal(t, map[string]int{"passed": 1, "failed": 0, "matched": 1},
		decoded["summary"]["API requests use a scannable bearer Authorization header [bearer-strict]"])
	assert.Equal(t, map[string]int{"passed": 0, "failed": 1, "matched": 1},
		decoded["summary"]["API requests use a scannable bearer Authorization header [bearer-loose]"])
}

func TestMarkdownReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MarkdownReporter{}.WriteReport(&buf, nil, sampleRuns()))
	out := buf.String()

	assert.Contains(t, out, "# Traffic Analysis Report")
	assert.Contains(t, out, "| Cookies set the Secure flag | 1 | 1 | 2 |")
	assert.Contains(t, out, "## Cookies set the Secure flag")
	assert.Contains(t, out, "**MissingCookieFlag**: 1")
	assert.Contains(t, out, "`a.har#3`")
	assert.NotContains(t, out, "## API requests")

	buf.Reset()
	require.NoError(t, MarkdownReporter{}.WriteReport(&buf, nil, nil))
	assert.Contains(t, buf.String(), "No analysis results.")
}

func TestCSVReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSVReporter{}.WriteReport(&buf, nil, sampleRuns()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"cookie-secure", "2024-06-01T09:30:00Z", "a.har", "1", "pass", "", ""}, rows[1])
	assert.Equal(t, "MissingCookieFlag", rows[2][5])
}

func TestMermaidReport(t *testing.T) {
	var buf bytes.Buffer
	m := NewMermaidReporter(zaptest.NewLogger(t).Sugar())
	require.NoError(t, m.WriteReport(&buf, sampleTimeline(t), nil))

	assert.Equal(t, "\nsequenceDiagram\n\n"+
		"    app.example.com->>api.example.com: GET /users\n"+
		"    app.example.com<<-api.example.com: 200 OK\n", buf.String())
}

func TestMermaidReportEmptyTimeline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMermaidReporter(nil).WriteReport(&buf, timeline.New(nil, nil), nil))
	assert.Equal(t, "\nsequenceDiagram\n\n    \n", buf.String())

	require.Error(t, NewMermaidReporter(nil).WriteReport(&buf, nil, nil))
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "example.com", stripScheme("https://example.com"))
	assert.Equal(t, "example.com", stripScheme("example.com"))
	assert.Equal(t, "b", stripScheme("a://x://b"))
}

func TestMermaidDisplayOpensLiveEditor(t *testing.T) {
	var opened string
	m := NewMermaidReporter(zaptest.NewLogger(t).Sugar())
	m.Open = func(url string) error {
		opened = url
		return nil
	}

	report := []byte("\nsequenceDiagram\n\n    a->>b: GET /\n")
	require.NoError(t, m.DisplayReport(report))
	require.True(t, strings.HasPrefix(opened, mermaidLiveEditorURL))

	raw, err := base64.URLEncoding.DecodeString(strings.TrimPrefix(opened, mermaidLiveEditorURL))
	require.NoError(t, err)
	var state struct {
		Code    string `json:"code"`
		Mermaid struct {
			Theme string `json:"theme"`
		} `json:"mermaid"`
		UpdateEditor bool `json:"updateEditor"`
	}
	require.NoError(t, json.Unmarshal(raw, &state))
	assert.Equal(t, string(report), state.Code)
	assert.Equal(t, "default", state.Mermaid.Theme)
	assert.False(t, state.UpdateEditor)
	assert.True(t, strings.HasPrefix(string(raw), `{"code": "\nsequenceDiagram`))
}

func TestOpenCommandForOS(t *testing.T) {
	name, args := openCommandForOS("darwin", "https://x")
	assert.Equal(t, "open", name)
	assert.Equal(t, []string{"https://x"}, args)

	name, _ = openCommandForOS("linux", "https://x")
	assert.Equal(t, "xdg-open", name)
}

func TestPDFReport(t *testing.T) {
	var buf bytes.Buffer
	r := PDFReporter{Now: func() time.Time { return t0 }}
	require.NoError(t, r.WriteReport(&buf, nil, sampleRuns()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"csv", "json", "markdown", "mermaid", "pdf", "text"}, r.Formats())

	rep, err := r.Get("mermaid")
	require.NoError(t, err)
	assert.True(t, NeedsTimeline(rep))
	_, isDisplayer := rep.(Displayer)
	assert.True(t, isDisplayer)

	rep, err = r.Get("text")
	require.NoError(t, err)
	assert.False(t, NeedsTimeline(rep))

	_, err = r.Get("yaml")
	require.ErrorIs(t, err, sharedErrors.ErrUnknownReportFormat)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
