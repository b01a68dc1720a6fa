package reporters

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
)

const mermaidLiveEditorURL = "https://mermaid-js.github.io/mermaid-live-editor/#/edit/"

// OpenFunc opens url in the user's browser.
type OpenFunc func(url string) error

func openCommandForOS(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

func openInBrowser(url string) error {
	name, args := openCommandForOS(runtime.GOOS, url)
	return exec.Command(name, args...).Start() // #nosec G204 -- fixed opener binary, url passed as a single argv entry.
}

// MermaidReporter draws the timeline's HTTP traffic as a mermaid.js sequence
// diagram between Origin and Host.
type MermaidReporter struct {
	Logger *zap.SugaredLogger
	Open   OpenFunc
}

// NewMermaidReporter returns a reporter that opens diagrams in the default
// browser. logger may be nil.
func NewMermaidReporter(logger *zap.SugaredLogger) *MermaidReporter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &MermaidReporter{Logger: logger, Open: openInBrowser}
}

func (*MermaidReporter) Format() string { return "mermaid" }

func (*MermaidReporter) UsesTimeline() {}

func (m *MermaidReporter) logger() *zap.SugaredLogger {
	if m.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return m.Logger
}

func stripScheme(s string) string {
	if i := strings.LastIndex(s, "://"); i >= 0 {
		return s[i+len("://"):]
	}
	return s
}

// validActor rejects names mermaid cannot render as participants.
func validActor(actor string) bool {
	return !strings.Contains(actor, ":")
}

// actors returns the stripped Origin and Host of req.
func (m *MermaidReporter) actors(req *httpmsg.Request, what fmt.Stringer) (string, string, bool) {
	if req == nil {
		return "", "", false
	}
	src, dst, ok := req.Endpoints()
	if !ok {
		return "", "", false
	}
	src, dst = stripScheme(src), stripScheme(dst)
	if !validActor(src) || !validActor(dst) {
		m.logger().Warnw("skipping message, mermaid.js cannot render an actor containing a colon",
			"message", what.String(), "src", src, "dst", dst)
		return "", "", false
	}
	return src, dst, true
}

func (m *MermaidReporter) lines(tl *timeline.Timeline) []string {
	var lines []string
	for e := range tl.All() {
		kind := httpmsg.KindRequest
		switch p := e.Payload.(type) {
		case *httpmsg.Response:
			kind = httpmsg.KindResponse
		case *httpmsg.RawPacket:
			if p.Answers != nil {
				kind = httpmsg.KindResponse
			}
		case *httpmsg.Request:
		default:
			continue
		}

		payload, ok := tl.As(e, kind)
		if !ok {
			continue
		}
		switch p := payload.(type) {
		case *httpmsg.Request:
			if src, dst, ok := m.actors(p, p); ok {
				lines = append(lines, fmt.Sprintf("%s->>%s: %s %s", src, dst, p.Method, p.URI))
			}
		case *httpmsg.Response:
			req, found := tl.ResolveRequest(p.Answers)
			if !found {
				m.logger().Warnw("skipping response, could not find the request it answers", "ref", e.Ref().String())
				continue
			}
			if src, dst, ok := m.actors(req, p); ok {
				lines = append(lines, fmt.Sprintf("%s<<-%s: %d %s", src, dst, p.Status, p.Reason))
			}
		}
	}
	return lines
}

func (m *MermaidReporter) WriteReport(w io.Writer, tl *timeline.Timeline, _ []*analysis.Run) error {
	if tl == nil {
		return fmt.Errorf("mermaid report needs a timeline")
	}
	_, err := fmt.Fprintf(w, "\nsequenceDiagram\n\n    %s\n", strings.Join(m.lines(tl), "\n    "))
	return err
}

// LiveEditorURL encodes report for the mermaid live editor.
func LiveEditorURL(report []byte) (string, error) {
	var code bytes.Buffer
	enc := json.NewEncoder(&code)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(string(report)); err != nil {
		return "", err
	}
	state := fmt.Sprintf(`{"code": %s, "mermaid": {"theme": "default"}, "updateEditor": false}`,
		bytes.TrimRight(code.Bytes(), "\n"))
	return mermaidLiveEditorURL + base64.URLEncoding.EncodeToString([]byte(state)), nil
}

// DisplayReport opens report in the mermaid live editor.
func (m *MermaidReporter) DisplayReport(report []byte) error {
	url, err := LiveEditorURL(report)
	if err != nil {
		return err
	}
	m.logger().Infow("opening mermaid live editor", "url", url)
	open := m.Open
	if open == nil {
		open = openInBrowser
	}
	return open(url)
}
