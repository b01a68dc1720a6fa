package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

const commandsConfig = `
[traffic]
parallelism = 2

[traffic.analyzers]
names = ["cookie-secure", "cookie-httponly", "no-server-banner"]

[traffic.no-server-banner]
kind = "expression"
input = "response"
passes = "!('server' in response.headers)"
failure = "ServerBannerDisclosed"
`

const commandsHAR = `{
  "log": {
    "version": "1.2",
    "entries": [
      {
        "startedDateTime": "2024-03-01T12:00:00.000Z",
        "request": {
          "method": "POST",
          "url": "https://app.example.com/login",
          "httpVersion": "HTTP/1.1",
          "headers": [{"name": "Host", "value": "app.example.com"}]
        },
        "response": {
          "status": 302,
          "statusText": "Found",
          "httpVersion": "HTTP/1.1",
          "headers": [
            {"name": "Set-Cookie", "value": "session=abc; HttpOnly"},
            {"name": "Server", "value": "nginx"}
          ],
          "content": {}
        }
      }
    ]
  }
}`

func TestSlurpAnalyzeReportFlow(t *testing.T) {
	env := newTestEnv(t, commandsConfig)
	har := env.writeFile(t, "login.har", commandsHAR)

	out, _, err := env.run(t, "", "slurp", har)
	if err != nil {
		t.Fatalf("slurp failed: %v", err)
	}
	if !strings.Contains(out, "Slurped 2 events from 1 files") {
		t.Fatalf("unexpected slurp output %q", out)
	}

	out, _, err = env.run(t, "", "analyze")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	for _, want := range []string{
		"failed   cookie-secure: 0 passed, 1 failed; 1 matched",
		"passed   cookie-httponly: 1 passed, 0 failed; 1 matched",
		"failed   no-server-banner: 0 passed, 1 failed; 1 matched",
		"Saved 3 analyzers",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in analyze output %q", want, out)
		}
	}

	tests := []struct {
		name   string
		args   []string
		checks func(t *testing.T, out string)
	}{
		{
			name: "default text",
			args: []string{"report"},
			checks: func(t *testing.T, out string) {
				if !strings.HasPrefix(out, "Summary:\n\n") || !strings.Contains(out, "Cookies set the HttpOnly flag: 1 passed, 0 failed; 1 matched") {
					t.Fatalf("unexpected text report %q", out)
				}
			},
		},
		{
			name: "json",
			args: []string{"report", "json"},
			checks: func(t *testing.T, out string) {
				var decoded map[string]map[string]map[string]int
				if err := json.Unmarshal([]byte(out), &decoded); err != nil {
					t.Fatalf("invalid json report: %v", err)
				}
				if len(decoded["summary"]) != 3 {
					t.Fatalf("expected 3 analyzers in summary, got %v", decoded)
				}
			},
		},
		{
			name: "stats",
			args: []string{"report", "stats"},
			checks: func(t *testing.T, out string) {
				if !strings.Contains(out, "ServerBannerDisclosed=1") || !strings.Contains(out, "MissingCookieFlag=1") {
					t.Fatalf("unexpected stats table %q", out)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := env.run(t, "", tt.args...)
			if err != nil {
				t.Fatalf("report failed: %v", err)
			}
			tt.checks(t, out)
		})
	}

	pdfPath := filepath.Join(env.dir, "reports", "summary.pdf")
	if _, _, err := env.run(t, "", "report", "pdf", "-o", pdfPath); err != nil {
		t.Fatalf("pdf report failed: %v", err)
	}
	data, err := os.ReadFile(pdfPath)
	if err != nil || !strings.HasPrefix(string(data), "%PDF-") {
		t.Fatalf("expected a pdf file, err=%v", err)
	}
}

func TestAnalyzeProgressCountsSelectedAnalyzers(t *testing.T) {
	env := newTestEnv(t, commandsConfig)
	har := env.writeFile(t, "login.har", commandsHAR)
	if _, _, err := env.run(t, "", "slurp", har); err != nil {
		t.Fatalf("slurp failed: %v", err)
	}

	tests := []struct {
		name  string
		args  []string
		want  string
		saved string
	}{
		{name: "all analyzers", args: []string{"analyze", "--progress"}, want: "Analyzers: 3/3 (100.0%)", saved: "Saved 3 analyzers"},
		{name: "subset", args: []string{"analyze", "--progress", "cookie-secure"}, want: "Analyzers: 1/1 (100.0%)", saved: "Saved 1 analyzers"},
		{name: "subset with unknown name", args: []string{"analyze", "--progress", "cookie-httponly", "bogus"}, want: "Analyzers: 1/1 (100.0%)", saved: "Saved 1 analyzers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut, err := env.run(t, "", tt.args...)
			if err != nil {
				t.Fatalf("analyze failed: %v", err)
			}
			if !strings.Contains(errOut, tt.want) {
				t.Fatalf("expected %q in progress output %q", tt.want, errOut)
			}
			if !strings.Contains(out, tt.saved) {
				t.Fatalf("unexpected analyze output %q", out)
			}
		})
	}
}

func TestReportErrors(t *testing.T) {
	env := newTestEnv(t, commandsConfig)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{name: "unknown format", args: []string{"report", "yaml"}, wantErr: sharedErrors.ErrUnknownReportFormat},
		{name: "pdf to terminal", args: []string{"report", "pdf"}, wantMsg: "need --output"},
		{name: "display text", args: []string{"report", "text", "-d"}, wantErr: sharedErrors.ErrDisplayUnsupported},
		{name: "missing analysis", args: []string{"report"}, wantErr: sharedErrors.ErrDataFileNotFound, wantMsg: "seca-traffic analyze"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.run(t, "", tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("expected %q in %v", tt.wantMsg, err)
			}
		})
	}
}

func TestAnalyzeBeforeSlurp(t *testing.T) {
	env := newTestEnv(t, commandsConfig)

	_, _, err := env.run(t, "", "analyze")
	var dataErr *DataFileError
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected DataFileError, got %v", err)
	}
	if dataErr.Path != env.timeline {
		t.Fatalf("expected timeline path, got %s", dataErr.Path)
	}
}

func TestAnalyzeWithoutAnalyzers(t *testing.T) {
	env := newTestEnv(t, "[traffic]\n")

	_, _, err := env.run(t, "", "analyze")
	var notConfigured *AnalyzerNotConfiguredError
	if !errors.As(err, &notConfigured) {
		t.Fatalf("expected AnalyzerNotConfiguredError, got %v", err)
	}
}

func TestConfigErrorsFailBeforeIngestion(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr error
	}{
		{
			name:    "unknown analyzer",
			config:  "[traffic.analyzers]\nnames = [\"bogus\"]\n",
			wantErr: sharedErrors.ErrUnknownAnalyzer,
		},
		{
			name:    "missing required key",
			config:  "[traffic.analyzers]\nnames = [\"api-content-type\"]\n",
			wantErr: sharedErrors.ErrMissingConfig,
		},
		{
			name:    "bad expression",
			config:  "[traffic.analyzers]\nnames = [\"rule\"]\n\n[traffic.rule]\nkind = \"expression\"\npasses = \"response.status +\"\n",
			wantErr: sharedErrors.ErrInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.config)
			har := env.writeFile(t, "login.har", commandsHAR)

			_, _, err := env.run(t, "", "slurp", har)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if _, statErr := os.Stat(env.timeline); !os.IsNotExist(statErr) {
				t.Fatal("timeline should not be written when the configuration is invalid")
			}
		})
	}
}

func TestSlurpWithoutInputs(t *testing.T) {
	env := newTestEnv(t, commandsConfig)
	if _, _, err := env.run(t, "", "slurp"); err == nil || !strings.Contains(err.Error(), "no input files") {
		t.Fatalf("expected missing input error, got %v", err)
	}
}

func TestClean(t *testing.T) {
	env := newTestEnv(t, commandsConfig)
	har := env.writeFile(t, "login.har", commandsHAR)
	if _, _, err := env.run(t, "", "slurp", har); err != nil {
		t.Fatalf("slurp failed: %v", err)
	}

	tests := []struct {
		name       string
		stdin      string
		args       []string
		wantOutput string
		wantExists bool
	}{
		{name: "declined", stdin: "n\n", args: []string{"clean"}, wantOutput: "Aborted.", wantExists: true},
		{name: "no answer", stdin: "", args: []string{"clean"}, wantOutput: "Aborted.", wantExists: true},
		{name: "confirmed", stdin: "yes\n", args: []string{"clean"}, wantOutput: "Removed " + env.timeline},
		{name: "already clean", args: []string{"clean", "--force"}, wantOutput: "Nothing to clean."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := env.run(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("clean failed: %v", err)
			}
			if !strings.Contains(out, tt.wantOutput) {
				t.Fatalf("expected %q in %q", tt.wantOutput, out)
			}
			_, statErr := os.Stat(env.timeline)
			if exists := statErr == nil; exists != tt.wantExists {
				t.Fatalf("timeline exists=%v, want %v", exists, tt.wantExists)
			}
		})
	}
}

func TestAnalyzersCommand(t *testing.T) {
	env := newTestEnv(t, commandsConfig)

	out, _, err := env.run(t, "", "analyzers", "--format", "json")
	if err != nil {
		t.Fatalf("analyzers failed: %v", err)
	}
	var listing []analyzerListing
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("invalid json listing: %v", err)
	}
	byKind := make(map[string]analyzerListing, len(listing))
	for _, l := range listing {
		byKind[l.Kind] = l
	}
	if got := byKind["expression"].ConfiguredAs; len(got) != 1 || got[0] != "no-server-banner" {
		t.Fatalf("expected expression configured as no-server-banner, got %v", got)
	}
	if got := byKind["api-openapi-export"].Required; len(got) != 2 {
		t.Fatalf("expected openapi required keys, got %v", got)
	}

	out, _, err = env.run(t, "", "analyzers")
	if err != nil {
		t.Fatalf("analyzers failed: %v", err)
	}
	if !strings.HasPrefix(out, "KIND") || !strings.Contains(out, "cookie-secure") {
		t.Fatalf("unexpected table %q", out)
	}

	if _, _, err := env.run(t, "", "analyzers", "--format", "xml"); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestInfoAndVersion(t *testing.T) {
	env := newTestEnv(t, commandsConfig)

	out, _, err := env.run(t, "", "info")
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	for _, want := range []string{env.config + " ✓ (loaded)", "Analyzers:            3 configured", "[json] ✗ (not created yet)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "short", args: []string{"version"}, want: "seca-traffic version dev\n"},
		{name: "verbose", args: []string{"version", "-v"}, want: "Data Format: 1.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := env.run(t, "", tt.args...)
			if err != nil {
				t.Fatalf("version failed: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Fatalf("expected %q in %q", tt.want, out)
			}
		})
	}
}
