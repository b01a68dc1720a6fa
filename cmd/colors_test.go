package cmd

import (
	"testing"

	"github.com/fatih/color"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
)

func disableColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = original
	})
}

func TestFormatStatusWithColor(t *testing.T) {
	disableColor(t)

	tests := []struct {
		name   string
		status string
		want   string
	}{
		{name: "success", status: "OK", want: "OK"},
		{name: "pass synonym", status: "passed", want: "passed"},
		{name: "failure", status: "FAILED", want: "FAILED"},
		{name: "warning", status: "empty", want: "empty"},
		{name: "unknown", status: "pending", want: "pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatStatusWithColor(tt.status); got != tt.want {
				t.Fatalf("formatStatusWithColor(%q) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestFormatRunLine(t *testing.T) {
	disableColor(t)

	tests := []struct {
		name    string
		summary analysis.Summary
		want    string
	}{
		{name: "passed", summary: analysis.Summary{Passed: 2, Matched: 2}, want: "passed   csp: 2 passed, 0 failed; 2 matched"},
		{name: "failed", summary: analysis.Summary{Passed: 1, Failed: 1, Matched: 2}, want: "failed   csp: 1 passed, 1 failed; 2 matched"},
		{name: "empty", summary: analysis.Summary{}, want: "empty    csp: 0 passed, 0 failed; 0 matched"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &analysis.Run{Analyzer: "csp", Summary: tt.summary}
			if got := formatRunLine(run); got != tt.want {
				t.Fatalf("formatRunLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
