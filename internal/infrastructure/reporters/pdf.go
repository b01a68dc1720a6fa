package reporters

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/timeline"
)

// PDFReporter renders the summary table and failure tallies as an A4 PDF.
type PDFReporter struct {
	// Now stamps the report; defaults to time.Now.
	Now func() time.Time
}

func (PDFReporter) Format() string { return "pdf" }

func (r PDFReporter) WriteReport(w io.Writer, _ *timeline.Timeline, runs []*analysis.Run) error {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreator("seca-traffic", false)
	pdf.SetCreationDate(now())
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Traffic Analysis Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", formatShortTimestamp(now())), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// summary table
	widths := []float64{115, 25, 25, 25}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, title := range []string{"Analyzer", "Passed", "Failed", "Matched"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, title, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	passed, failed := 0, 0
	for _, run := range runs {
		s := run.Summary
		passed += s.Passed
		failed += s.Failed
		if s.Failed > 0 {
			pdf.SetTextColor(180, 0, 0)
		}
		pdf.CellFormat(widths[0], 6, tr(truncate(run.Description, 70)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprint(s.Passed), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprint(s.Failed), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprint(s.Matched), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %d passed, %d failed", passed, failed), "", 1, "", false, 0, "")
	pdf.Ln(4)

	for _, run := range runs {
		failures := run.FailuresByKind()
		if len(failures) == 0 {
			continue
		}
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 7, tr(run.Description), "", 1, "", true, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, fc := range failures {
			pdf.CellFormat(0, 5, fmt.Sprintf("  %s: %d", fc.Kind, fc.Count), "", 1, "", false, 0, "")
		}
		pdf.Ln(2)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return pdf.Output(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
