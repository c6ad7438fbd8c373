package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"fintrack/internal/summary"
)

var (
	headerColor = [3]int{31, 78, 121}
	lineColor   = [3]int{200, 200, 200}
	bodyColor   = [3]int{40, 40, 40}
)

// summaryPDF writes a one-page A4 report of c.
func summaryPDF(w io.Writer, c summary.Comparison) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  Period summary "+c.Range.String()), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	pdf.SetTextColor(bodyColor[0], bodyColor[1], bodyColor[2])
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, tr("Compared with "+c.PreviousRange.String()), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{55, 45, 45, 45}
	pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
	for i, row := range summaryRows(c) {
		if i == 1 {
			// The period row is already in the heading.
			continue
		}
		style, border := "", "B"
		if i == 0 {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		for j, cell := range row {
			align := "R"
			if j == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[j], 8, tr(cell), border, 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 10, tr("Generated "+time.Now().UTC().Format(time.RFC3339)), "", 0, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
