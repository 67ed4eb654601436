package performance

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// RecordPDF renders a printable summary of an appraisal record.
func RecordPDF(r Record, employeeName, cycleName string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Performance Appraisal")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(40, 7, fmt.Sprintf("Employee: %s", orDash(employeeName)))
	pdf.Ln(7)
	pdf.Cell(40, 7, fmt.Sprintf("Cycle: %s", orDash(cycleName)))
	pdf.Ln(7)
	pdf.Cell(40, 7, fmt.Sprintf("Status: %s", r.Status))
	pdf.Ln(7)
	if r.HRPublishedAt != nil {
		pdf.Cell(40, 7, fmt.Sprintf("Published: %s", r.HRPublishedAt.Format(time.DateOnly)))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(70, 8, "Criterion", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 8, "Rating", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Weighted", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 8, "Label", "1", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, rating := range r.Ratings {
		weighted := "-"
		if rating.WeightedScore != nil {
			weighted = fmt.Sprintf("%.2f", *rating.WeightedScore)
		}
		pdf.CellFormat(70, 7, rating.Title, "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.1f", rating.RatingValue), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 7, weighted, "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 7, rating.RatingLabel, "1", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	total := "-"
	if r.TotalScore != nil {
		total = fmt.Sprintf("%.2f", *r.TotalScore)
	}
	pdf.Cell(40, 8, fmt.Sprintf("Total score: %s  %s", total, r.OverallRatingLabel))
	pdf.Ln(10)

	for _, section := range []struct{ title, body string }{
		{"Summary", r.ManagerSummary},
		{"Strengths", r.Strengths},
		{"Improvement areas", r.ImprovementAreas},
	} {
		if section.body == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(40, 7, section.title)
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, section.body, "", "", false)
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
