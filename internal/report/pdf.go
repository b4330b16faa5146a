package report

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// RenderPDF lays the results out as a plain A4 document. It is not a pixel-perfect HTML
// render but needs no CGO or browser.
func RenderPDF(r *Results) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("blockprobe report", false)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "blockprobe report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Target: %s", r.TargetType))
	pdf.Ln(8)
	if len(r.Targets) > 0 {
		pdf.Cell(0, 8, fmt.Sprintf("Targets: %s", strings.Join(r.Targets, ", ")))
		pdf.Ln(8)
	}
	if r.Seed != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Seed: %s", r.Seed))
		pdf.Ln(8)
	}
	all, _ := r.Summary()
	pdf.Cell(0, 8, fmt.Sprintf("PASS %d  FAIL %d  INCONCLUSIVE %d", all.Pass, all.Fail, all.Inconclusive))
	pdf.Ln(10)
	for _, f := range r.Findings {
		pdf.SetFont("Arial", "B", 12)
		title := fmt.Sprintf("%s [%s]", f.Name, f.Status)
		if f.Active { title += " ACTIVE" }
		pdf.MultiCell(0, 6, title, "", "L", false)
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 5, fmt.Sprintf("Oracle: %s  Category: %s  Severity: %s", groupOf(f), f.Category, f.Severity), "", "L", false)
		if f.Evidence != nil {
			pdf.SetFont("Courier", "", 9)
			pdf.MultiCell(0, 4, asJSON(f.Evidence), "", "L", false)
		}
		if len(f.Mitigations) > 0 {
			pdf.SetFont("Arial", "I", 10)
			for _, m := range f.Mitigations {
				pdf.MultiCell(0, 4, "- "+m, "", "L", false)
			}
		}
		pdf.Ln(2)
	}
	for _, n := range r.Notes {
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, "Note: "+n, "", "L", false)
	}
	return pdf
}

func RenderPDFToFile(r *Results, path string) error {
	return RenderPDF(r).OutputFileAndClose(path)
}
