package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

func WritePDF(w io.Writer, records []Record) error {
	return writePDF(w, records, true)
}

func writePDF(w io.Writer, records []Record, compress bool) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetTitle("Solar Rooftop Analysis", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Solar Rooftop Analysis", "", 1, "L", false, 0, "")

	for _, r := range records {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("Rooftop %d Analysis", r.RooftopID)), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		for _, f := range r.fields() {
			if f.name == "recommendations" {
				continue
			}
			pdf.MultiCell(0, 5, tr(f.name+": "+formatValue(f.value)), "", "L", false)
		}

		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "recommendations:", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, rec := range r.Recommendations {
			pdf.SetX(pdf.GetX() + 4)
			pdf.MultiCell(0, 5, tr("- "+rec), "", "L", false)
		}
	}

	return pdf.Output(w)
}
