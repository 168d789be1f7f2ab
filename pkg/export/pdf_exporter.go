package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 277.0 // A4 landscape minus margins
	pdfRowHeight  = 6.0
	pdfHeadHeight = 7.0
)

// PDFExporter renders tables into a landscape A4 document. The header row is
// repeated on every page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays the table out with column widths proportional to Column.Width.
// Cells that do not fit are truncated.
func (e *PDFExporter) Render(table Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	widths := columnWidths(table.Columns)
	_, pageHeight := pdf.GetPageSize()

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, c := range table.Columns {
			pdf.CellFormat(widths[i], pdfHeadHeight, tr(c.Header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}

	pdf.AddPage()
	if table.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(table.Title), "", 1, "C", false, 0, "")
		pdf.Ln(2)
	}
	header()

	for _, row := range table.Rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-12 {
			pdf.AddPage()
			header()
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], pdfRowHeight, fit(pdf, tr(cell), widths[i]-2), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(columns []Column) []float64 {
	var total float64
	for _, c := range columns {
		total += weight(c)
	}
	widths := make([]float64, len(columns))
	for i, c := range columns {
		widths[i] = pdfPageWidth * weight(c) / total
	}
	return widths
}

func weight(c Column) float64 {
	if c.Width <= 0 {
		return 1
	}
	return c.Width
}

func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
