package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

const (
	pdfContentType = "application/pdf"
	pdfFontFamily  = "DejaVu"
	pdfFontSize    = 8
	pdfLineHeight  = 4.5
	pdfMargin      = 10.0
)

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	dejaVuRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	dejaVuBold []byte
)

// PDFRenderer lays the table out on landscape A4 pages. The header row is
// repeated at the top of every page and pages are numbered. Text is set in an
// embedded Unicode font so cells keep every character the CSV output carries.
type PDFRenderer struct {
	compress bool
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{compress: true}
}

func (r *PDFRenderer) Render(table domain.Table) (*domain.ExportFile, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle(pdfText(table.Title), true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AliasNbPages("")
	pdf.AddUTF8FontFromBytes(pdfFontFamily, "", dejaVuRegular)
	pdf.AddUTF8FontFromBytes(pdfFontFamily, "B", dejaVuBold)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to load pdf font: %w", err)
	}

	pageW, pageH := pdf.GetPageSize()
	cols := len(table.Header)
	if cols == 0 {
		cols = 1
	}
	colW := (pageW - 2*pdfMargin) / float64(cols)
	bottom := pageH - pdfMargin - pdfLineHeight

	pdf.SetHeaderFunc(func() {
		pdf.SetFont(pdfFontFamily, "B", pdfFontSize+4)
		pdf.CellFormat(0, 8, pdfText(table.Title), "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFontFamily, "B", pdfFontSize)
		pdf.SetFillColor(230, 230, 230)
		drawRow(pdf, table.Header, colW, true)
		pdf.SetFont(pdfFontFamily, "", pdfFontSize)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin)
		pdf.SetFont(pdfFontFamily, "", pdfFontSize)
		pdf.CellFormat(0, pdfLineHeight, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	for _, row := range table.Rows {
		if pdf.GetY()+rowHeight(pdf, row, colW) > bottom {
			pdf.AddPage()
		}
		drawRow(pdf, row, colW, false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}

	return &domain.ExportFile{
		Filename:    filename(table.Title, "pdf"),
		ContentType: pdfContentType,
		Content:     buf.Bytes(),
	}, nil
}

// pdfText replaces runes outside the Basic Multilingual Plane, which the
// font width tables cannot index.
func pdfText(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return unicode.ReplacementChar
		}
		return r
	}, s)
}

func rowHeight(pdf *fpdf.Fpdf, cells []string, colW float64) float64 {
	lines := 1
	for _, c := range cells {
		if n := len(pdf.SplitText(pdfText(c), colW-2)); n > lines {
			lines = n
		}
	}
	return float64(lines) * pdfLineHeight
}

func drawRow(pdf *fpdf.Fpdf, cells []string, colW float64, fill bool) {
	h := rowHeight(pdf, cells, colW)
	x, y := pdf.GetXY()
	for i, c := range cells {
		cx := x + float64(i)*colW
		style := "D"
		if fill {
			style = "FD"
		}
		pdf.Rect(cx, y, colW, h, style)
		pdf.SetXY(cx+1, y)
		pdf.MultiCell(colW-2, pdfLineHeight, pdfText(c), "", "L", false)
	}
	pdf.SetXY(x, y+h)
}
