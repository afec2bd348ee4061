package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// A4 in twentieths of a point.
const (
	a4LongEdge  uint64 = 16838
	a4ShortEdge uint64 = 11906
)

// DocxRenderer writes a Word document holding one bordered table whose
// header row repeats on every page.
type DocxRenderer struct{}

func NewDocxRenderer() *DocxRenderer {
	return &DocxRenderer{}
}

func (DocxRenderer) Render(table domain.Table) (*domain.ExportFile, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("failed to open docx template: %w", err)
	}
	defer doc.Close()

	if _, err := doc.AddHeading(table.Title, 0); err != nil {
		return nil, fmt.Errorf("failed to add docx title: %w", err)
	}

	tbl := doc.AddTable()
	tbl.Style("TableGrid")
	tbl.Width(5000, stypes.TableWidthPct)

	addTableRow(tbl, table.Header, true)
	for _, row := range table.Rows {
		addTableRow(tbl, row, false)
	}

	landscape(doc)

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write docx: %w", err)
	}

	return &domain.ExportFile{
		Filename:    filename(table.Title, "docx"),
		ContentType: docxContentType,
		Content:     buf.Bytes(),
	}, nil
}

func addTableRow(tbl *docx.Table, cells []string, header bool) {
	row := tbl.AddRow()
	if header {
		ct := tbl.GetCT()
		ct.RowContents[len(ct.RowContents)-1].Row.Property.Header = &ctypes.OnOff{}
	}
	for _, c := range cells {
		p := row.AddCell().AddEmptyPara()
		lines := strings.Split(c, "\n")
		for i, line := range lines {
			run := p.AddText(line)
			if header {
				run.Bold(true)
			}
			if i < len(lines)-1 {
				run.AddBreak(nil)
			}
		}
	}
}

func landscape(doc *docx.RootDoc) {
	body := doc.Document.Body
	if body.SectPr == nil {
		body.SectPr = ctypes.NewSectionProper()
	}
	w, h := a4LongEdge, a4ShortEdge
	body.SectPr.PageSize = &ctypes.PageSize{
		Width:  &w,
		Height: &h,
		Orient: stypes.PageOrientLandscape,
	}
}
