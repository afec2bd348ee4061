package export

import (
	"bytes"
	"strings"

	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

const csvContentType = "text/csv; charset=utf-8"

// CSVRenderer writes RFC 4180 text with every field quoted. encoding/csv
// only quotes fields that need it, so quoting is done here.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

func (CSVRenderer) Render(table domain.Table) (*domain.ExportFile, error) {
	var buf bytes.Buffer
	writeCSVRecord(&buf, table.Header)
	for _, row := range table.Rows {
		writeCSVRecord(&buf, row)
	}

	return &domain.ExportFile{
		Filename:    filename(table.Title, "csv"),
		ContentType: csvContentType,
		Content:     buf.Bytes(),
	}, nil
}

func writeCSVRecord(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteString("\r\n")
}
