// Package export renders the shared response table into downloadable files.
package export

import (
	"strings"
	"unicode"

	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

// Renderers returns one renderer per supported export format.
func Renderers() map[domain.ExportFormat]ports.TableRenderer {
	return map[domain.ExportFormat]ports.TableRenderer{
		domain.FormatCSV:           NewCSVRenderer(),
		domain.FormatTableDocument: NewPDFRenderer(),
		domain.FormatWordTable:     NewDocxRenderer(),
		domain.FormatSpreadsheet:   NewXLSXRenderer(),
	}
}

// filename derives a download name from the table title.
func filename(title, ext string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		name = "survey"
	}
	return name + "-responses." + ext
}
