// Package pdf renders report documents. The font must cover Unicode text,
// so a TTF file is required; its absence is a startup failure, not a
// per-report error.
package pdf

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-pdf/fpdf"

	"leavebot/core/logger"
)

const fontFamily = "ReportFont"

// Renderer produces A4 PDF documents from a title and ordered lines.
type Renderer struct {
	fontPath string
}

// New verifies the font file is present and readable.
func New(fontPath string) (*Renderer, error) {
	info, err := os.Stat(fontPath)
	if err != nil {
		return nil, fmt.Errorf("pdf: font %s: %w", fontPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("pdf: font %s is a directory", fontPath)
	}
	return &Renderer{fontPath: fontPath}, nil
}

// Render lays the title and lines out on auto-paginated A4 pages.
func (r *Renderer) Render(title string, lines []string) ([]byte, error) {
	start := time.Now()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddUTF8Font(fontFamily, "", r.fontPath)
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()

	doc.SetFont(fontFamily, "", 14)
	doc.MultiCell(0, 8, title, "", "L", false)
	doc.Ln(4)

	doc.SetFont(fontFamily, "", 10)
	for _, line := range lines {
		doc.MultiCell(0, 6, line, "", "L", false)
		doc.Ln(1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render %q: %w", title, err)
	}

	if logger.PDF != nil {
		logger.PDF.Debug("document rendered",
			slog.String("event", "pdf.render"),
			slog.Int("lines", len(lines)),
			slog.Int("bytes", buf.Len()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}
	return buf.Bytes(), nil
}
