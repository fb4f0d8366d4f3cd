package report

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"time"

	"github.com/yuin/goldmark"

	"MarketRadar/internal/ports"
)

// HTMLWriter renders markdown reports into standalone HTML documents on
// disk, one file per day.
type HTMLWriter struct {
	dir string
}

var _ ports.ReportWriter = (*HTMLWriter)(nil)

// NewHTMLWriter stores reports under dir, created if missing.
func NewHTMLWriter(dir string) *HTMLWriter {
	if dir == "" {
		dir = "."
	}
	return &HTMLWriter{dir: dir}
}

// Write renders the markdown and writes the document, returning its path.
func (w *HTMLWriter) Write(title, markdown string, generatedAt time.Time) (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>
<h1>%s</h1>
<p>Generated at %s</p>
<hr>
%s</body>
</html>
`,
		html.EscapeString(title),
		html.EscapeString(title),
		generatedAt.Format("2006-01-02 15:04:05"),
		body.String())

	path := filepath.Join(w.dir, fmt.Sprintf("Market_Report_%s.html", generatedAt.Format("2006-01-02")))
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
