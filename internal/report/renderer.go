// Package report renders frame health results as a static HTML status page.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/chambridge/pure-monitor/internal/health"
	"github.com/chambridge/pure-monitor/internal/status"
)

//go:embed templates/status.html.tmpl
var templates embed.FS

var pageTemplate = template.Must(template.New("status.html.tmpl").Funcs(template.FuncMap{
	"statusClass": func(s status.FrameStatus) string {
		if s.Status == health.StatusOK {
			return "ok"
		}
		return "warn"
	},
	"drivesClass": func(s status.FrameStatus) string {
		if s.FailedDrives == 0 {
			return "ok"
		}
		return "warn"
	},
}).ParseFS(templates, "templates/status.html.tmpl"))

// Page is everything shown on the status page. Statuses keep frame list order.
type Page struct {
	Statuses  []status.FrameStatus
	Hostname  string
	Generated time.Time
}

func Render(w io.Writer, page Page) error {
	if err := pageTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("failed to execute HTML template: %w", err)
	}
	return nil
}

// WriteFile replaces the page at path and leaves it world readable and executable.
func WriteFile(path string, page Page) error {
	var buf bytes.Buffer
	if err := Render(&buf, page); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o755); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// WriteFile only applies the mode on create.
	if err := os.Chmod(path, 0o755); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	return nil
}
