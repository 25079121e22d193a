// Package export renders a frozen session snapshot into shareable
// artifacts: lossless json, a self-contained html report and a
// paginated pdf with one page per rendered capture.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/goodsign/monday"
	"github.com/stepsnap/stepsnap/internal/render"
	"github.com/stepsnap/stepsnap/internal/session"
)

// ErrNoActions is returned before any work begins when a session holds
// no actions. Callers check non-emptiness, there is no partial export.
var ErrNoActions = errors.New("cannot export a session without actions")

// Exporter renders a snapshot into one target format.
type Exporter interface {
	Export(ctx context.Context, snapshot *session.Snapshot) ([]byte, error)
	ContentType() string
	Ext() string
}

// Format encapsulates the export format.
// See below constants for possible formats.
type Format string

const (
	JSONFormat Format = "json"
	HTMLFormat Format = "html"
	PDFFormat  Format = "pdf"
)

// Options carries the collaborators an exporter may need. Formats
// without captures to render ignore the renderer.
type Options struct {
	Renderer render.Renderer
	Locale   string
}

func (o Options) locale() monday.Locale {
	if o.Locale == "" {
		return monday.LocaleEnUS
	}
	return monday.Locale(o.Locale)
}

// NewExporter returns a new exporter depending on the format.
func NewExporter(format Format, opts Options) (Exporter, error) {
	switch format {
	case JSONFormat:
		return NewJSONExporter(), nil
	case HTMLFormat:
		return NewHTMLExporter(opts), nil
	case PDFFormat:
		return NewPDFExporter(opts), nil
	default:
		return nil, fmt.Errorf("exporter of type '%s' not implemented", format)
	}
}

// Filename derives a deterministic artifact name. Colons are invalid
// in filenames on common filesystems, so the timestamp variant uses
// dashes throughout.
func Filename(id string, t time.Time, ext string) string {
	name := id
	if name == "" {
		name = t.Format("2006-01-02T15-04-05")
	}
	return fmt.Sprintf("action-recording-%s.%s", name, ext)
}

// Save writes an exported artifact into the given directory and
// returns the full path.
func Save(dir string, content []byte, filename string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	filepath := path.Join(dir, filename)
	if err := os.WriteFile(filepath, content, 0644); err != nil {
		return "", fmt.Errorf("error while writing artifact to file: %v", err)
	}
	return filepath, nil
}
