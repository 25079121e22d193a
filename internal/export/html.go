package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/stepsnap/stepsnap/internal/action"
	"github.com/stepsnap/stepsnap/internal/log"
	"github.com/stepsnap/stepsnap/internal/session"
	"github.com/stepsnap/stepsnap/internal/timeline"
)

// HTMLExporter produces one self-contained document: inline css only,
// rendered captures embedded as base64 data uris, no external fetches.
type HTMLExporter struct {
	opts Options
}

func NewHTMLExporter(opts Options) *HTMLExporter {
	return &HTMLExporter{opts: opts}
}

func (e *HTMLExporter) ContentType() string { return "text/html; charset=utf-8" }
func (e *HTMLExporter) Ext() string         { return "html" }

type htmlTimelineRow struct {
	Step     int
	Duration string
	Weight   float64
}

type htmlFigure struct {
	Step    int
	Time    string
	DataURI template.URL
	Err     string
}

type htmlDocument struct {
	Title         string
	Description   string
	Generated     string
	ActionsCount  int
	TotalDuration int
	Timeline      []htmlTimelineRow
	Rows          []row
	Figures       []htmlFigure
}

func (e *HTMLExporter) Export(ctx context.Context, snapshot *session.Snapshot) ([]byte, error) {
	if len(snapshot.Actions) == 0 {
		return nil, ErrNoActions
	}
	logger := log.LoggerFromContext(ctx).With(slog.String("exporter", string(HTMLFormat)))
	locale := e.opts.locale()

	document := htmlDocument{
		Title:         snapshot.Title,
		Description:   snapshot.Description,
		Generated:     formatTime(snapshot.GeneratedAt.UnixMilli(), locale),
		ActionsCount:  len(snapshot.Actions),
		TotalDuration: timeline.TotalDurationSeconds(snapshot.Actions),
		Rows:          buildRows(snapshot.Actions, locale),
	}
	for _, entry := range timeline.Reconstruct(snapshot.Actions) {
		duration := entry.DurationFormatted
		if !entry.Known() {
			duration = "–"
		}
		document.Timeline = append(document.Timeline, htmlTimelineRow{
			Step:     entry.StepIndex,
			Duration: duration,
			Weight:   entry.WeightPercent,
		})
	}

	// strictly sequential, one capture at a time, in action order;
	// without a renderer the report simply carries no figures
	for i, a := range snapshot.Actions {
		capture, ok := a.(action.Capture)
		if !ok || capture.Content == "" || e.opts.Renderer == nil {
			continue
		}
		// cancellation point at the capture boundary
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		figure := htmlFigure{Step: i + 1, Time: formatTime(capture.Timestamp, locale)}
		img, err := e.opts.Renderer.Render(ctx, capture.Content)
		if err != nil {
			// one bad capture degrades one slot, never the export
			logger.Warn(fmt.Sprintf("error while rendering capture for step %d: %v", i+1, err))
			figure.Err = fmt.Sprintf("Failed to render capture: %v", err)
		} else {
			figure.DataURI = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img))
		}
		document.Figures = append(document.Figures, figure)
	}

	buffer := &bytes.Buffer{}
	if err := htmlTemplate.Execute(buffer, document); err != nil {
		return nil, fmt.Errorf("error while executing report template: %v", err)
	}
	return buffer.Bytes(), nil
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1f2430; max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
h1 { margin-bottom: 0.25rem; }
.meta { color: #6b7280; margin-bottom: 1.5rem; }
.description { background: #f3f4f6; border-left: 4px solid #6366f1; padding: 0.75rem 1rem; margin-bottom: 1.5rem; }
.timeline { margin-bottom: 2rem; }
.timeline .bar-row { display: flex; align-items: center; margin: 0.25rem 0; }
.timeline .bar { background: #6366f1; height: 0.75rem; border-radius: 0.375rem; margin-right: 0.5rem; }
.timeline .label { color: #6b7280; font-size: 0.875rem; white-space: nowrap; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
th, td { border: 1px solid #e5e7eb; padding: 0.5rem 0.75rem; text-align: left; }
th { background: #f9fafb; }
figure { margin: 2rem 0; }
figure img { max-width: 100%; border: 1px solid #e5e7eb; }
figcaption { color: #6b7280; font-size: 0.875rem; margin-bottom: 0.5rem; }
.render-error { color: #dc2626; font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">generated {{.Generated}} | {{.ActionsCount}} actions</p>
{{if .Description}}<div class="description">{{.Description}}</div>{{end}}
{{if .Timeline}}
<div class="timeline">
<h2>Timeline ({{.TotalDuration}}s total)</h2>
{{range .Timeline}}<div class="bar-row"><div class="bar" style="width: {{.Weight}}%"></div><span class="label">step {{.Step}}: {{.Duration}}</span></div>
{{end}}</div>
{{end}}
<table>
<thead><tr><th>#</th><th>Type</th><th>Description</th><th>Time</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Index}}</td><td>{{.Type}}</td><td>{{.Description}}</td><td>{{.Time}}</td></tr>
{{end}}</tbody>
</table>
{{range .Figures}}
<figure>
<figcaption>Step {{.Step}} – {{.Time}}</figcaption>
{{if .Err}}<p class="render-error">{{.Err}}</p>{{else}}<img src="{{.DataURI}}" alt="Capture of step {{.Step}}">{{end}}
</figure>
{{end}}
</body>
</html>
`))
