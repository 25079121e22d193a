package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/go-pdf/fpdf"
	"github.com/goodsign/monday"
	"github.com/stepsnap/stepsnap/internal/action"
	"github.com/stepsnap/stepsnap/internal/log"
	"github.com/stepsnap/stepsnap/internal/session"
)

// PDFExporter produces an A4 document: a header block, the
// auto-paginated action table and one page per non-empty capture, the
// rendered image scaled to the content width.
type PDFExporter struct {
	opts Options
}

func NewPDFExporter(opts Options) *PDFExporter {
	return &PDFExporter{opts: opts}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }
func (e *PDFExporter) Ext() string         { return "pdf" }

const (
	pdfBottomMargin  = 15.0
	pdfCaptionHeight = 8.0
	pdfLineHeight    = 6.0
)

func (e *PDFExporter) Export(ctx context.Context, snapshot *session.Snapshot) ([]byte, error) {
	if len(snapshot.Actions) == 0 {
		return nil, ErrNoActions
	}
	logger := log.LoggerFromContext(ctx).With(slog.String("exporter", string(PDFFormat)))
	locale := e.opts.locale()

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(snapshot.Title, true)
	pdf.SetAutoPageBreak(true, pdfBottomMargin)
	pdf.AddPage()

	pageWidth, pageHeight := pdf.GetPageSize()
	marginLeft, _, marginRight, _ := pdf.GetMargins()
	contentWidth := pageWidth - marginLeft - marginRight

	// header block
	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(contentWidth, 8, tr(snapshot.Title), "", "L", false)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(107, 114, 128)
	meta := fmt.Sprintf("generated %s | %d actions", formatTime(snapshot.GeneratedAt.UnixMilli(), locale), len(snapshot.Actions))
	pdf.CellFormat(contentWidth, pdfLineHeight, tr(meta), "", 1, "L", false, 0, "")
	pdf.SetTextColor(31, 36, 48)
	if snapshot.Description != "" {
		pdf.Ln(2)
		pdf.MultiCell(contentWidth, 5, tr(snapshot.Description), "", "L", false)
	}
	pdf.Ln(4)

	e.writeTable(pdf, tr, snapshot, contentWidth, locale)

	// capture pages, strictly sequential and in action order; without
	// a renderer the document simply carries no capture pages
	first := true
	for i, a := range snapshot.Actions {
		capture, ok := a.(action.Capture)
		if !ok || capture.Content == "" || e.opts.Renderer == nil {
			continue
		}
		// cancellation point; caption and image are written together
		// below, so an abandoned export never leaves an image without
		// its caption
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if first {
			// only break if the caption would overlap the bottom margin
			if pdf.GetY()+pdfCaptionHeight > pageHeight-pdfBottomMargin {
				pdf.AddPage()
			}
			first = false
		} else {
			pdf.AddPage()
		}

		caption := fmt.Sprintf("Step %d - %s", i+1, formatTime(capture.Timestamp, locale))
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentWidth, pdfCaptionHeight, tr(caption), "", 1, "L", false, 0, "")

		img, err := e.opts.Renderer.Render(ctx, capture.Content)
		if err == nil {
			err = e.writeImage(pdf, img, i+1, contentWidth, pageHeight)
		}
		if err != nil {
			// one bad capture degrades one page, never the export
			logger.Warn(fmt.Sprintf("error while rendering capture for step %d: %v", i+1, err))
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(220, 38, 38)
			pdf.MultiCell(contentWidth, pdfLineHeight, tr(fmt.Sprintf("Failed to render capture: %v", err)), "", "L", false)
			pdf.SetTextColor(31, 36, 48)
			continue
		}
	}

	buffer := &bytes.Buffer{}
	if err := pdf.Output(buffer); err != nil {
		return nil, fmt.Errorf("error while writing pdf: %v", err)
	}
	return buffer.Bytes(), nil
}

func (e *PDFExporter) writeTable(pdf *fpdf.Fpdf, tr func(string) string, snapshot *session.Snapshot, contentWidth float64, locale monday.Locale) {
	indexWidth := 12.0
	typeWidth := 25.0
	timeWidth := 45.0
	descriptionWidth := contentWidth - indexWidth - typeWidth - timeWidth

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(249, 250, 251)
	pdf.CellFormat(indexWidth, pdfLineHeight+1, "#", "1", 0, "L", true, 0, "")
	pdf.CellFormat(typeWidth, pdfLineHeight+1, "Type", "1", 0, "L", true, 0, "")
	pdf.CellFormat(descriptionWidth, pdfLineHeight+1, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(timeWidth, pdfLineHeight+1, "Time", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, r := range buildRows(snapshot.Actions, locale) {
		// rows past the bottom margin paginate automatically
		pdf.CellFormat(indexWidth, pdfLineHeight, fmt.Sprintf("%d", r.Index), "1", 0, "L", false, 0, "")
		pdf.CellFormat(typeWidth, pdfLineHeight, tr(r.Type), "1", 0, "L", false, 0, "")
		pdf.CellFormat(descriptionWidth, pdfLineHeight, tr(r.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(timeWidth, pdfLineHeight, tr(r.Time), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

// writeImage embeds a rendered capture scaled to fit both the content
// width and the remaining page height. A rejected image clears the
// document error so one bad capture cannot corrupt later pages.
func (e *PDFExporter) writeImage(pdf *fpdf.Fpdf, img []byte, step int, contentWidth, pageHeight float64) error {
	name := fmt.Sprintf("capture-%d", step)
	options := fpdf.ImageOptions{ImageType: "PNG"}
	info := pdf.RegisterImageOptionsReader(name, options, bytes.NewReader(img))
	if err := pdf.Error(); err != nil {
		pdf.ClearError()
		return err
	}
	if info == nil {
		return fmt.Errorf("image could not be registered")
	}
	width := contentWidth
	height := width * info.Height() / info.Width()
	available := pageHeight - pdfBottomMargin - pdf.GetY()
	if height > available {
		height = available
		width = height * info.Width() / info.Height()
	}
	pdf.ImageOptions(name, -1, -1, width, height, true, options, 0, "")
	return nil
}
