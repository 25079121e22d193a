package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/stepsnap/stepsnap/internal/config"
	"github.com/stepsnap/stepsnap/internal/log"
)

// ChromeRenderer renders fragments in a headless browser. The exec
// allocator lives for the lifetime of the renderer, each render runs
// in a fresh tab with a fixed-width offscreen viewport.
type ChromeRenderer struct {
	cfg          *config.RendererConfig
	allocContext context.Context
	cancelAlloc  context.CancelFunc
}

func NewChromeRenderer(cfg *config.RendererConfig) *ChromeRenderer {
	if cfg.Width == 0 {
		cfg.Width = 1280 // default
	}
	if cfg.SettleMS == 0 {
		cfg.SettleMS = 500 // default
	}
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(cfg.Width, 800),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ChromedpPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromedpPath))
	}
	allocContext, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeRenderer{
		cfg:          cfg,
		allocContext: allocContext,
		cancelAlloc:  cancelAlloc,
	}
}

func (r *ChromeRenderer) Cancel() {
	r.cancelAlloc()
}

func (r *ChromeRenderer) Render(ctx context.Context, fragment string) ([]byte, error) {
	logger := log.LoggerFromContext(ctx).With(slog.String("renderer", "chrome"))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	document, err := prepareFragment(fragment)
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(r.allocContext)
	defer cancel()

	dataURL := "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(document))
	settle := time.Duration(r.cfg.SettleMS) * time.Millisecond
	logger.Debug(fmt.Sprintf("rendering fragment of %d chars at width %d", len(fragment), r.cfg.Width))

	var buf []byte
	err = chromedp.Run(tabCtx,
		emulation.SetDeviceMetricsOverride(int64(r.cfg.Width), 800, 1, false),
		chromedp.Navigate(dataURL),
		chromedp.Sleep(settle),
		// quality 100 makes chromedp capture png instead of jpeg
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("error while rendering capture: %v", err)
	}
	return buf, nil
}
