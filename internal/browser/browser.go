// Package browser feeds the recording engine from a real browser. The
// browser runs headful, the user interacts with the page while an
// injected listener script reports events through a cdp binding. The
// package only listens, it never drives synthetic input.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/stepsnap/stepsnap/internal/action"
	"github.com/stepsnap/stepsnap/internal/config"
	"github.com/stepsnap/stepsnap/internal/log"
	"github.com/stepsnap/stepsnap/internal/recorder"
)

// Recorder runs a live recording session in a browser tab.
type Recorder struct {
	cfg          *config.RecorderConfig
	engine       *recorder.Engine
	allocContext context.Context
	cancelAlloc  context.CancelFunc
}

func New(cfg *config.RecorderConfig, engine *recorder.Engine) *Recorder {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		// the user interacts with the real page
		chromedp.Flag("headless", false),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocContext, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	r := &Recorder{
		cfg:          cfg,
		engine:       engine,
		allocContext: allocContext,
		cancelAlloc:  cancelAlloc,
	}
	if r.cfg.CaptureSelector == "" {
		r.cfg.CaptureSelector = "body" // default
	}
	return r
}

func (r *Recorder) Cancel() {
	r.cancelAlloc()
}

// Record opens the start url and records until the context is
// cancelled or the browser is closed. The accumulated sequence stays
// in the engine after the recording stops.
func (r *Recorder) Record(ctx context.Context, urlStr string) error {
	logger := log.LoggerFromContext(ctx).With(slog.String("recorder", "browser"), slog.String("url", urlStr))

	tabCtx, cancelTab := chromedp.NewContext(r.allocContext)
	defer cancelTab()

	chromedp.ListenTarget(tabCtx, func(ev any) {
		called, ok := ev.(*runtime.EventBindingCalled)
		if !ok || called.Name != bindingName {
			return
		}
		r.handlePayload(tabCtx, logger, []byte(called.Payload))
	})

	if err := r.engine.Start(); err != nil {
		return err
	}
	defer r.engine.Stop()

	err := chromedp.Run(tabCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := runtime.AddBinding(bindingName).Do(ctx); err != nil {
				return err
			}
			_, err := page.AddScriptToEvaluateOnNewDocument(listenerScript).Do(ctx)
			return err
		}),
		chromedp.Navigate(urlStr),
	)
	if err != nil {
		return fmt.Errorf("error while opening recording tab: %v", err)
	}
	logger.Info("recording started, press ctrl-c to stop (F8 captures the page)")

	select {
	case <-ctx.Done():
		logger.Info("recording stopped")
	case <-tabCtx.Done():
		logger.Info("browser closed, recording stopped")
	}
	return nil
}

// handlePayload decodes one listener payload and feeds the engine.
// Invalid payloads are logged and dropped, they never stop a running
// recording.
func (r *Recorder) handlePayload(tabCtx context.Context, logger *slog.Logger, payload []byte) {
	var trigger struct {
		Trigger string `json:"trigger"`
	}
	if err := json.Unmarshal(payload, &trigger); err == nil && trigger.Trigger == "capture" {
		// capture commands cannot run inside the cdp event handler
		go func() {
			if ok, err := r.CaptureNow(tabCtx); err != nil {
				logger.Warn(fmt.Sprintf("error while capturing page state: %v", err))
			} else if !ok {
				logger.Warn(fmt.Sprintf("capture target %s not found, nothing captured", r.cfg.CaptureSelector))
			}
		}()
		return
	}

	a, err := action.Decode(payload)
	if err != nil {
		logger.Warn(fmt.Sprintf("dropping invalid event payload: %v", err))
		return
	}
	r.engine.Append(a)
	logger.Debug(fmt.Sprintf("recorded %s action", a.Kind()))
}

// CaptureNow serializes the outer markup of the designated container
// element and appends a capture action. If the selector matches
// nothing the call is a no-op, not an error: capture is opportunistic.
func (r *Recorder) CaptureNow(ctx context.Context) (bool, error) {
	var content string
	found := false
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(r.cfg.CaptureSelector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)).Do(ctx); err != nil {
			return err
		}
		if len(nodes) == 0 {
			return nil // nothing to do
		}
		html, err := dom.GetOuterHTML().WithNodeID(nodes[0].NodeID).Do(ctx)
		if err != nil {
			return err
		}
		content = html
		found = true
		return nil
	}))
	if err != nil || !found {
		return false, err
	}
	r.engine.Append(action.Capture{Timestamp: time.Now().UnixMilli(), Content: content})
	return true, nil
}
