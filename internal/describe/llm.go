package describe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/antchfx/jsonquery"
	"github.com/stepsnap/stepsnap/internal/action"
	"github.com/stepsnap/stepsnap/internal/config"
	"github.com/stepsnap/stepsnap/internal/log"
)

const systemPrompt = "You describe one recorded browser interaction in a single short sentence. " +
	"Respond with the sentence only, no quotes, no markdown."

// LLM asks an OpenAI-style chat completions endpoint for a one-line
// description. Every failure falls back to the deterministic summary,
// service errors never reach an export.
type LLM struct {
	cfg    *config.DescriberConfig
	client *http.Client
}

func newLLM(cfg *config.DescriberConfig) *LLM {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout == 0 {
		timeout = 10 * time.Second // default
	}
	return &LLM{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (l *LLM) Describe(ctx context.Context, a action.Action) (string, error) {
	logger := log.LoggerFromContext(ctx).With(slog.String("describer", "llm"))
	text, err := l.complete(ctx, a)
	if err != nil {
		logger.Warn(fmt.Sprintf("falling back to synthesized description: %v", err))
		return action.Summary(a), nil
	}
	return text, nil
}

func (l *LLM) complete(ctx context.Context, a action.Action) (string, error) {
	encoded, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	payload := map[string]any{
		"model": l.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": string(encoded)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.cfg.Endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.cfg.APIKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error while calling description service: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("description service returned status code %d", resp.StatusCode)
	}

	// pick the completion text out of the response without modelling
	// the whole payload
	doc, err := jsonquery.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error while parsing description service response: %v", err)
	}
	node := jsonquery.FindOne(doc, "//choices/*[1]/message/content")
	if node == nil {
		return "", fmt.Errorf("description service response contains no completion")
	}
	text := strings.TrimSpace(node.InnerText())
	if text == "" {
		return "", fmt.Errorf("description service returned an empty completion")
	}
	return text, nil
}
