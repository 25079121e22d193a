// Package describe produces natural-language descriptions of recorded
// actions. A deterministic fallback is always available; the optional
// LLM client decorates stored sessions when an api key is configured.
package describe

import (
	"context"

	"github.com/stepsnap/stepsnap/internal/action"
	"github.com/stepsnap/stepsnap/internal/config"
)

type Describer interface {
	Describe(ctx context.Context, a action.Action) (string, error)
}

// Static synthesizes descriptions from the action's fields alone. It
// needs no network and never fails.
type Static struct{}

func (Static) Describe(ctx context.Context, a action.Action) (string, error) {
	return action.Summary(a), nil
}

// New returns the configured describer. Availability of the LLM is a
// construction-time decision: without an api key the static describer
// is returned, there is no inspectable global state.
func New(cfg *config.DescriberConfig) Describer {
	if cfg == nil || cfg.APIKey == "" {
		return Static{}
	}
	return newLLM(cfg)
}
