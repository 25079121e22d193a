package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stepsnap/stepsnap/internal/action"
	"github.com/stepsnap/stepsnap/internal/session"
)

// JSONExporter re-serializes the snapshot losslessly: decoding its
// output reproduces the action sequence exactly.
type JSONExporter struct{}

func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

func (e *JSONExporter) ContentType() string { return "application/json" }
func (e *JSONExporter) Ext() string         { return "json" }

type jsonDocument struct {
	Timestamp   time.Time       `json:"timestamp"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Actions     []action.Action `json:"actions"`
}

func (e *JSONExporter) Export(ctx context.Context, snapshot *session.Snapshot) ([]byte, error) {
	if len(snapshot.Actions) == 0 {
		return nil, ErrNoActions
	}
	document := jsonDocument{
		Timestamp:   snapshot.GeneratedAt,
		Title:       snapshot.Title,
		Description: snapshot.Description,
		Actions:     snapshot.Actions,
	}

	// Marshal without escaping html characters so captured markup
	// survives the round trip, then pretty-print.
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(document); err != nil {
		return nil, fmt.Errorf("error while encoding session: %v", err)
	}

	var indentBuffer bytes.Buffer
	if err := json.Indent(&indentBuffer, buffer.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("error while indenting json: %v", err)
	}
	return indentBuffer.Bytes(), nil
}
