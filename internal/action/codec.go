package action

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// rawAction is the wire representation of any action. Cross-variant
// fields stay nil so that decoding can tell "absent" from "empty".
type rawAction struct {
	Type        Type       `json:"type"`
	Timestamp   float64    `json:"timestamp"`
	Coordinates *rawCoords `json:"coordinates,omitempty"`
	Element     *Element   `json:"element,omitempty"`
	Text        *string    `json:"text,omitempty"`
	Content     *string    `json:"content,omitempty"`
	Description string     `json:"description,omitempty"`
}

// rawCoords accepts coordinates as JSON numbers. Browsers emit them as
// floats, we only accept integral values.
type rawCoords struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (c *rawCoords) toCoordinates() (Coordinates, error) {
	for _, v := range []struct {
		name  string
		value float64
	}{{"x", c.X}, {"y", c.Y}} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return Coordinates{}, &ValidationError{Field: "coordinates." + v.name, Reason: "must be finite"}
		}
		if v.value != math.Trunc(v.value) {
			return Coordinates{}, &ValidationError{Field: "coordinates." + v.name, Reason: "must be an integer"}
		}
		if v.value > math.MaxInt32 || v.value < math.MinInt32 {
			return Coordinates{}, &ValidationError{Field: "coordinates." + v.name, Reason: "out of range"}
		}
	}
	return Coordinates{X: int(c.X), Y: int(c.Y)}, nil
}

// Decode validates a single raw action and constructs the matching
// variant. Unknown type tags are rejected, never coerced.
func Decode(raw []byte) (Action, error) {
	var r rawAction
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&r); err != nil {
		return nil, &ValidationError{Field: "action", Reason: err.Error()}
	}
	if math.IsNaN(r.Timestamp) || math.IsInf(r.Timestamp, 0) {
		return nil, &ValidationError{Field: "timestamp", Reason: "must be finite"}
	}
	ts := int64(r.Timestamp)

	switch r.Type {
	case ClickType:
		if r.Coordinates == nil {
			return nil, &ValidationError{Field: "coordinates", Reason: "required for click actions"}
		}
		coords, err := r.Coordinates.toCoordinates()
		if err != nil {
			return nil, err
		}
		return Click{Timestamp: ts, Coordinates: coords, Element: r.Element, Description: r.Description}, nil
	case TextType:
		if r.Text == nil {
			return nil, &ValidationError{Field: "text", Reason: "required for type actions"}
		}
		return TypeText{Timestamp: ts, Text: *r.Text, Description: r.Description}, nil
	case CaptureType:
		if r.Content == nil {
			return nil, &ValidationError{Field: "content", Reason: "required for capture actions"}
		}
		return Capture{Timestamp: ts, Content: *r.Content, Description: r.Description}, nil
	case "":
		return nil, &ValidationError{Field: "type", Reason: "missing"}
	default:
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown action type '%s'", r.Type)}
	}
}

// DecodeSlice decodes a JSON array of raw actions. A single invalid
// element rejects the whole slice, nothing is partially accepted.
func DecodeSlice(raw []byte) ([]Action, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, &ValidationError{Field: "actions", Reason: err.Error()}
	}
	actions := make([]Action, 0, len(elements))
	for i, e := range elements {
		a, err := Decode(e)
		if err != nil {
			return nil, fmt.Errorf("error while decoding action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// Encode serializes actions to a compact JSON array without escaping
// html characters, so that captured markup survives a round trip
// unchanged.
func Encode(actions []Action) ([]byte, error) {
	if actions == nil {
		actions = []Action{}
	}
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(actions); err != nil {
		return nil, fmt.Errorf("error while encoding actions: %v", err)
	}
	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}

func (c Click) MarshalJSON() ([]byte, error) {
	coords := rawCoords{X: float64(c.Coordinates.X), Y: float64(c.Coordinates.Y)}
	return marshalRaw(rawAction{
		Type:        ClickType,
		Timestamp:   float64(c.Timestamp),
		Coordinates: &coords,
		Element:     c.Element,
		Description: c.Description,
	})
}

func (t TypeText) MarshalJSON() ([]byte, error) {
	return marshalRaw(rawAction{
		Type:        TextType,
		Timestamp:   float64(t.Timestamp),
		Text:        &t.Text,
		Description: t.Description,
	})
}

func (c Capture) MarshalJSON() ([]byte, error) {
	return marshalRaw(rawAction{
		Type:        CaptureType,
		Timestamp:   float64(c.Timestamp),
		Content:     &c.Content,
		Description: c.Description,
	})
}

func marshalRaw(r rawAction) ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(r); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}
