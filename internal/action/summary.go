package action

import (
	"fmt"

	"github.com/stepsnap/stepsnap/internal/utils"
)

const maxRefTextLength = 20

// Summary synthesizes a human readable description from an action's
// fields. It is deterministic and needs no external service, exports
// use it whenever an action carries no description of its own.
func Summary(a Action) string {
	switch v := a.(type) {
	case Click:
		return fmt.Sprintf("Click on %s at (%d, %d)", clickRef(v.Element), v.Coordinates.X, v.Coordinates.Y)
	case TypeText:
		return fmt.Sprintf("Type \"%s\" in input field", v.Text)
	case Capture:
		return fmt.Sprintf("Capture page state (%d chars)", len(v.Content))
	}
	return fmt.Sprintf("%s action", a.Kind())
}

// clickRef picks the most specific available reference to the clicked
// element. Truncation only affects the rendered reference, never the
// stored element text.
func clickRef(e *Element) string {
	if e == nil {
		return "element"
	}
	if e.ID != "" {
		return fmt.Sprintf("#%s", e.ID)
	}
	if e.Text != "" {
		return fmt.Sprintf("\"%s\"", utils.ShortenString(e.Text, maxRefTextLength))
	}
	if e.TagName != "" {
		return e.TagName
	}
	return "element"
}
