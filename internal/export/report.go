package export

import (
	"time"

	"github.com/goodsign/monday"
	"github.com/stepsnap/stepsnap/internal/action"
)

const timeLayout = "Jan 2, 2006 15:04:05"

// row is one line of the tabular report shared by the html and pdf
// exporters.
type row struct {
	Index       int
	Type        string
	Description string
	Time        string
}

// buildRows synthesizes the table rows for a sequence. An action's own
// description wins when present, otherwise the deterministic summary
// is regenerated on every export.
func buildRows(actions []action.Action, locale monday.Locale) []row {
	rows := make([]row, 0, len(actions))
	for i, a := range actions {
		description := a.Note()
		if description == "" {
			description = action.Summary(a)
		}
		rows = append(rows, row{
			Index:       i + 1,
			Type:        string(a.Kind()),
			Description: description,
			Time:        formatTime(a.When(), locale),
		})
	}
	return rows
}

func formatTime(ms int64, locale monday.Locale) string {
	return monday.Format(time.UnixMilli(ms), timeLayout, locale)
}
