package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/agnivade/levenshtein"
	"github.com/gdamore/tcell/v2"
	"github.com/olekukonko/tablewriter"
	"github.com/rivo/tview"
	"github.com/stepsnap/stepsnap/internal/action"
	"github.com/stepsnap/stepsnap/internal/session"
	"github.com/stepsnap/stepsnap/internal/timeline"
	"github.com/stepsnap/stepsnap/internal/utils"
)

// findByTitle looks a session up by exact title. On a miss the closest
// existing title is returned as a suggestion.
func findByTitle(sessions []*session.Session, title string) (*session.Session, string) {
	bestDistance := -1
	suggestion := ""
	for _, s := range sessions {
		if s.Title == title {
			return s, ""
		}
		d := levenshtein.ComputeDistance(title, s.Title)
		if bestDistance == -1 || d < bestDistance {
			bestDistance = d
			suggestion = s.Title
		}
	}
	return nil, suggestion
}

// pickSession shows an interactive table for selecting a session.
func pickSession(sessions []*session.Session) (*session.Session, error) {
	if len(sessions) == 0 {
		return nil, errors.New("no stored sessions to pick from")
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	var picked *session.Session
	app := tview.NewApplication()
	table := tview.NewTable().SetBorders(true)

	headers := []string{"Title", "Actions", "Captures", "Created"}
	for c, h := range headers {
		table.SetCell(0, c, tview.NewTableCell(h).
			SetTextColor(tcell.ColorBlue).
			SetAlign(tview.AlignCenter).
			SetSelectable(false))
	}
	for r, s := range sessions {
		captures := "no"
		if s.HasCaptures {
			captures = "yes"
		}
		cells := []string{
			utils.ShortenString(s.Title, 40),
			strconv.Itoa(s.ActionsCount),
			captures,
			s.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for c, text := range cells {
			table.SetCell(r+1, c, tview.NewTableCell(text).
				SetTextColor(tcell.ColorWhite).
				SetAlign(tview.AlignCenter))
		}
	}

	table.SetSelectable(true, false)
	table.Select(1, 0).SetFixed(1, 0).SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape {
			app.Stop()
		}
	}).SetSelectedFunc(func(row int, column int) {
		if row > 0 && row <= len(sessions) {
			picked = sessions[row-1]
		}
		app.Stop()
	})

	if err := app.SetRoot(table, true).Run(); err != nil {
		return nil, err
	}
	if picked == nil {
		return nil, errors.New("no session selected")
	}
	return picked, nil
}

func printSessionsTable(sessions []*session.Session) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Title", "Actions", "Captures", "Shared", "Updated"})

	for _, s := range sessions {
		captures := ""
		if s.HasCaptures {
			captures = "yes"
		}
		shared := ""
		if s.IsShared {
			shared = "yes"
		}
		row := []string{
			s.ID,
			utils.ShortenString(s.Title, 40),
			strconv.Itoa(s.ActionsCount),
			captures,
			shared,
			s.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		if s.ActionsCount == 0 {
			table.Rich(row, []tablewriter.Colors{{tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}})
		} else {
			table.Append(row)
		}
	}
	table.SetFooter([]string{"", "total", strconv.Itoa(len(sessions)), "", "", ""})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	table.SetBorder(false)
	table.Render()
}

func printSessionDetail(s *session.Session) {
	fmt.Printf("%s (%s)\n", s.Title, s.ID)
	if s.Description != "" {
		fmt.Println(s.Description)
	}
	fmt.Printf("recorded %d actions, total duration %ds\n\n", s.ActionsCount, timeline.TotalDurationSeconds(s.Actions))

	entries := timeline.Reconstruct(s.Actions)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Type", "Description", "Elapsed", "Weight"})

	for i, a := range s.Actions {
		description := a.Note()
		if description == "" {
			description = action.Summary(a)
		}
		elapsed := ""
		weight := ""
		if i > 0 {
			entry := entries[i-1]
			if entry.Known() {
				elapsed = entry.DurationFormatted
				weight = fmt.Sprintf("%.0f%%", entry.WeightPercent)
			} else {
				elapsed = "unknown"
			}
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			string(a.Kind()),
			utils.ShortenString(description, 60),
			elapsed,
			weight,
		})
	}
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
	table.SetBorder(false)
	table.Render()
}
