package cli

import (
	"fmt"
	"io"
	"strings"

	"todo-calendar/internal/calendar"
	"todo-calendar/internal/service"
)

const cellWidth = 5

var weekdayHeader = [...]string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// renderMonth prints a Sunday-first month. Today is bracketed, a day with
// open tasks is marked "+" and a fully completed day "v".
func renderMonth(w io.Writer, view service.MonthView) error {
	g := view.Grid
	var b strings.Builder

	title := fmt.Sprintf("%s %d", g.Window.Month, g.Window.Year)
	pad := (cellWidth*7 - len(title)) / 2
	b.WriteString(strings.Repeat(" ", pad) + title + "\n")

	for _, wd := range weekdayHeader {
		b.WriteString(fmt.Sprintf(" %s  ", wd))
	}
	b.WriteString("\n")

	col := 0
	for _, cell := range g.Cells() {
		if cell == nil {
			b.WriteString(strings.Repeat(" ", cellWidth))
		} else {
			b.WriteString(textCell(*cell))
		}
		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}

	s := g.Stats
	b.WriteString(fmt.Sprintf("\nTasks: %d  completed: %d  pending: %d\n", s.Total, s.Completed, s.Pending))

	_, err := io.WriteString(w, b.String())
	return err
}

func textCell(c calendar.DayCell) string {
	left, right := " ", " "
	if c.IsToday {
		left, right = "[", "]"
	}
	mark := " "
	switch {
	case c.AllCompleted:
		mark = "v"
	case c.HasTasks:
		mark = "+"
	}
	return fmt.Sprintf("%s%2d%s%s", left, c.Date.Day, right, mark)
}

// renderDay lists one day's tasks.
func renderDay(w io.Writer, view service.DayView) error {
	var b strings.Builder
	b.WriteString(view.Day.String())
	if view.IsToday {
		b.WriteString(" (today)")
	}
	b.WriteString("\n")
	if len(view.Tasks) == 0 {
		b.WriteString("  no tasks\n")
	}
	for _, t := range view.Tasks {
		b.WriteString(taskLine(t))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// renderUndated lists tasks without a day.
func renderUndated(w io.Writer, tasks calendar.Tasks) error {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Undated: %d\n", len(tasks)))
	for _, t := range tasks {
		b.WriteString(taskLine(t))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func taskLine(t calendar.Task) string {
	box := "[ ]"
	if t.IsCompleted {
		box = "[x]"
	}
	line := fmt.Sprintf("  %s #%s %s", box, t.ID, t.Text)
	if t.Category != "" {
		line += " (" + t.Category + ")"
	}
	return line + "\n"
}
