package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-calendar/internal/calendar"
	"todo-calendar/internal/service"
)

func marchView() service.MonthView {
	today := calendar.NewDate(2024, time.March, 15)
	tasks := calendar.Tasks{
		{ID: "1", Text: "Report", Date: calendar.StringDate("2024-03-15")},
		{ID: "2", Text: "Gym", Date: calendar.StringDate("2024-03-15"), IsCompleted: true},
		{ID: "3", Text: "Call", Date: calendar.StringDate("2024-03-02"), IsCompleted: true},
	}
	return service.MonthView{
		Grid:  calendar.BuildGrid(calendar.Window{Year: 2024, Month: time.March}, tasks, today, nil),
		Today: today,
	}
}

func TestRenderMonth(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderMonth(&buf, marchView()))

	lines := strings.Split(buf.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 9)

	assert.Equal(t, "March 2024", strings.TrimSpace(lines[0]))
	assert.Equal(t, " Su   Mo   Tu   We   Th   Fr   Sa  ", lines[1])
	assert.Equal(t, strings.Repeat(" ", 25)+"  1    2 v", lines[2])
	assert.Contains(t, lines[4], "[15]+")
	assert.Equal(t, " 31  ", lines[7])
	assert.Contains(t, buf.String(), "Tasks: 3  completed: 2  pending: 1")
}

func TestRenderMonth_EveryWeekFitsRow(t *testing.T) {
	view := service.MonthView{Grid: calendar.BuildGrid(calendar.Window{Year: 2026, Month: time.February}, nil, calendar.NewDate(2026, time.January, 1), nil)}
	var buf bytes.Buffer
	require.NoError(t, renderMonth(&buf, view))

	// February 2026 starts on a Sunday and fills exactly four rows.
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	weeks := lines[2:6]
	for _, l := range weeks {
		assert.Len(t, l, cellWidth*7)
	}
	assert.Equal(t, "", lines[6])
}

func TestTextCell(t *testing.T) {
	day := calendar.NewDate(2024, time.March, 9)
	assert.Equal(t, "  9  ", textCell(calendar.DayCell{Date: day}))
	assert.Equal(t, "[ 9] ", textCell(calendar.DayCell{Date: day, IsToday: true}))
	assert.Equal(t, "  9 +", textCell(calendar.DayCell{Date: day, HasTasks: true, Count: 1}))
	assert.Equal(t, "  9 v", textCell(calendar.DayCell{Date: day, HasTasks: true, AllCompleted: true}))
}

func TestRenderDayAndUndated(t *testing.T) {
	day := calendar.NewDate(2024, time.March, 15)
	var buf bytes.Buffer
	require.NoError(t, renderDay(&buf, service.DayView{
		Day:     day,
		IsToday: true,
		Tasks: calendar.Tasks{
			{ID: "1", Text: "Report", Category: "Work", Date: day},
			{ID: "2", Text: "Gym", Date: day, IsCompleted: true},
		},
	}))
	assert.Equal(t, "2024-03-15 (today)\n  [ ] #1 Report (Work)\n  [x] #2 Gym\n", buf.String())

	buf.Reset()
	require.NoError(t, renderDay(&buf, service.DayView{Day: day.AddDays(1)}))
	assert.Equal(t, "2024-03-16\n  no tasks\n", buf.String())

	buf.Reset()
	require.NoError(t, renderUndated(&buf, calendar.Tasks{{ID: "9", Text: "Someday"}}))
	assert.Equal(t, "Undated: 1\n  [ ] #9 Someday\n", buf.String())
}

func TestRootCommand(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"bot", "calendar", "import", "version"} {
		assert.True(t, names[want], want)
	}

	cal, _, err := rootCmd.Find([]string{"calendar"})
	require.NoError(t, err)
	for _, flag := range []string{"user", "month", "day", "undated"} {
		assert.NotNil(t, cal.Flags().Lookup(flag), flag)
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("dev")

	cmd := newVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)
	assert.Equal(t, "todocalendar version 1.2.3\n", buf.String())
}
