package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"todo-calendar/internal/calendar"
	"todo-calendar/internal/model"
)

func strPtr(s string) *string { return &s }

func TestFormatTask(t *testing.T) {
	today := calendar.NewDate(2024, time.March, 15)
	tests := []struct {
		name     string
		task     model.Task
		contains []string
	}{
		{
			name:     "overdue",
			task:     model.Task{ID: 1, Title: "pay rent", DueDate: strPtr("2024-03-10")},
			contains: []string{iconOverdue, "<b>#1</b> Pay rent", "10 марта 2024 — <b>просрочено</b>"},
		},
		{
			name:     "due today",
			task:     model.Task{ID: 2, Title: "report", DueDate: strPtr("2024-03-15")},
			contains: []string{iconDue, "15 марта 2024 — сегодня"},
		},
		{
			name:     "due tomorrow",
			task:     model.Task{ID: 3, Title: "call", DueDate: strPtr("2024-03-16")},
			contains: []string{iconDue, "16 марта 2024"},
		},
		{
			name:     "later",
			task:     model.Task{ID: 4, Title: "trip", DueDate: strPtr("2024-04-01"), Description: "pack <bags>"},
			contains: []string{iconDefault, "1 апреля 2024", "📝 pack &lt;bags&gt;"},
		},
		{
			name:     "undated",
			task:     model.Task{ID: 5, Title: "someday"},
			contains: []string{iconUndated, "Someday"},
		},
		{
			name:     "malformed date is undated",
			task:     model.Task{ID: 6, Title: "odd", DueDate: strPtr("15/03/2024")},
			contains: []string{iconUndated},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatTask(tt.task, today)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "Hello", shortTitle("hello", 10))
	assert.Equal(t, "Привет, м…", shortTitle("привет, мир", 10))
	assert.Equal(t, "Two lines", shortTitle("two\nlines", 20))
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "📊 Работа", categoryLabel("работа"))
	assert.Equal(t, "📚 Учеба", categoryLabel("Учеба"))
	assert.Equal(t, "📌 Hobby &amp; fun", categoryLabel("hobby & fun"))
	assert.Equal(t, "📁 Без категории", categoryLabel(noCategory))
}

func TestNormalizedCategory(t *testing.T) {
	id := uint(3)
	missing := uint(9)
	names := map[uint]string{3: " Work "}

	key, label := normalizedCategory(&id, names)
	assert.Equal(t, "work", key)
	assert.Equal(t, "📊 Work", label)

	key, _ = normalizedCategory(&missing, names)
	assert.Equal(t, noCategoryKey, key)
	key, _ = normalizedCategory(nil, names)
	assert.Equal(t, noCategoryKey, key)
}

func TestMonthAndDayTitles(t *testing.T) {
	assert.Equal(t, "Декабрь 2025", monthTitle(calendar.Window{Year: 2025, Month: time.December}))
	assert.Equal(t, "1 января 2026", dayTitle(calendar.NewDate(2026, time.January, 1)))
}

func TestInputMatchers(t *testing.T) {
	assert.True(t, isSkipInput("-"))
	assert.True(t, isSkipInput(btnSkip))
	assert.True(t, isConfirmInput("да"))
	assert.True(t, isCancelInput(btnCancel))
	assert.True(t, isCancelDialogInput(btnCancelDialog))
	assert.False(t, isSkipInput("2024-03-15"))
}
