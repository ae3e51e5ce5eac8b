package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-calendar/internal/calendar"
	"todo-calendar/internal/service"
)

const (
	cbCalendarPrefix = "cal:"
	cbDayPrefix      = "day:"
	cbTogglePrefix   = "toggle:"
	cbNewOnDayPrefix = "new:"
	cbToday          = "cal:today"
	cbUndated        = "nodate"
	cbNoop           = "noop"
)

const (
	blankCell     = " "
	daysPerWeek   = 7
	dayTitleLimit = 22
)

// calendarText is the message body shown above the month keyboard.
func calendarText(view service.MonthView) string {
	stats := view.Grid.Stats
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗓 <b>%s</b>\n", monthTitle(view.Grid.Window)))
	if stats.Total == 0 {
		b.WriteString("В этом месяце задач нет.\n")
	} else {
		b.WriteString(fmt.Sprintf("Задач: %d · выполнено %d · осталось %d\n", stats.Total, stats.Completed, stats.Pending))
	}
	b.WriteString("\n<i>[д] — сегодня, «д» — выбранный день, д•N — задач в день, ✅ — всё выполнено</i>")
	return b.String()
}

// calendarKeyboard lays the grid out Sunday-first, seven buttons per row.
func calendarKeyboard(g calendar.Grid) tgbotapi.InlineKeyboardMarkup {
	w := g.Window
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀", cbCalendarPrefix+w.Previous().String()),
			tgbotapi.NewInlineKeyboardButtonData(monthTitle(w), cbNoop),
			tgbotapi.NewInlineKeyboardButtonData("▶", cbCalendarPrefix+w.Next().String()),
		),
	}

	header := make([]tgbotapi.InlineKeyboardButton, 0, daysPerWeek)
	for _, label := range weekdayLabels {
		header = append(header, tgbotapi.NewInlineKeyboardButtonData(label, cbNoop))
	}
	rows = append(rows, header)

	row := make([]tgbotapi.InlineKeyboardButton, 0, daysPerWeek)
	for _, cell := range g.Cells() {
		if cell == nil {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(blankCell, cbNoop))
		} else {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(dayLabel(*cell), cbDayPrefix+cell.Date.String()))
		}
		if len(row) == daysPerWeek {
			rows = append(rows, row)
			row = make([]tgbotapi.InlineKeyboardButton, 0, daysPerWeek)
		}
	}
	if len(row) > 0 {
		for len(row) < daysPerWeek {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(blankCell, cbNoop))
		}
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📅 Сегодня", cbToday),
		tgbotapi.NewInlineKeyboardButtonData("📥 Без даты", cbUndated),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// dayLabel marks a cell. Markers stack: a selected today with tasks reads «[15•2]».
func dayLabel(c calendar.DayCell) string {
	label := strconv.Itoa(c.Date.Day)
	switch {
	case c.AllCompleted:
		label = iconDone + label
	case c.HasTasks:
		label = fmt.Sprintf("%s•%d", label, c.Count)
	}
	if c.IsToday {
		label = "[" + label + "]"
	}
	if c.IsSelected {
		label = "«" + label + "»"
	}
	return label
}

func dayText(view service.DayView) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>%s</b>", dayTitle(view.Day)))
	switch {
	case view.IsToday:
		b.WriteString(" — сегодня")
	case view.IsPast:
		b.WriteString(" — прошедший день")
	}
	b.WriteByte('\n')

	if len(view.Tasks) == 0 {
		b.WriteString("Задач на этот день нет.")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Задач: %d · выполнено %d\n\n", len(view.Tasks), view.Completed))
	for i, task := range view.Tasks {
		b.WriteString(formatDayTask(i+1, task))
	}
	if view.AllCompleted {
		b.WriteString("\n🎉 Все задачи дня выполнены!")
	}
	return strings.TrimRight(b.String(), "\n")
}

// dayKeyboard toggles each task of the day and leads back to its month.
func dayKeyboard(view service.DayView) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(view.Tasks)+1)
	for _, task := range view.Tasks {
		label := fmt.Sprintf("✅ #%s · %s", task.ID, shortTitle(task.Text, dayTitleLimit))
		if task.IsCompleted {
			label = fmt.Sprintf("↩️ #%s · %s", task.ID, shortTitle(task.Text, dayTitleLimit))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, toggleData(task.ID, view.Day)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Добавить", cbNewOnDayPrefix+view.Day.String()),
		tgbotapi.NewInlineKeyboardButtonData("🗓 К месяцу", cbCalendarPrefix+view.Day.Window().String()),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func undatedText(tasks calendar.Tasks) string {
	if len(tasks) == 0 {
		return "📥 Задач без даты нет."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📥 <b>Без даты</b> (%d)\n\n", len(tasks)))
	for i, task := range tasks {
		b.WriteString(formatDayTask(i+1, task))
	}
	return strings.TrimRight(b.String(), "\n")
}

func toggleData(taskID string, day calendar.Date) string {
	return fmt.Sprintf("%s%s:%s", cbTogglePrefix, taskID, day.String())
}

// parseToggleData reads "toggle:<id>:<YYYY-MM-DD>".
func parseToggleData(data string) (uint, calendar.Date, error) {
	rest := strings.TrimPrefix(data, cbTogglePrefix)
	rawID, rawDay, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, calendar.Date{}, fmt.Errorf("malformed toggle callback %q", data)
	}
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return 0, calendar.Date{}, fmt.Errorf("toggle task id: %w", err)
	}
	day, err := calendar.ParseDate(rawDay)
	if err != nil {
		return 0, calendar.Date{}, err
	}
	return uint(id), day, nil
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

// callbackName is the metrics label for callback data: its prefix.
func callbackName(data string) string {
	if name, _, ok := strings.Cut(data, ":"); ok {
		return "cb_" + name
	}
	return "cb_" + data
}
