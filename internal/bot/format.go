package bot

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	"todo-calendar/internal/calendar"
	"todo-calendar/internal/model"
)

const (
	noCategory    = "Без категории"
	noCategoryKey = "__no_category__"
	iconDefault   = "🟢"
	iconDue       = "⏳"
	iconOverdue   = "⚠️"
	iconDone      = "✅"
	iconUndated   = "📥"
	doneSuffix    = " (выполнено)"
)

var monthNames = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

var monthNamesGenitive = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// Sunday first, matching calendar.FirstWeekdayOffset.
var weekdayLabels = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

func monthTitle(w calendar.Window) string {
	return fmt.Sprintf("%s %d", monthNames[w.Month-1], w.Year)
}

func dayTitle(d calendar.Date) string {
	return fmt.Sprintf("%d %s %d", d.Day, monthNamesGenitive[d.Month-1], d.Year)
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func categoryLabel(name string) string {
	base := strings.TrimSpace(name)
	var icon string
	switch strings.ToLower(base) {
	case "учеба", "учёба", "estudos", "studies":
		icon = "📚"
	case "работа", "trabalho", "work":
		icon = "📊"
	case "личное", "pessoal", "personal":
		icon = "👤"
	case "здоровье", "saúde", "health":
		icon = "💪"
	case strings.ToLower(noCategory):
		icon = "📁"
	default:
		icon = "📌"
	}
	return fmt.Sprintf("%s %s", icon, escape(normalizeTitle(base)))
}

func normalizedCategory(categoryID *uint, catNames map[uint]string) (string, string) {
	if categoryID == nil {
		return noCategoryKey, categoryLabel(noCategory)
	}
	if name, ok := catNames[*categoryID]; ok {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return noCategoryKey, categoryLabel(noCategory)
		}
		return strings.ToLower(trimmed), categoryLabel(trimmed)
	}
	return noCategoryKey, categoryLabel(noCategory)
}

// formatTask renders a stored task for the /tasks list.
func formatTask(task model.Task, today calendar.Date) string {
	var b strings.Builder
	icon := iconDefault
	day, dated := calendar.Normalize(dueDate(task))
	switch {
	case task.IsCompleted:
		icon = iconDone
	case dated && calendar.IsPast(day, today):
		icon = iconOverdue
	case dated && !day.After(today.AddDays(1)):
		icon = iconDue
	case !dated:
		icon = iconUndated
	}
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", icon, task.ID, escape(normalizeTitle(task.Title))))
	if dated {
		switch {
		case task.IsCompleted:
			b.WriteString(fmt.Sprintf("   📅 %s\n", dayTitle(day)))
		case calendar.IsPast(day, today):
			b.WriteString(fmt.Sprintf("   📅 %s — <b>просрочено</b>\n", dayTitle(day)))
		case calendar.IsToday(day, today):
			b.WriteString(fmt.Sprintf("   📅 %s — сегодня\n", dayTitle(day)))
		default:
			b.WriteString(fmt.Sprintf("   📅 %s\n", dayTitle(day)))
		}
	}
	if task.Description != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(task.Description)))
	}
	b.WriteByte('\n')
	return b.String()
}

// formatDayTask renders one line of a day's task list.
func formatDayTask(n int, task calendar.Task) string {
	line := fmt.Sprintf("%d. %s", n, escape(normalizeTitle(task.Text)))
	if task.Category != "" {
		line += fmt.Sprintf(" <i>(%s)</i>", escape(task.Category))
	}
	if task.IsCompleted {
		line = "<s>" + line + "</s>" + doneSuffix
	}
	return line + "\n"
}

func dueDate(task model.Task) calendar.RawDate {
	if !task.HasDueDate() {
		return nil
	}
	return calendar.StringDate(*task.DueDate)
}
