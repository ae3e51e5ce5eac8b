package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"todo-calendar/internal/calendar"
	"todo-calendar/internal/model"
	"todo-calendar/internal/repository"
)

// ReminderService builds human-readable summaries for periodic notifications.
type ReminderService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
	loc          *time.Location
}

func NewReminderService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository, loc *time.Location) *ReminderService {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderService{taskRepo: taskRepo, categoryRepo: categoryRepo, loc: loc}
}

// DailySummary reports today's tasks, overdue ones, undated open tasks and
// the month totals as Telegram HTML.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	tasks, err := loadCalendarTasks(ctx, s.taskRepo, s.categoryRepo, user.ID)
	if err != nil {
		return "", err
	}

	local := now.In(s.loc)
	today := calendar.FromTime(local)

	var builder strings.Builder
	builder.WriteString("📋 <b>Ежедневный отчёт</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", local.Format("02.01.2006")))

	builder.WriteString("📅 <b>Сегодня</b>\n")
	todays := tasks.On(today)
	if len(todays) == 0 {
		builder.WriteString("— на сегодня задач нет\n")
	} else {
		for _, task := range todays {
			builder.WriteString(formatSummaryTask(task))
		}
	}

	overdue := tasks.Overdue(today)
	builder.WriteString("\n⚠️ <b>Просрочено</b>\n")
	if len(overdue) == 0 {
		builder.WriteString("— нет просроченных задач\n")
	} else {
		for _, task := range overdue {
			day, _ := task.Day()
			builder.WriteString(fmt.Sprintf("• %s — %s\n", escapeTitle(task.Text), day))
		}
	}

	openUndated := 0
	for _, task := range tasks.Undated() {
		if !task.IsCompleted {
			openUndated++
		}
	}
	if openUndated > 0 {
		builder.WriteString(fmt.Sprintf("\n📥 <b>Без даты</b>: открытых задач %d\n", openUndated))
	}

	stats := tasks.MonthStats(today.Window())
	builder.WriteString(fmt.Sprintf("\n📊 <b>Месяц:</b> всего %d · выполнено %d · осталось %d", stats.Total, stats.Completed, stats.Pending))

	return strings.TrimSpace(builder.String()), nil
}

func formatSummaryTask(task calendar.Task) string {
	var sb strings.Builder
	icon := "🟢"
	if task.IsCompleted {
		icon = "✅"
	}
	sb.WriteString(fmt.Sprintf("%s %s", icon, escapeTitle(task.Text)))
	if c := strings.TrimSpace(task.Category); c != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(c)))
	}
	if task.IsCompleted {
		sb.WriteString(" (выполнено)")
	}
	sb.WriteByte('\n')
	return sb.String()
}

func escapeTitle(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
