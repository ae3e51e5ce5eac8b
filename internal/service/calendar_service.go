package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"todo-calendar/internal/calendar"
	"todo-calendar/internal/model"
	"todo-calendar/internal/repository"
)

// MonthView is everything a renderer needs to draw one month.
type MonthView struct {
	Grid  calendar.Grid
	Today calendar.Date
}

// DayView lists the tasks of a single day.
type DayView struct {
	Day          calendar.Date
	Tasks        calendar.Tasks
	Completed    int
	AllCompleted bool
	IsToday      bool
	IsPast       bool
}

// CalendarService loads a user's tasks and answers calendar queries about
// them. It owns the clock; the calendar package never reads one.
type CalendarService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
	loc          *time.Location
	now          func() time.Time
}

func NewCalendarService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository, loc *time.Location) *CalendarService {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarService{taskRepo: taskRepo, categoryRepo: categoryRepo, loc: loc, now: time.Now}
}

// WithClock replaces the time source.
func (s *CalendarService) WithClock(now func() time.Time) *CalendarService {
	s.now = now
	return s
}

func (s *CalendarService) Location() *time.Location {
	return s.loc
}

// Today is the current day in the configured location.
func (s *CalendarService) Today() calendar.Date {
	return calendar.FromTime(s.now().In(s.loc))
}

// CurrentWindow is the month containing today.
func (s *CalendarService) CurrentWindow() calendar.Window {
	return s.Today().Window()
}

// Tasks returns the user's tasks as calendar tasks, in creation order.
func (s *CalendarService) Tasks(ctx context.Context, user *model.User) (calendar.Tasks, error) {
	return loadCalendarTasks(ctx, s.taskRepo, s.categoryRepo, user.ID)
}

// Month builds the grid for w. selected may be nil.
func (s *CalendarService) Month(ctx context.Context, user *model.User, w calendar.Window, selected calendar.RawDate) (MonthView, error) {
	tasks, err := s.Tasks(ctx, user)
	if err != nil {
		return MonthView{}, err
	}
	today := s.Today()
	return MonthView{
		Grid:  calendar.BuildGrid(w, tasks, today, selected),
		Today: today,
	}, nil
}

// Day lists the tasks due on day.
func (s *CalendarService) Day(ctx context.Context, user *model.User, day calendar.Date) (DayView, error) {
	tasks, err := s.Tasks(ctx, user)
	if err != nil {
		return DayView{}, err
	}
	today := s.Today()
	return DayView{
		Day:          day,
		Tasks:        tasks.On(day),
		Completed:    tasks.CompletedCount(day),
		AllCompleted: tasks.AllCompleted(day),
		IsToday:      calendar.IsToday(day, today),
		IsPast:       calendar.IsPast(day, today),
	}, nil
}

// Undated returns the tasks that have no day.
func (s *CalendarService) Undated(ctx context.Context, user *model.User) (calendar.Tasks, error) {
	tasks, err := s.Tasks(ctx, user)
	if err != nil {
		return nil, err
	}
	return tasks.Undated(), nil
}

func loadCalendarTasks(ctx context.Context, taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository, userID uint) (calendar.Tasks, error) {
	tasks, err := taskRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	names, err := categoryRepo.NamesByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToCalendarTasks(tasks, names), nil
}

// ToCalendarTasks converts stored tasks, keeping their order.
func ToCalendarTasks(tasks []model.Task, categoryNames map[uint]string) calendar.Tasks {
	out := make(calendar.Tasks, 0, len(tasks))
	for _, t := range tasks {
		ct := calendar.Task{
			ID:          strconv.FormatUint(uint64(t.ID), 10),
			Text:        strings.TrimSpace(t.Title),
			IsCompleted: t.IsCompleted,
		}
		if t.CategoryID != nil {
			ct.Category = categoryNames[*t.CategoryID]
		}
		if t.HasDueDate() {
			ct.Date = calendar.StringDate(*t.DueDate)
		}
		out = append(out, ct)
	}
	return out
}
