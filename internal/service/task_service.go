package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"todo-calendar/internal/calendar"
	"todo-calendar/internal/model"
	"todo-calendar/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	Category    string
	// Date is an optional "YYYY-MM-DD" day.
	Date       string
	ExternalID string
	Completed  bool
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, categoryRepo: categoryRepo}
}

// ParseDueDate validates an optional day. An empty string means no date.
func ParseDueDate(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	day, err := calendar.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	s := day.String()
	return &s, nil
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	due, err := ParseDueDate(input.Date)
	if err != nil {
		return nil, err
	}

	var categoryID *uint
	if input.Category != "" {
		category, err := s.categoryRepo.GetOrCreate(ctx, user.ID, input.Category)
		if err != nil {
			return nil, err
		}
		if category != nil {
			categoryID = &category.ID
		}
	}

	task := model.Task{
		UserID:      user.ID,
		CategoryID:  categoryID,
		ExternalID:  input.ExternalID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		DueDate:     due,
		IsCompleted: input.Completed,
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	return &task, nil
}

// ListAll returns every task of the user in creation order.
func (s *TaskService) ListAll(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListByUser(ctx, user.ID)
}

func (s *TaskService) ListPending(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListPending(ctx, user.ID)
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

// HasExternalID reports whether a task with this external id was already stored.
func (s *TaskService) HasExternalID(ctx context.Context, user *model.User, externalID string) (bool, error) {
	_, err := s.taskRepo.FindByExternalID(ctx, user.ID, externalID)
	switch {
	case err == nil:
		return true, nil
	case IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// CompleteTask marks a task as done.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, taskID uint, completedAt time.Time) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if task.IsCompleted {
		return task, nil
	}
	if err := s.taskRepo.SetCompleted(ctx, task, true, completedAt); err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleTask flips the completion state, reopening completed tasks.
func (s *TaskService) ToggleTask(ctx context.Context, user *model.User, taskID uint, at time.Time) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.SetCompleted(ctx, task, !task.IsCompleted, at); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task completely.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) error {
	return s.taskRepo.Delete(ctx, user.ID, taskID)
}
