package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"

	"todo-calendar/internal/config"
	"todo-calendar/internal/logging"
	"todo-calendar/internal/model"
	"todo-calendar/internal/repository"
	"todo-calendar/internal/service"
)

// app holds what every subcommand needs: configuration, logger, storage.
type app struct {
	cfg        config.Config
	log        *logging.Logger
	db         *gorm.DB
	users      *repository.UserRepository
	categories *repository.CategoryRepository
	tasks      *repository.TaskRepository
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log := logging.New(logging.Config{
		Level:     cfg.LogLevel,
		Component: logging.ComponentApp,
		Output:    os.Stderr,
	})
	logging.SetDefault(log)

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		users:      repository.NewUserRepository(db),
		categories: repository.NewCategoryRepository(db),
		tasks:      repository.NewTaskRepository(db),
	}, nil
}

func (a *app) taskService() *service.TaskService {
	return service.NewTaskService(a.tasks, a.categories)
}

func (a *app) calendarService() *service.CalendarService {
	return service.NewCalendarService(a.tasks, a.categories, a.cfg.Location)
}

// lookupUser finds a user by Telegram id. With create set, an unknown id
// gets a fresh record.
func (a *app) lookupUser(ctx context.Context, telegramID int64, create bool) (*model.User, error) {
	if telegramID == 0 {
		return nil, errors.New("--user is required")
	}
	user, err := a.users.FindByTelegramID(ctx, telegramID)
	if err == nil {
		return user, nil
	}
	if !service.IsNotFound(err) || !create {
		return nil, err
	}
	return a.users.UpsertFromTelegram(ctx, telegramID, "", "", "")
}

func (a *app) Close() {
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		a.log.Warn("close database", logging.FieldError, err)
	}
}
