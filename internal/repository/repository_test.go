package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"todo-calendar/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func TestUserRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	first, err := repo.UpsertFromTelegram(ctx, 42, "Ana", "", "ana")
	require.NoError(t, err)
	second, err := repo.UpsertFromTelegram(ctx, 42, "Ana Maria", "Silva", "ana")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	found, err := repo.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", found.FirstName)
	assert.Equal(t, "Silva", found.LastName)

	_, err = repo.FindByTelegramID(ctx, 7)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCategoryRepository_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(newTestDB(t))

	none, err := repo.GetOrCreate(ctx, 1, "  ")
	require.NoError(t, err)
	assert.Nil(t, none)

	work, err := repo.GetOrCreate(ctx, 1, "Work")
	require.NoError(t, err)
	again, err := repo.GetOrCreate(ctx, 1, " Work ")
	require.NoError(t, err)
	assert.Equal(t, work.ID, again.ID)

	other, err := repo.GetOrCreate(ctx, 2, "Work")
	require.NoError(t, err)
	assert.NotEqual(t, work.ID, other.ID)

	_, err = repo.GetOrCreate(ctx, 1, "Health")
	require.NoError(t, err)

	names, err := repo.NamesByID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, names, 2)
	assert.Equal(t, "Work", names[work.ID])

	list, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Health", list[0].Name)
}

func TestTaskRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))

	tasks := []*model.Task{
		{UserID: 1, Title: "later", DueDate: strPtr("2024-03-20")},
		{UserID: 1, Title: "undated"},
		{UserID: 1, Title: "sooner", DueDate: strPtr("2024-03-10"), ExternalID: "ext-1"},
		{UserID: 2, Title: "someone else"},
	}
	for _, task := range tasks {
		require.NoError(t, repo.Create(ctx, task))
	}

	all, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"later", "undated", "sooner"}, titles(all))

	pending, err := repo.ListPending(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"sooner", "later", "undated"}, titles(pending))

	found, err := repo.FindByExternalID(ctx, 1, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "sooner", found.Title)

	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetCompleted(ctx, found, true, now))
	reloaded, err := repo.FindByID(ctx, 1, found.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsCompleted)
	require.NotNil(t, reloaded.CompletedAt)

	require.NoError(t, repo.SetCompleted(ctx, reloaded, false, now))
	reloaded, err = repo.FindByID(ctx, 1, found.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsCompleted)
	assert.Nil(t, reloaded.CompletedAt)

	_, err = repo.FindByID(ctx, 2, found.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Delete(ctx, 1, found.ID))
	assert.ErrorIs(t, repo.Delete(ctx, 1, found.ID), gorm.ErrRecordNotFound)
}

func TestEnsureDirForSQLite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ensureDirForSQLite("file:"+dir+"/nested/db.sqlite?_fk=1"))
	assert.DirExists(t, dir+"/nested")
	assert.NoError(t, ensureDirForSQLite(":memory:"))
	assert.NoError(t, ensureDirForSQLite("plain.db"))
}

func titles(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Title)
	}
	return out
}
