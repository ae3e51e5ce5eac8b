package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-calendar/internal/calendar"
	"todo-calendar/internal/metrics"
	"todo-calendar/internal/model"
	"todo-calendar/internal/repository"
	"todo-calendar/internal/service"
)

var saoPaulo = time.FixedZone("UTC-3", -3*3600)

func TestParseRawDate(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   calendar.Date
		wantOK bool
	}{
		{name: "null", raw: `null`},
		{name: "missing", raw: ``},
		{name: "empty string", raw: `""`},
		{name: "calendar day", raw: `"2024-03-15"`, want: calendar.NewDate(2024, time.March, 15), wantOK: true},
		{
			// A JS date picked as local midnight on the 15th at UTC-3 serializes as 03:00Z.
			name: "serialized local midnight", raw: `"2024-03-15T03:00:00.000Z"`,
			want: calendar.NewDate(2024, time.March, 15), wantOK: true,
		},
		{
			name: "utc midnight is the previous local day", raw: `"2024-03-15T00:00:00Z"`,
			want: calendar.NewDate(2024, time.March, 14), wantOK: true,
		},
		{name: "epoch millis", raw: `1710471600000`, want: calendar.NewDate(2024, time.March, 15), wantOK: true},
		{name: "malformed string", raw: `"15/03/2024"`},
		{name: "object", raw: `{"y":2024}`},
		{name: "bool", raw: `true`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := calendar.Normalize(ParseRawDate(json.RawMessage(tt.raw), saoPaulo))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode(t *testing.T) {
	in := `[
		{"id": "a1", "text": " Report ", "category": "Trabalho", "isCompleted": false, "data": "2024-03-15"},
		{"id": 17, "text": "Gym", "category": "Saúde", "isCompleted": true, "date": "2024-03-16"},
		{"text": "No date", "category": "Pessoal", "isCompleted": false, "data": null}
	]`

	records, err := Decode(strings.NewReader(in), saoPaulo)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "a1", records[0].ID)
	assert.Equal(t, "Report", records[0].Text)
	assert.Equal(t, calendar.StringDate("2024-03-15"), records[0].Date)

	assert.Equal(t, "17", records[1].ID)
	assert.True(t, records[1].IsCompleted)
	assert.Equal(t, calendar.StringDate("2024-03-16"), records[1].Date)

	assert.Empty(t, records[2].ID)
	assert.Nil(t, records[2].Date)

	_, err = Decode(strings.NewReader(`{"not": "an array"}`), saoPaulo)
	assert.Error(t, err)
}

func newImporter(t *testing.T) (*Importer, *service.TaskService, *model.User, *metrics.Metrics) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	user, err := repository.NewUserRepository(db).UpsertFromTelegram(context.Background(), 1, "Ana", "", "")
	require.NoError(t, err)

	tasks := service.NewTaskService(repository.NewTaskRepository(db), repository.NewCategoryRepository(db))
	m := metrics.New()
	return New(tasks, saoPaulo, nil, m), tasks, user, m
}

func TestImporter_Import(t *testing.T) {
	im, tasks, user, m := newImporter(t)
	ctx := context.Background()

	export := `[
		{"id": "1", "text": "Report", "category": "Trabalho", "isCompleted": false, "data": "2024-03-15"},
		{"id": "2", "text": "Gym", "category": "Saúde", "isCompleted": true, "data": "2024-03-15T03:00:00.000Z"},
		{"id": "3", "text": "   ", "category": "Pessoal", "isCompleted": false, "data": null},
		{"id": "4", "text": "Read", "category": "Estudos", "isCompleted": false, "data": "soon"},
		{"text": "Anonymous", "category": "", "isCompleted": false, "data": null}
	]`

	res, err := im.Import(ctx, user, strings.NewReader(export))
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 4, Skipped: 1, Undated: 2}, res)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ImportRecords.WithLabelValues(metrics.ResultImported)))

	stored, err := tasks.ListAll(ctx, user)
	require.NoError(t, err)
	require.Len(t, stored, 4)

	require.NotNil(t, stored[0].DueDate)
	assert.Equal(t, "2024-03-15", *stored[0].DueDate)
	require.NotNil(t, stored[1].DueDate)
	assert.Equal(t, "2024-03-15", *stored[1].DueDate)
	assert.True(t, stored[1].IsCompleted)
	assert.Nil(t, stored[2].DueDate)
	assert.Nil(t, stored[3].DueDate)
	assert.NotEmpty(t, stored[3].ExternalID)

	again, err := im.Import(ctx, user, strings.NewReader(export))
	require.NoError(t, err)
	assert.Equal(t, 1, again.Imported, "only the record without id is imported twice")
	assert.Equal(t, 4, again.Skipped)
}
