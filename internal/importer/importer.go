// Package importer loads todo lists exported from the mobile app. Dates in
// those exports are either "YYYY-MM-DD" strings or serialized instants; both
// are turned into calendar days here and nowhere else.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"todo-calendar/internal/calendar"
	"todo-calendar/internal/logging"
	"todo-calendar/internal/metrics"
	"todo-calendar/internal/model"
	"todo-calendar/internal/service"
)

// Record is one exported todo.
type Record struct {
	ID          string
	Text        string
	Category    string
	IsCompleted bool
	Date        calendar.RawDate
}

type wireRecord struct {
	ID          json.RawMessage `json:"id"`
	Text        string          `json:"text"`
	Category    string          `json:"category"`
	IsCompleted bool            `json:"isCompleted"`
	Data        json.RawMessage `json:"data"`
	Date        json.RawMessage `json:"date"`
}

// Result counts what an import did.
type Result struct {
	Imported int
	Skipped  int
	Undated  int
}

// Decode reads a JSON array of exported todos. Serialized instants are read
// in loc before their day is taken.
func Decode(r io.Reader, loc *time.Location) ([]Record, error) {
	var wire []wireRecord
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	records := make([]Record, 0, len(wire))
	for _, w := range wire {
		raw := w.Data
		if isNull(raw) {
			raw = w.Date
		}
		records = append(records, Record{
			ID:          parseID(w.ID),
			Text:        strings.TrimSpace(w.Text),
			Category:    strings.TrimSpace(w.Category),
			IsCompleted: w.IsCompleted,
			Date:        ParseRawDate(raw, loc),
		})
	}
	return records, nil
}

// ParseRawDate maps an exported date onto a calendar.RawDate: null becomes
// nil, RFC 3339 timestamps and epoch milliseconds become a NativeDate in loc,
// any other string is kept as a StringDate and left to calendar.Normalize.
func ParseRawDate(raw json.RawMessage, loc *time.Location) calendar.RawDate {
	if loc == nil {
		loc = time.Local
	}
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return calendar.NativeDate{Time: t.In(loc)}
		}
		return calendar.StringDate(s)
	default:
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return nil
		}
		return calendar.NativeDate{Time: time.UnixMilli(ms).In(loc)}
	}
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func parseID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}

// Importer stores decoded records as tasks of one user.
type Importer struct {
	tasks   *service.TaskService
	loc     *time.Location
	log     *logging.Logger
	metrics *metrics.Metrics
}

func New(tasks *service.TaskService, loc *time.Location, log *logging.Logger, m *metrics.Metrics) *Importer {
	if log == nil {
		log = logging.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Importer{
		tasks:   tasks,
		loc:     loc,
		log:     log.WithComponent(logging.ComponentImporter),
		metrics: m,
	}
}

// Import decodes r and creates a task per record. Records without text, and
// records whose id was imported before, are skipped. Records with a missing or
// malformed date are imported without one.
func (im *Importer) Import(ctx context.Context, user *model.User, r io.Reader) (Result, error) {
	records, err := Decode(r, im.loc)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if rec.Text == "" {
			im.log.Warn("skipping record without text", "index", i)
			res.Skipped++
			im.metrics.ImportRecord(metrics.ResultSkipped)
			continue
		}

		externalID := rec.ID
		if externalID == "" {
			externalID = uuid.NewString()
		} else {
			seen, err := im.tasks.HasExternalID(ctx, user, externalID)
			if err != nil {
				return res, err
			}
			if seen {
				res.Skipped++
				im.metrics.ImportRecord(metrics.ResultSkipped)
				continue
			}
		}

		input := service.TaskInput{
			Title:      rec.Text,
			Category:   rec.Category,
			ExternalID: externalID,
			Completed:  rec.IsCompleted,
		}
		if day, ok := calendar.Normalize(rec.Date); ok {
			input.Date = day.String()
		} else {
			if rec.Date != nil {
				im.log.Warn("dropping malformed date", "index", i, logging.FieldTaskID, externalID)
			}
			res.Undated++
			im.metrics.ImportRecord(metrics.ResultUndated)
		}

		if _, err := im.tasks.CreateTask(ctx, user, input); err != nil {
			return res, fmt.Errorf("import record %d: %w", i, err)
		}
		res.Imported++
		im.metrics.ImportRecord(metrics.ResultImported)
	}

	im.log.Info("import finished", logging.FieldUserID, user.ID,
		"imported", res.Imported, "skipped", res.Skipped, "undated", res.Undated)
	return res, nil
}
