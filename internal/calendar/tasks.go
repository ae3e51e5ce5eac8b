package calendar

// Task is the read-only view of a to-do item the aggregator works on.
type Task struct {
	ID          string
	Text        string
	Category    string
	IsCompleted bool
	Date        RawDate
}

// Day returns the task's calendar day, if it has a valid one.
func (t Task) Day() (Date, bool) {
	return Normalize(t.Date)
}

// Tasks is a task collection. Queries never modify it.
type Tasks []Task

// MonthStats counts the dated tasks of one month.
type MonthStats struct {
	Total     int
	Completed int
	Pending   int
}

// On returns the tasks due on day in their original order.
func (ts Tasks) On(day Date) Tasks {
	var out Tasks
	for _, t := range ts {
		if SameDay(t.Date, day) {
			out = append(out, t)
		}
	}
	return out
}

func (ts Tasks) HasTasks(day Date) bool {
	for _, t := range ts {
		if SameDay(t.Date, day) {
			return true
		}
	}
	return false
}

func (ts Tasks) Count(day Date) int {
	n := 0
	for _, t := range ts {
		if SameDay(t.Date, day) {
			n++
		}
	}
	return n
}

func (ts Tasks) CompletedCount(day Date) int {
	n := 0
	for _, t := range ts {
		if t.IsCompleted && SameDay(t.Date, day) {
			n++
		}
	}
	return n
}

// AllCompleted is false for a day with no tasks.
func (ts Tasks) AllCompleted(day Date) bool {
	total := ts.Count(day)
	return total > 0 && ts.CompletedCount(day) == total
}

// MonthStats counts tasks dated anywhere inside w. Undated tasks are ignored.
func (ts Tasks) MonthStats(w Window) MonthStats {
	var s MonthStats
	for _, t := range ts {
		d, ok := t.Day()
		if !ok || !w.Contains(d) {
			continue
		}
		s.Total++
		if t.IsCompleted {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}

// Undated returns tasks without a usable date, in order.
func (ts Tasks) Undated() Tasks {
	var out Tasks
	for _, t := range ts {
		if _, ok := t.Day(); !ok {
			out = append(out, t)
		}
	}
	return out
}

// Overdue returns open tasks dated before today, in order.
func (ts Tasks) Overdue(today Date) Tasks {
	var out Tasks
	for _, t := range ts {
		if t.IsCompleted {
			continue
		}
		if d, ok := t.Day(); ok && IsPast(d, today) {
			out = append(out, t)
		}
	}
	return out
}
