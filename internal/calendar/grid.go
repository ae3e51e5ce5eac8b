package calendar

// DayCell holds every flag a renderer needs for one day of the grid. The
// flags overlap freely; which one wins visually is up to the renderer.
type DayCell struct {
	Date         Date
	Count        int
	Completed    int
	HasTasks     bool
	AllCompleted bool
	IsToday      bool
	IsPast       bool
	IsWeekend    bool
	IsSelected   bool
}

// Progress is the completed share of the day's tasks, 0 for an empty day.
func (c DayCell) Progress() float64 {
	if c.Count == 0 {
		return 0
	}
	return float64(c.Completed) / float64(c.Count)
}

// Grid is a month laid out for a Sunday-first calendar: Offset blank cells
// followed by one cell per day. Trailing padding is left to the renderer.
type Grid struct {
	Window Window
	Offset int
	Days   []DayCell
	Stats  MonthStats
}

// BuildGrid evaluates every per-day query for each day of w. selected may be
// nil when no day is selected.
func BuildGrid(w Window, tasks Tasks, today Date, selected RawDate) Grid {
	n := w.Len()
	g := Grid{
		Window: w,
		Offset: w.FirstWeekdayOffset(),
		Days:   make([]DayCell, 0, n),
		Stats:  tasks.MonthStats(w),
	}
	for i := 1; i <= n; i++ {
		day := w.Day(i)
		g.Days = append(g.Days, DayCell{
			Date:         day,
			Count:        tasks.Count(day),
			Completed:    tasks.CompletedCount(day),
			HasTasks:     tasks.HasTasks(day),
			AllCompleted: tasks.AllCompleted(day),
			IsToday:      IsToday(day, today),
			IsPast:       IsPast(day, today),
			IsWeekend:    IsWeekend(day),
			IsSelected:   SameDay(selected, day),
		})
	}
	return g
}

// Cells returns Offset+len(Days) entries; leading blanks are nil.
func (g Grid) Cells() []*DayCell {
	cells := make([]*DayCell, g.Offset, g.Offset+len(g.Days))
	for i := range g.Days {
		cells = append(cells, &g.Days[i])
	}
	return cells
}
