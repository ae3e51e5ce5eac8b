package model

import "time"

// Task is a to-do item. DueDate holds a calendar day as "YYYY-MM-DD" so that
// no timezone conversion can move it to a neighbouring day.
type Task struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index"`
	CategoryID  *uint  `gorm:"index"`
	ExternalID  string `gorm:"index"`
	Title       string
	Description string
	DueDate     *string `gorm:"size:10;index"`
	IsCompleted bool    `gorm:"default:false"`
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasDueDate reports whether the task is placed on the calendar.
func (t Task) HasDueDate() bool {
	return t.DueDate != nil && *t.DueDate != ""
}
