package model

import "time"

// Category labels tasks (work, personal, studies, health, ...). Names are
// unique per user.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"uniqueIndex:idx_user_category_name"`
	Name      string `gorm:"uniqueIndex:idx_user_category_name"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:CategoryID"`
}
