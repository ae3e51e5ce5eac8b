package service

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD")
)

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
