package model

import "time"

// User links an owner identifier to chat metadata for the Telegram front end.
// HTTP owners come from verified tokens and do not need a row here.
type User struct {
	ID         string `gorm:"primaryKey"`
	TelegramID *int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
