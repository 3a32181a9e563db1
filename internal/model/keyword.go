package model

import "time"

// Keyword is a user-defined term paired with instruction text. Keywords are
// independent of any document; duplicate terms for the same user are allowed.
type Keyword struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Term        string    `gorm:"size:256;not null;index" json:"term"`
	ExampleText string    `gorm:"type:text" json:"example_text"`
	CreatedAt   time.Time `json:"created_at"`
}
