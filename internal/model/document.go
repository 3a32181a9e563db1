package model

import "time"

// Document is the metadata row for an uploaded PDF. The chunks themselves
// live in the vector index, keyed by this document's ID.
type Document struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Filename  string     `gorm:"size:256;not null" json:"filename"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
