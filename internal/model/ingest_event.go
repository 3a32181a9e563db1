package model

import "time"

// IngestEvent is an audit record for a completed document ingestion.
// Events are published to RabbitMQ and persisted by a background worker.
type IngestEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	DocumentID string    `gorm:"size:36;not null;index" json:"document_id"`
	Filename   string    `gorm:"size:256;not null" json:"filename"`
	ChunkCount int       `gorm:"not null" json:"chunk_count"`
	Status     string    `gorm:"size:32;not null" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
