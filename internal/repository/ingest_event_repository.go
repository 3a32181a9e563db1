package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/n-spicher/shipwright/internal/model"
)

type IngestEventRepository struct {
	db *gorm.DB
}

func NewIngestEventRepository(db *gorm.DB) *IngestEventRepository {
	return &IngestEventRepository{db: db}
}

func (r *IngestEventRepository) Create(event *model.IngestEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("create ingest event failed: %w", err)
	}
	return nil
}

func (r *IngestEventRepository) ListByUserID(userID uint, limit int) ([]model.IngestEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var events []model.IngestEvent
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list ingest events failed: %w", err)
	}
	return events, nil
}
