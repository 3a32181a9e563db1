package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/n-spicher/shipwright/internal/model"
)

type KeywordRepository struct {
	db *gorm.DB
}

func NewKeywordRepository(db *gorm.DB) *KeywordRepository {
	return &KeywordRepository{db: db}
}

func (r *KeywordRepository) Create(keyword *model.Keyword) error {
	if err := r.db.Create(keyword).Error; err != nil {
		return fmt.Errorf("create keyword failed: %w", err)
	}
	return nil
}

func (r *KeywordRepository) CreateBatch(keywords []model.Keyword) error {
	if len(keywords) == 0 {
		return nil
	}
	if err := r.db.Create(&keywords).Error; err != nil {
		return fmt.Errorf("create keywords batch failed: %w", err)
	}
	return nil
}

func (r *KeywordRepository) ListByUserID(userID uint) ([]model.Keyword, error) {
	var list []model.Keyword
	if err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list keywords failed: %w", err)
	}
	return list, nil
}

func (r *KeywordRepository) GetByIDAndUserID(id, userID uint) (*model.Keyword, error) {
	var keyword model.Keyword
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&keyword).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get keyword failed: %w", err)
	}
	return &keyword, nil
}

func (r *KeywordRepository) Update(keyword *model.Keyword) error {
	if err := r.db.Save(keyword).Error; err != nil {
		return fmt.Errorf("update keyword failed: %w", err)
	}
	return nil
}

func (r *KeywordRepository) DeleteByIDAndUserID(id, userID uint) error {
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Keyword{}).Error; err != nil {
		return fmt.Errorf("delete keyword failed: %w", err)
	}
	return nil
}
