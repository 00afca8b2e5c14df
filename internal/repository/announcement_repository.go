package repository

import (
	"errors"

	"github.com/Jh18L/sxt/internal/model"

	"gorm.io/gorm"
)

type AnnouncementRepository struct {
	DB *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{DB: db}
}

// FindByType 未配置时返回 nil
func (r *AnnouncementRepository) FindByType(announcementType string) (*model.Announcement, error) {
	var ann model.Announcement
	err := r.DB.Where("type = ?", announcementType).First(&ann).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ann, nil
}

// Upsert 每种类型仅一条
func (r *AnnouncementRepository) Upsert(announcementType, content string) (*model.Announcement, error) {
	existing, err := r.FindByType(announcementType)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		ann := &model.Announcement{Type: announcementType, Content: content}
		if err := r.DB.Create(ann).Error; err != nil {
			return nil, err
		}
		return ann, nil
	}
	existing.Content = content
	if err := r.DB.Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *AnnouncementRepository) All() ([]model.Announcement, error) {
	var anns []model.Announcement
	err := r.DB.Order("type").Find(&anns).Error
	return anns, err
}
