package repository

import (
	"time"

	"github.com/Jh18L/sxt/internal/model"

	"gorm.io/gorm"
)

type ApiLogRepository struct {
	DB *gorm.DB
}

func NewApiLogRepository(db *gorm.DB) *ApiLogRepository {
	return &ApiLogRepository{DB: db}
}

func (r *ApiLogRepository) Create(log *model.ApiLog) error {
	return r.DB.Create(log).Error
}

func (r *ApiLogRepository) List(page, size int) ([]model.ApiLog, int64, error) {
	var total int64
	if err := r.DB.Model(&model.ApiLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.ApiLog
	err := r.DB.
		Order("timestamp DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&logs).Error
	return logs, total, err
}

// DeleteOlderThan 清理早于 cutoff 的流水，返回实际删除条数。
// 流水只增不改，物理删除以释放空间。
func (r *ApiLogRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.DB.Unscoped().Where("timestamp < ?", cutoff).Delete(&model.ApiLog{})
	return result.RowsAffected, result.Error
}
