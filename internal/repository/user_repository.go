package repository

import (
	"time"

	"github.com/Jh18L/sxt/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) Save(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByAccount(account string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("account = ?", account).First(&user).Error
	return &user, err
}

func (r *UserRepository) UpdateLastSeen(userID uint) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_seen_at", time.Now()).
		Error
}

// SetBanState 封禁或解禁。解禁时理由一并清空。
func (r *UserRepository) SetBanState(userID uint, banned bool, reason string) (*model.User, error) {
	if !banned {
		reason = ""
	}
	updates := map[string]interface{}{
		"is_banned":  banned,
		"ban_reason": reason,
	}
	if err := r.DB.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.FindByID(userID)
}

// ListParams 管理后台用户检索条件
type ListParams struct {
	Page     int
	Size     int
	Search   string
	SchoolID string
	ClassID  string
}

func (r *UserRepository) List(p ListParams) ([]model.User, int64, error) {
	query := r.scopeList(p)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := query.
		Order("created_at DESC").
		Offset((p.Page - 1) * p.Size).
		Limit(p.Size).
		Find(&users).Error
	return users, total, err
}

func (r *UserRepository) scopeList(p ListParams) *gorm.DB {
	query := r.DB.Model(&model.User{})
	if p.Search != "" {
		like := "%" + p.Search + "%"
		query = query.Where("account LIKE ? OR name LIKE ? OR phone_number LIKE ?", like, like, like)
	}
	if p.SchoolID != "" {
		query = query.Where("school_id = ?", p.SchoolID)
	}
	if p.ClassID != "" {
		query = query.Where("class_id = ?", p.ClassID)
	}
	return query
}

type SchoolStat struct {
	SchoolID   string `json:"schoolId"`
	SchoolName string `json:"schoolName"`
	Count      int64  `json:"count"`
}

type ClassStat struct {
	ClassID    string `json:"classId"`
	ClassName  string `json:"className"`
	SchoolName string `json:"schoolName"`
	Count      int64  `json:"count"`
}

func (r *UserRepository) SchoolStats(p ListParams) ([]SchoolStat, error) {
	var stats []SchoolStat
	err := r.scopeList(p).
		Select("school_id, school_name, COUNT(*) AS count").
		Where("school_id <> ''").
		Group("school_id, school_name").
		Order("count DESC").
		Scan(&stats).Error
	return stats, err
}

func (r *UserRepository) ClassStats(p ListParams) ([]ClassStat, error) {
	var stats []ClassStat
	err := r.scopeList(p).
		Select("class_id, class_name, school_name, COUNT(*) AS count").
		Where("class_id <> ''").
		Group("class_id, class_name, school_name").
		Order("count DESC").
		Scan(&stats).Error
	return stats, err
}

func (r *UserRepository) ListBanned(page, size int) ([]model.User, int64, error) {
	query := r.DB.Model(&model.User{}).Where("is_banned = ?", true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := query.
		Order("updated_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&users).Error
	return users, total, err
}

func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Count(&count).Error
	return count, err
}

func (r *UserRepository) CountBanned() (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("is_banned = ?", true).Count(&count).Error
	return count, err
}

func (r *UserRepository) CountLoginSince(t time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("last_login_at >= ?", t).Count(&count).Error
	return count, err
}

func (r *UserRepository) CountSeenSince(t time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("last_seen_at >= ?", t).Count(&count).Error
	return count, err
}

func (r *UserRepository) CountCreatedSince(t time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("created_at >= ?", t).Count(&count).Error
	return count, err
}

// All 导出备份用，按创建时间排序
func (r *UserRepository) All() ([]model.User, error) {
	var users []model.User
	err := r.DB.Order("created_at").Find(&users).Error
	return users, err
}
