package repository

import (
	"errors"
	"time"

	"github.com/Jh18L/sxt/internal/model"

	"gorm.io/gorm"
)

type ExamReportRepository struct {
	DB *gorm.DB
}

func NewExamReportRepository(db *gorm.DB) *ExamReportRepository {
	return &ExamReportRepository{DB: db}
}

// FindByUserAndExam 缓存记录查询，未命中返回 nil
func (r *ExamReportRepository) FindByUserAndExam(sxtUserID, examID string) (*model.ExamReport, error) {
	var report model.ExamReport
	err := r.DB.Where("sxt_user_id = ? AND exam_id = ?", sxtUserID, examID).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// FindByUserAndField 按科目数据定位缓存记录：某个分析列已填充且其
// examCourseId 与请求一致。形状不一致按未命中处理。
func (r *ExamReportRepository) FindByUserAndField(sxtUserID string, field model.ReportField, examCourseID string) (*model.ExamReport, error) {
	var courseColumn string
	switch field {
	case model.FieldQuestion:
		courseColumn = "question_course_id"
	case model.FieldPoint:
		courseColumn = "point_course_id"
	case model.FieldAbility:
		courseColumn = "ability_course_id"
	default:
		return nil, errors.New("field has no course id column")
	}

	var report model.ExamReport
	err := r.DB.
		Where("sxt_user_id = ? AND "+courseColumn+" = ?", sxtUserID, examCourseID).
		Where(string(field) + " IS NOT NULL").
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// SaveExamMeta 考试列表落库：按 (userId, examId) 覆盖考试元数据
func (r *ExamReportRepository) SaveExamMeta(sxtUserID, account, examID, examName string, examData model.JSON) error {
	report, err := r.FindByUserAndExam(sxtUserID, examID)
	if err != nil {
		return err
	}
	if report == nil {
		return r.DB.Create(&model.ExamReport{
			SxtUserID: sxtUserID,
			Account:   account,
			ExamID:    examID,
			ExamName:  examName,
			ExamData:  examData,
			FetchedAt: time.Now(),
		}).Error
	}
	return r.DB.Model(report).Updates(map[string]interface{}{
		"exam_name":  examName,
		"exam_data":  examData,
		"fetched_at": time.Now(),
	}).Error
}

// UpsertField 缓存写入唯一入口：填充单个数据列，记录不存在则创建。
// 并发未命中时两次写入均成功，后写覆盖，数据对同一考试幂等，可接受。
func (r *ExamReportRepository) UpsertField(sxtUserID, account, examID string, field model.ReportField, value model.JSON, examCourseID string) error {
	updates := map[string]interface{}{
		string(field): value,
		"fetched_at":  time.Now(),
	}
	switch field {
	case model.FieldQuestion:
		updates["question_course_id"] = examCourseID
	case model.FieldPoint:
		updates["point_course_id"] = examCourseID
	case model.FieldAbility:
		updates["ability_course_id"] = examCourseID
	}

	report, err := r.FindByUserAndExam(sxtUserID, examID)
	if err != nil {
		return err
	}
	if report == nil {
		report = &model.ExamReport{
			SxtUserID: sxtUserID,
			Account:   account,
			ExamID:    examID,
		}
		if err := r.DB.Create(report).Error; err != nil {
			return err
		}
	}
	return r.DB.Model(report).Updates(updates).Error
}

// ReportListParams 管理后台报告检索条件
type ReportListParams struct {
	Page   int
	Size   int
	Search string
	ExamID string
}

func (r *ExamReportRepository) List(p ReportListParams) ([]model.ExamReport, int64, error) {
	query := r.DB.Model(&model.ExamReport{})
	if p.Search != "" {
		like := "%" + p.Search + "%"
		query = query.Where("exam_name LIKE ? OR account LIKE ?", like, like)
	}
	if p.ExamID != "" {
		query = query.Where("exam_id = ?", p.ExamID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []model.ExamReport
	err := query.
		Order("created_at DESC").
		Offset((p.Page - 1) * p.Size).
		Limit(p.Size).
		Find(&reports).Error
	return reports, total, err
}

type ExamStat struct {
	ExamID    string `json:"examId"`
	ExamName  string `json:"examName"`
	UserCount int64  `json:"userCount"`
}

// ExamStats 报告筛选用的考试清单，附每场考试的报告人数
func (r *ExamReportRepository) ExamStats(limit int) ([]ExamStat, error) {
	var stats []ExamStat
	err := r.DB.Model(&model.ExamReport{}).
		Select("exam_id, MAX(exam_name) AS exam_name, COUNT(*) AS user_count").
		Group("exam_id").
		Order("user_count DESC").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}

func (r *ExamReportRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExamReport{}).Count(&count).Error
	return count, err
}

func (r *ExamReportRepository) All() ([]model.ExamReport, error) {
	var reports []model.ExamReport
	err := r.DB.Order("created_at").Find(&reports).Error
	return reports, err
}

// Upsert 备份导入用，按 (userId, examId) 定位
func (r *ExamReportRepository) Upsert(report *model.ExamReport) error {
	existing, err := r.FindByUserAndExam(report.SxtUserID, report.ExamID)
	if err != nil {
		return err
	}
	if existing == nil {
		report.ID = 0
		return r.DB.Create(report).Error
	}
	report.ID = existing.ID
	return r.DB.Save(report).Error
}
