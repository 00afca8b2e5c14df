package model

import "time"

// ExamReport 既是考试报告，也是上游数据的读穿缓存记录。
// 以 (SxtUserID, ExamID) 唯一定位；各数据列按接口调用情况独立、
// 懒惰地填充，读取方必须容忍部分为空。
type ExamReport struct {
	BaseModel
	SxtUserID string `gorm:"column:sxt_user_id;size:64;not null;uniqueIndex:idx_user_exam,priority:1" json:"userId"`
	Account   string `gorm:"size:64;index;not null" json:"account"`
	ExamID    string `gorm:"size:64;not null;uniqueIndex:idx_user_exam,priority:2" json:"examId"`
	ExamName  string `gorm:"size:255" json:"examName"`

	ExamData     JSON `json:"examData,omitempty"`
	ScoreData    JSON `json:"scoreData,omitempty"`
	QuestionData JSON `json:"questionData,omitempty"`
	PointData    JSON `json:"pointData,omitempty"`
	AbilityData  JSON `json:"abilityData,omitempty"`

	// 各分析数据对应的 examCourseId。科目不一致视为缓存未命中。
	QuestionCourseID string `gorm:"size:64" json:"questionCourseId,omitempty"`
	PointCourseID    string `gorm:"size:64" json:"pointCourseId,omitempty"`
	AbilityCourseID  string `gorm:"size:64" json:"abilityCourseId,omitempty"`

	FetchedAt time.Time `json:"fetchedAt"`
}

func (ExamReport) TableName() string {
	return "exam_reports"
}

// ReportField 缓存记录中可独立填充的数据列
type ReportField string

const (
	FieldExam     ReportField = "exam_data"
	FieldScore    ReportField = "score_data"
	FieldQuestion ReportField = "question_data"
	FieldPoint    ReportField = "point_data"
	FieldAbility  ReportField = "ability_data"
)

// IsFresh 时效判定唯一入口：距上次写入不足 ttl 即视为新鲜。
// 纯粹基于时间，上游变更不会触发失效。
func IsFresh(updatedAt time.Time, ttl time.Duration) bool {
	return time.Since(updatedAt) < ttl
}
