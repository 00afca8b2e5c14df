package service

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/internal/model"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/sxt"
	"github.com/Jh18L/sxt/internal/util"
	"github.com/Jh18L/sxt/pkg/logger"
	"github.com/Jh18L/sxt/pkg/monitoring"

	"go.uber.org/zap"
)

// AnalysisService 三类科目分析数据（小题、知识点、能力）的读穿缓存。
// 缓存记录按 (userId, examCourseId) 定位，科目对不上一律视为未命中。
type AnalysisService struct {
	ReportRepo *repository.ExamReportRepository
	Client     *sxt.Client
	Cfg        *config.Config
}

func NewAnalysisService(reportRepo *repository.ExamReportRepository, client *sxt.Client, cfg *config.Config) *AnalysisService {
	return &AnalysisService{ReportRepo: reportRepo, Client: client, Cfg: cfg}
}

func (s *AnalysisService) Question(ctx context.Context, user *model.User, examCourseID string, trend int) (*sxt.Envelope, bool, error) {
	return s.fetch(ctx, user, model.FieldQuestion, examCourseID, trend, s.Client.GetStudentQuestion)
}

func (s *AnalysisService) Point(ctx context.Context, user *model.User, examCourseID string, trend int) (*sxt.Envelope, bool, error) {
	return s.fetch(ctx, user, model.FieldPoint, examCourseID, trend, s.Client.GetStudentPoint)
}

func (s *AnalysisService) Ability(ctx context.Context, user *model.User, examCourseID string, trend int) (*sxt.Envelope, bool, error) {
	return s.fetch(ctx, user, model.FieldAbility, examCourseID, trend, s.Client.GetStudentAbility)
}

type analysisCall func(ctx context.Context, sess sxt.Session, classID, examCourseID string, courseChooseTrend int) (*sxt.Envelope, error)

func (s *AnalysisService) fetch(ctx context.Context, user *model.User, field model.ReportField, examCourseID string, trend int, call analysisCall) (*sxt.Envelope, bool, error) {
	sess, err := sessionOf(user)
	if err != nil {
		return nil, false, err
	}
	if user.ClassID == "" {
		return nil, false, util.ErrIncompleteSession
	}

	report, err := s.ReportRepo.FindByUserAndField(user.SxtUserID, field, examCourseID)
	if err != nil {
		return nil, false, err
	}
	if report != nil && model.IsFresh(report.UpdatedAt, s.Cfg.Cache.ReportTTL) {
		monitoring.ReportCacheCounter.WithLabelValues(string(field), "hit").Inc()
		data := normalizeArray(fieldData(report, field))
		return &sxt.Envelope{Success: true, Data: data}, true, nil
	}
	monitoring.ReportCacheCounter.WithLabelValues(string(field), "miss").Inc()

	env, err := call(ctx, sess, user.ClassID, examCourseID, trend)
	if err != nil {
		return nil, false, err
	}
	if env.Success && len(env.Data) > 0 {
		if err := s.ReportRepo.UpsertField(user.SxtUserID, user.Account, examCourseID, field, model.JSON(env.Data), examCourseID); err != nil {
			logger.Log.Warn("分析数据缓存写入失败",
				zap.String("field", string(field)),
				zap.String("examCourseId", examCourseID),
				zap.Error(err))
		}
	}
	return env, false, nil
}

func fieldData(report *model.ExamReport, field model.ReportField) json.RawMessage {
	switch field {
	case model.FieldQuestion:
		return json.RawMessage(report.QuestionData)
	case model.FieldPoint:
		return json.RawMessage(report.PointData)
	case model.FieldAbility:
		return json.RawMessage(report.AbilityData)
	}
	return nil
}

// normalizeArray 前端按数组消费分析数据，历史缓存里的单对象补成数组
func normalizeArray(data json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] == '[' {
		return trimmed
	}
	out := make([]byte, 0, len(trimmed)+2)
	out = append(out, '[')
	out = append(out, trimmed...)
	out = append(out, ']')
	return out
}
