package service

import (
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

type ExamService struct {
	ReportRepo *repository.ExamReportRepository
	Client     *sxt.Client
	Cfg        *config.Config
}

func NewExamService(reportRepo *repository.ExamReportRepository, client *sxt.Client, cfg *config.Config) *ExamService {
	return &ExamService{ReportRepo: reportRepo, Client: client, Cfg: cfg}
}

func sessionOf(user *model.User) (sxt.Session, error) {
	if user == nil || !user.HasSession() {
		return sxt.Session{}, util.ErrIncompleteSession
	}
	return sxt.Session{
		Token:        user.Token,
		RefreshToken: user.RefreshToken,
		UserID:       user.SxtUserID,
	}, nil
}

// List 考试列表。结果透传，同时把每场考试的元数据落库，
// 供后续报告缓存与管理后台检索使用。
func (s *ExamService) List(ctx context.Context, user *model.User, page, size int) (*sxt.Envelope, error) {
	sess, err := sessionOf(user)
	if err != nil {
		return nil, err
	}

	env, err := s.Client.GetExamList(ctx, sess, page, size)
	if err != nil {
		return nil, err
	}
	if env.Success {
		s.persistExamMeta(user, env.Data)
	}
	return env, nil
}

func (s *ExamService) persistExamMeta(user *model.User, data json.RawMessage) {
	var page struct {
		DataList []json.RawMessage `json:"dataList"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return
	}
	for _, raw := range page.DataList {
		var exam struct {
			ID   flexID `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &exam); err != nil || exam.ID == "" {
			continue
		}
		if err := s.ReportRepo.SaveExamMeta(user.SxtUserID, user.Account, string(exam.ID), exam.Name, model.JSON(raw)); err != nil {
			logger.Log.Warn("考试元数据落库失败",
				zap.String("examId", string(exam.ID)), zap.Error(err))
		}
	}
}

// Score 考试成绩单，读穿缓存。TTL 内直接回放本地数据并带 cached 标记，
// 过期或未命中则调上游并将结果写回。
func (s *ExamService) Score(ctx context.Context, user *model.User, examID string) (*sxt.Envelope, bool, error) {
	sess, err := sessionOf(user)
	if err != nil {
		return nil, false, err
	}

	report, err := s.ReportRepo.FindByUserAndExam(user.SxtUserID, examID)
	if err != nil {
		return nil, false, err
	}
	if report != nil && len(report.ScoreData) > 0 && model.IsFresh(report.UpdatedAt, s.Cfg.Cache.ReportTTL) {
		monitoring.ReportCacheCounter.WithLabelValues(string(model.FieldScore), "hit").Inc()
		return &sxt.Envelope{Success: true, Data: json.RawMessage(report.ScoreData)}, true, nil
	}
	monitoring.ReportCacheCounter.WithLabelValues(string(model.FieldScore), "miss").Inc()

	env, err := s.Client.GetExamScore(ctx, sess, examID)
	if err != nil {
		return nil, false, err
	}
	if env.Success && len(env.Data) > 0 {
		if err := s.ReportRepo.UpsertField(user.SxtUserID, user.Account, examID, model.FieldScore, model.JSON(env.Data), ""); err != nil {
			logger.Log.Warn("成绩缓存写入失败", zap.String("examId", examID), zap.Error(err))
		}
	}
	return env, false, nil
}
