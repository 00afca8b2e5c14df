package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Jh18L/sxt/internal/model"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/util"
	"github.com/Jh18L/sxt/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const snapshotVersion = 1

// Snapshot 全量备份文件结构
type Snapshot struct {
	ID            string               `json:"id"`
	Version       int                  `json:"version"`
	ExportedAt    time.Time            `json:"exportedAt"`
	Users         []model.User         `json:"users"`
	ExamReports   []model.ExamReport   `json:"examReports"`
	Announcements []model.Announcement `json:"announcements"`
}

// ImportStats 导入结果统计
type ImportStats struct {
	Users         int `json:"users"`
	ExamReports   int `json:"examReports"`
	Announcements int `json:"announcements"`
}

type BackupService struct {
	UserRepo         *repository.UserRepository
	ReportRepo       *repository.ExamReportRepository
	AnnouncementRepo *repository.AnnouncementRepository
	Storage          StorageProvider
}

func NewBackupService(userRepo *repository.UserRepository, reportRepo *repository.ExamReportRepository, annRepo *repository.AnnouncementRepository, storage StorageProvider) *BackupService {
	return &BackupService{
		UserRepo:         userRepo,
		ReportRepo:       reportRepo,
		AnnouncementRepo: annRepo,
		Storage:          storage,
	}
}

// Export 导出全量快照并归档一份到备份存储。
// 归档失败只记日志，不影响本次导出结果。
func (s *BackupService) Export(ctx context.Context) (*Snapshot, error) {
	users, err := s.UserRepo.All()
	if err != nil {
		return nil, err
	}
	reports, err := s.ReportRepo.All()
	if err != nil {
		return nil, err
	}
	anns, err := s.AnnouncementRepo.All()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:            uuid.NewString(),
		Version:       snapshotVersion,
		ExportedAt:    time.Now(),
		Users:         users,
		ExamReports:   reports,
		Announcements: anns,
	}

	if s.Storage != nil {
		data, err := json.Marshal(snap)
		if err == nil {
			filename := fmt.Sprintf("backup-%s-%s.json", snap.ExportedAt.Format("20060102-150405"), snap.ID[:8])
			if _, err := s.Storage.Upload(ctx, filename, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
				logger.Log.Warn("备份归档失败", zap.String("file", filename), zap.Error(err))
			}
		}
	}
	return snap, nil
}

// Import 从快照恢复数据。用户按账号、报告按 (userId, examId)、
// 公示按类型覆盖，快照里没有的本地数据保持不动。
func (s *BackupService) Import(data []byte) (*ImportStats, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, util.ErrInvalidSnapshot
	}
	if snap.Version != snapshotVersion || (len(snap.Users) == 0 && len(snap.ExamReports) == 0 && len(snap.Announcements) == 0) {
		return nil, util.ErrInvalidSnapshot
	}

	stats := &ImportStats{}

	for i := range snap.Users {
		u := snap.Users[i]
		if u.Account == "" {
			continue
		}
		existing, err := s.UserRepo.FindByAccount(u.Account)
		switch {
		case err == nil:
			u.ID = existing.ID
			u.CreatedAt = existing.CreatedAt
			if err := s.UserRepo.Save(&u); err != nil {
				return nil, err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			u.ID = 0
			if err := s.UserRepo.Create(&u); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
		stats.Users++
	}

	for i := range snap.ExamReports {
		r := snap.ExamReports[i]
		if r.SxtUserID == "" || r.ExamID == "" {
			continue
		}
		if err := s.ReportRepo.Upsert(&r); err != nil {
			return nil, err
		}
		stats.ExamReports++
	}

	for _, ann := range snap.Announcements {
		if !model.ValidAnnouncementType(ann.Type) {
			continue
		}
		if _, err := s.AnnouncementRepo.Upsert(ann.Type, ann.Content); err != nil {
			return nil, err
		}
		stats.Announcements++
	}

	return stats, nil
}
