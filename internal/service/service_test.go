package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/pkg/database"
	"github.com/Jh18L/sxt/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

// 每个测试一个独立的内存库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func testAppConfig(upstreamBase string) *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			ExpireTime: time.Hour,
		},
		Admin: config.AdminConfig{
			Username:   "admin",
			ExpireTime: time.Hour,
		},
		Sxt: config.SxtConfig{
			APIBase:        upstreamBase,
			PortalBase:     upstreamBase,
			Timeout:        5 * time.Second,
			MinInterval:    time.Millisecond,
			SmsMinInterval: time.Millisecond,
		},
		Cache: config.CacheConfig{
			ReportTTL: time.Hour,
		},
	}
}

func newRepos(db *gorm.DB) (*repository.UserRepository, *repository.ExamReportRepository, *repository.AnnouncementRepository, *repository.ApiLogRepository) {
	return repository.NewUserRepository(db),
		repository.NewExamReportRepository(db),
		repository.NewAnnouncementRepository(db),
		repository.NewApiLogRepository(db)
}
