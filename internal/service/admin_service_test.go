package service

import (
	"testing"
	"time"

	"github.com/Jh18L/sxt/internal/model"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAdminService(t *testing.T) (*AdminService, *repository.UserRepository, *repository.ApiLogRepository) {
	db := newTestDB(t)
	userRepo, reportRepo, annRepo, apiLogRepo := newRepos(db)

	cfg := testAppConfig("http://127.0.0.1:0")
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg.Admin.PasswordHash = string(hash)

	return NewAdminService(userRepo, reportRepo, apiLogRepo, annRepo, cfg), userRepo, apiLogRepo
}

func TestAdminLogin(t *testing.T) {
	svc, _, _ := newAdminService(t)

	token, err := svc.Login("admin", "s3cret")
	require.NoError(t, err)

	claims, err := util.ParseAdminJWT(token, svc.Cfg.JWT.Secret)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "admin", claims.Username)

	_, err = svc.Login("admin", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = svc.Login("root", "s3cret")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestDashboardOnlineUsersWindow(t *testing.T) {
	db := newTestDB(t)
	userRepo, reportRepo, annRepo, apiLogRepo := newRepos(db)
	svc := NewAdminService(userRepo, reportRepo, apiLogRepo, annRepo, testAppConfig("http://127.0.0.1:0"))

	require.NoError(t, userRepo.Create(&model.User{Account: "13800000001"}))
	require.NoError(t, userRepo.Create(&model.User{Account: "13800000002"}))
	require.NoError(t, userRepo.Create(&model.User{Account: "13800000003"}))

	// 5分钟窗口内外各一个，第三个从未活跃
	require.NoError(t, db.Model(&model.User{}).Where("account = ?", "13800000001").
		UpdateColumn("last_seen_at", time.Now().Add(-2*time.Minute)).Error)
	require.NoError(t, db.Model(&model.User{}).Where("account = ?", "13800000002").
		UpdateColumn("last_seen_at", time.Now().Add(-10*time.Minute)).Error)

	stats, err := svc.Dashboard()
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.OnlineUsers)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, "running", stats.ServerStatus.Status)
	assert.GreaterOrEqual(t, stats.ServerStatus.Uptime, float64(0))
	assert.False(t, stats.ServerStatus.Timestamp.IsZero())
}

func TestBanAndUnban(t *testing.T) {
	svc, userRepo, _ := newAdminService(t)
	require.NoError(t, userRepo.Create(&model.User{Account: "13800000000"}))
	created, err := userRepo.FindByAccount("13800000000")
	require.NoError(t, err)

	banned, err := svc.SetBan(created.ID, true, "刷接口")
	require.NoError(t, err)
	assert.True(t, banned.IsBanned)
	assert.Equal(t, "刷接口", banned.BanReason)

	// 解禁时理由一并清空
	unbanned, err := svc.SetBan(created.ID, false, "")
	require.NoError(t, err)
	assert.False(t, unbanned.IsBanned)
	assert.Empty(t, unbanned.BanReason)
}

func TestUsersListStripsSessionTokens(t *testing.T) {
	svc, userRepo, _ := newAdminService(t)
	require.NoError(t, userRepo.Create(&model.User{
		Account:      "13800000000",
		Token:        "tok",
		RefreshToken: "ref",
	}))

	result, err := svc.Users(repository.ListParams{Page: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, result.List, 1)
	assert.Empty(t, result.List[0].Token)
	assert.Empty(t, result.List[0].RefreshToken)
}

func TestPruneLogsDeletesExactlyOldOnes(t *testing.T) {
	svc, _, apiLogRepo := newAdminService(t)

	now := time.Now()
	for _, age := range []time.Duration{
		31 * 24 * time.Hour,
		45 * 24 * time.Hour,
		10 * 24 * time.Hour,
		time.Hour,
	} {
		require.NoError(t, apiLogRepo.Create(&model.ApiLog{
			Method:    "POST",
			URL:       "/passport/api/auth/login",
			Timestamp: now.Add(-age),
		}))
	}

	deleted, err := svc.PruneLogs(30)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	_, total, err := apiLogRepo.List(1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestSaveAnnouncementValidatesType(t *testing.T) {
	svc, _, _ := newAdminService(t)

	_, err := svc.SaveAnnouncement("banner", "x")
	assert.ErrorIs(t, err, util.ErrInvalidAnnouncementType)

	ann, err := svc.SaveAnnouncement(model.AnnouncementAgreement, "用户协议内容")
	require.NoError(t, err)
	assert.Equal(t, "用户协议内容", ann.Content)

	// 覆盖式更新，同类型只有一条
	ann, err = svc.SaveAnnouncement(model.AnnouncementAgreement, "新版协议")
	require.NoError(t, err)
	assert.Equal(t, "新版协议", ann.Content)

	anns, err := svc.Announcements()
	require.NoError(t, err)
	assert.Len(t, anns, 1)
}
