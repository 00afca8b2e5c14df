package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/internal/model"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/util"
	"github.com/Jh18L/sxt/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *repository.UserRepository, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
	}

	router := gin.New()
	router.GET("/protected", AuthMiddleware(userRepo, cfg), func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		util.Success(c, gin.H{"account": user.Account})
	})
	return router, userRepo, cfg
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	router, _, _ := setupAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	router, _, _ := setupAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareLoadsUser(t *testing.T) {
	router, userRepo, cfg := setupAuthRouter(t)

	user := &model.User{Account: "13800000000"}
	require.NoError(t, userRepo.Create(user))
	token, err := util.GenerateJWT(user, cfg.JWT.Secret, cfg.JWT.ExpireTime)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "13800000000")
}

func TestAuthMiddlewareBlocksBannedUserWithReason(t *testing.T) {
	router, userRepo, cfg := setupAuthRouter(t)

	user := &model.User{Account: "13800000000"}
	require.NoError(t, userRepo.Create(user))
	token, err := util.GenerateJWT(user, cfg.JWT.Secret, cfg.JWT.ExpireTime)
	require.NoError(t, err)

	_, err = userRepo.SetBanState(user.ID, true, "恶意刷接口")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var body struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		IsBanned  bool   `json:"isBanned"`
		BanReason string `json:"banReason"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.True(t, body.IsBanned)
	assert.Equal(t, "恶意刷接口", body.BanReason)

	// 解禁后恢复访问
	_, err = userRepo.SetBanState(user.ID, false, "")
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminMiddlewareRejectsStudentToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}

	router := gin.New()
	router.GET("/admin", AdminMiddleware(cfg), func(c *gin.Context) {
		util.Success(c, nil)
	})

	// 学生令牌不能进管理端
	studentToken, err := util.GenerateJWT(&model.User{Account: "13800000000"}, cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken, err := util.GenerateAdminJWT("admin", cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
