package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/service"
	"github.com/Jh18L/sxt/internal/sxt"
	"github.com/Jh18L/sxt/internal/util"
	"github.com/Jh18L/sxt/pkg/database"
	"github.com/Jh18L/sxt/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)
}

func setupLoginRouter(t *testing.T, upstreamBase string) (*gin.Engine, *config.Config) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Sxt: config.SxtConfig{
			APIBase:        upstreamBase,
			PortalBase:     upstreamBase,
			Timeout:        5 * time.Second,
			MinInterval:    time.Millisecond,
			SmsMinInterval: time.Millisecond,
		},
	}

	userRepo := repository.NewUserRepository(db)
	authSvc := service.NewAuthService(userRepo, sxt.NewClient(cfg.Sxt, nil), nil, cfg)
	c := NewAuthController(authSvc)

	router := gin.New()
	router.POST("/api/auth/login/password", c.PasswordLogin)
	router.POST("/api/auth/login/authcode", c.AuthCodeLogin)
	return router, cfg
}

func TestPasswordLoginEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"token":"up-tok","refreshToken":"up-ref"}}`))
	}))
	defer srv.Close()

	router, cfg := setupLoginRouter(t, srv.URL)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login/password",
		strings.NewReader(`{"account":"13800000000","password":"123456"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
			User  struct {
				Account string `json:"account"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "13800000000", body.Data.User.Account)

	claims, err := util.ParseJWT(body.Data.Token, cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, "13800000000", claims.Account)
}

func TestPasswordLoginEndpointRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"账号或密码错误"}`))
	}))
	defer srv.Close()

	router, _ := setupLoginRouter(t, srv.URL)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login/password",
		strings.NewReader(`{"account":"13800000000","password":"bad"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "账号或密码错误")
}

func TestAuthCodeLoginEndpointAcceptsAccountField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"token":"up-tok","refreshToken":"up-ref"}}`))
	}))
	defer srv.Close()

	router, cfg := setupLoginRouter(t, srv.URL)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login/authcode",
		strings.NewReader(`{"account":"13800000000","authCode":"8888"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)

	claims, err := util.ParseJWT(body.Data.Token, cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, "13800000000", claims.Account)
}

func TestPasswordLoginEndpointValidatesBody(t *testing.T) {
	router, _ := setupLoginRouter(t, "http://127.0.0.1:0")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login/password",
		strings.NewReader(`{"account":"13800000000"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
