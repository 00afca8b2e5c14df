package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jh18L/sxt/internal/model"
	"github.com/Jh18L/sxt/internal/sxt"
	"github.com/Jh18L/sxt/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordLoginCreatesUserAndIssuesJWT(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// 上游收到的必须是密文
		assert.NotEqual(t, "123456", req["password"])
		w.Write([]byte(`{"success":true,"data":{"token":"up-tok","refreshToken":"up-ref","tokenExpiryDate":1700000000000}}`))
	}))
	defer srv.Close()

	db := newTestDB(t)
	userRepo, _, _, _ := newRepos(db)
	cfg := testAppConfig(srv.URL)
	svc := NewAuthService(userRepo, sxt.NewClient(cfg.Sxt, nil), nil, cfg)

	result, err := svc.PasswordLogin(context.Background(), "13800000000", "123456")
	require.NoError(t, err)
	require.Nil(t, result.Rejected)
	require.NotNil(t, result.User)

	// 签发的 JWT 解出来的账号与输入一致
	claims, err := util.ParseJWT(result.Token, cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, "13800000000", claims.Account)
	assert.Equal(t, result.User.ID, claims.UserID)

	stored, err := userRepo.FindByAccount("13800000000")
	require.NoError(t, err)
	assert.Equal(t, "up-tok", stored.Token)
	assert.Equal(t, "up-ref", stored.RefreshToken)
	assert.Equal(t, "123456", stored.PlainPassword)
	assert.Equal(t, model.AccountTypePassword, stored.AccountType)
	assert.False(t, stored.LastLoginAt.IsZero())

	// 重复登录不产生第二条记录
	_, err = svc.PasswordLogin(context.Background(), "13800000000", "123456")
	require.NoError(t, err)
	count, err := userRepo.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestPasswordLoginRejectedPassesEnvelopeThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"账号或密码错误"}`))
	}))
	defer srv.Close()

	db := newTestDB(t)
	userRepo, _, _, _ := newRepos(db)
	cfg := testAppConfig(srv.URL)
	svc := NewAuthService(userRepo, sxt.NewClient(cfg.Sxt, nil), nil, cfg)

	result, err := svc.PasswordLogin(context.Background(), "13800000000", "wrong")
	require.NoError(t, err)
	require.NotNil(t, result.Rejected)
	assert.Equal(t, "账号或密码错误", result.Rejected.Message)

	// 拒绝的登录不建档
	count, err := userRepo.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestAuthCodeLoginDetectsNeedBind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/passport/api/auth/login":
			w.Write([]byte(`{"success":true,"data":{"token":"up-tok","refreshToken":"up-ref"}}`))
		case "/sxt/api/class_join/checkStudentNeedJoinClass":
			w.Write([]byte(`{"success":true,"data":true}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	db := newTestDB(t)
	userRepo, _, _, _ := newRepos(db)
	cfg := testAppConfig(srv.URL)
	svc := NewAuthService(userRepo, sxt.NewClient(cfg.Sxt, nil), nil, cfg)

	result, err := svc.AuthCodeLogin(context.Background(), "13900000000", "8888")
	require.NoError(t, err)
	assert.True(t, result.NeedBind)
	assert.Equal(t, "up-tok", result.User.Token)
	assert.Empty(t, result.Token, "未绑定不签发本服务令牌")

	// 未绑定的账号不建档
	count, err := userRepo.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestAuthCodeLoginBoundAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/passport/api/auth/login":
			w.Write([]byte(`{"success":true,"data":{"token":"up-tok","refreshToken":"up-ref"}}`))
		case "/sxt/api/class_join/checkStudentNeedJoinClass":
			w.Write([]byte(`{"success":true,"data":false}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	db := newTestDB(t)
	userRepo, _, _, _ := newRepos(db)
	cfg := testAppConfig(srv.URL)
	svc := NewAuthService(userRepo, sxt.NewClient(cfg.Sxt, nil), nil, cfg)

	result, err := svc.AuthCodeLogin(context.Background(), "13900000000", "8888")
	require.NoError(t, err)
	assert.False(t, result.NeedBind)
	assert.NotEmpty(t, result.Token)

	stored, err := userRepo.FindByAccount("13900000000")
	require.NoError(t, err)
	assert.Equal(t, model.AccountTypeAuthCode, stored.AccountType)
	assert.Equal(t, "13900000000", stored.PhoneNumber)
}
