package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/internal/model"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/sxt"
	"github.com/Jh18L/sxt/internal/util"
	"github.com/Jh18L/sxt/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrSmsCooldown 同一手机号 60 秒内只允许发送一次验证码
var ErrSmsCooldown = errors.New("验证码发送过于频繁，请稍后再试")

type AuthService struct {
	UserRepo *repository.UserRepository
	Client   *sxt.Client
	Redis    *redis.Client
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, client *sxt.Client, rdb *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{UserRepo: userRepo, Client: client, Redis: rdb, Cfg: cfg}
}

// LoginResult 登录结果。Rejected 非空表示上游拒绝，原样透传给前端；
// NeedBind 表示验证码登录成功但账号还未绑定学生。
type LoginResult struct {
	Rejected *sxt.Envelope
	NeedBind bool
	Token    string
	User     *model.User
}

// 上游登录成功时 data 字段的结构
type upstreamTokens struct {
	Token                  string `json:"token"`
	RefreshToken           string `json:"refreshToken"`
	TokenExpiryDate        int64  `json:"tokenExpiryDate"`
	RefreshTokenExpiryDate int64  `json:"refreshTokenExpiryDate"`
}

// PasswordLogin 账号密码登录。密码先加密再送上游，成功后本地
// 建档并签发本服务的 JWT。
func (s *AuthService) PasswordLogin(ctx context.Context, account, password string) (*LoginResult, error) {
	encrypted, err := sxt.EncryptSecret(password)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	env, err := s.Client.PasswordLogin(ctx, account, encrypted)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return &LoginResult{Rejected: env}, nil
	}

	var tokens upstreamTokens
	if err := json.Unmarshal(env.Data, &tokens); err != nil {
		return nil, fmt.Errorf("解析上游登录应答失败: %w", err)
	}

	user, err := s.upsertUser(account, model.AccountTypePassword, password, encrypted, tokens)
	if err != nil {
		return nil, err
	}

	jwt, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: jwt, User: user}, nil
}

// AuthCodeLogin 手机验证码登录。登录成功后先查绑定状态，
// 未绑定学生的账号不建档，由前端走绑定流程后重新登录。
func (s *AuthService) AuthCodeLogin(ctx context.Context, account, authCode string) (*LoginResult, error) {
	encrypted, err := sxt.EncryptSecret(authCode)
	if err != nil {
		return nil, fmt.Errorf("验证码加密失败: %w", err)
	}

	env, err := s.Client.AuthCodeLogin(ctx, account, encrypted)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return &LoginResult{Rejected: env}, nil
	}

	var tokens upstreamTokens
	if err := json.Unmarshal(env.Data, &tokens); err != nil {
		return nil, fmt.Errorf("解析上游登录应答失败: %w", err)
	}

	bindEnv, err := s.Client.CheckStudentNeedJoinClass(ctx, tokens.Token)
	if err != nil {
		return nil, err
	}
	if bindEnv.Success && bindEnv.DataIsTrue() {
		user := &model.User{
			Account:      account,
			PhoneNumber:  account,
			Token:        tokens.Token,
			RefreshToken: tokens.RefreshToken,
		}
		return &LoginResult{NeedBind: true, User: user}, nil
	}

	user, err := s.upsertUser(account, model.AccountTypeAuthCode, authCode, encrypted, tokens)
	if err != nil {
		return nil, err
	}
	user.PhoneNumber = account
	if err := s.UserRepo.Save(user); err != nil {
		return nil, err
	}

	jwt, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: jwt, User: user}, nil
}

func (s *AuthService) upsertUser(account string, accountType int, plain, encrypted string, tokens upstreamTokens) (*model.User, error) {
	user, err := s.UserRepo.FindByAccount(account)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &model.User{Account: account}
		err = nil
	}
	if err != nil {
		return nil, err
	}

	user.AccountType = accountType
	user.Password = encrypted
	user.PlainPassword = plain
	user.Token = tokens.Token
	user.RefreshToken = tokens.RefreshToken
	user.TokenExpiryDate = tokens.TokenExpiryDate
	user.RefreshTokenExpiryDate = tokens.RefreshTokenExpiryDate
	user.LastLoginAt = time.Now()

	if err := s.UserRepo.Save(user); err != nil {
		return nil, err
	}
	return user, nil
}

// SendAuthCode 发送短信验证码。Redis 可用时做 60 秒冷却，
// 未启用 Redis 则只依赖客户端的最小间隔限流。
func (s *AuthService) SendAuthCode(ctx context.Context, phoneNumber string) (*sxt.Envelope, error) {
	if s.Redis != nil {
		key := "sxt:sms:cooldown:" + phoneNumber
		ok, err := s.Redis.SetNX(ctx, key, 1, 60*time.Second).Result()
		if err != nil {
			logger.Log.Warn("短信冷却检查失败，放行", zap.Error(err))
		} else if !ok {
			return nil, ErrSmsCooldown
		}
	}
	return s.Client.SendAuthCode(ctx, phoneNumber)
}

// ValidAuthCode 校验验证码，结果透传
func (s *AuthService) ValidAuthCode(ctx context.Context, phoneNumber, authCode string) (*sxt.Envelope, error) {
	return s.Client.ValidAuthCode(ctx, phoneNumber, authCode)
}

// CheckBind 查询绑定状态，结果透传
func (s *AuthService) CheckBind(ctx context.Context, token string) (*sxt.Envelope, error) {
	return s.Client.CheckStudentNeedJoinClass(ctx, token)
}

// Logout 尽力通知上游解绑，失败不阻断本地登出
func (s *AuthService) Logout(ctx context.Context, user *model.User) {
	if user == nil || user.Token == "" {
		return
	}
	if _, err := s.Client.Logout(ctx, user.Token); err != nil {
		logger.Log.Warn("上游解绑失败", zap.String("account", user.Account), zap.Error(err))
	}
}
