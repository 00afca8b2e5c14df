package controller

import (
	"errors"
	"net/http"

	"github.com/Jh18L/sxt/internal/service"
	"github.com/Jh18L/sxt/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

type PasswordLoginRequest struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthCodeLoginRequest struct {
	Account  string `json:"account" binding:"required"`
	AuthCode string `json:"authCode" binding:"required"`
}

// PasswordLogin godoc
// @Summary 账号密码登录
// @Description 透传生学堂账号密码登录，成功后签发本服务令牌
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body PasswordLoginRequest true "登录信息"
// @Success 200 {object} util.Response "登录成功"
// @Failure 401 {object} util.Response "账号或密码错误"
// @Router /api/auth/login/password [post]
func (c *AuthController) PasswordLogin(ctx *gin.Context) {
	var req PasswordLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AuthService.PasswordLogin(ctx.Request.Context(), req.Account, req.Password)
	if err != nil {
		respondUpstreamError(ctx, err)
		return
	}
	if result.Rejected != nil {
		ctx.JSON(http.StatusUnauthorized, upstreamResponse{
			Success: false,
			Data:    result.Rejected.Data,
			Message: result.Rejected.Message,
		})
		return
	}

	util.Success(ctx, gin.H{
		"token": result.Token,
		"user":  result.User,
	})
}

// AuthCodeLogin godoc
// @Summary 手机验证码登录
// @Description 验证码登录；账号未绑定学生时返回 needBind 与临时令牌
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body AuthCodeLoginRequest true "账号与验证码"
// @Success 200 {object} util.Response "登录成功或需要绑定"
// @Failure 401 {object} util.Response "验证码错误"
// @Router /api/auth/login/authcode [post]
func (c *AuthController) AuthCodeLogin(ctx *gin.Context) {
	var req AuthCodeLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AuthService.AuthCodeLogin(ctx.Request.Context(), req.Account, req.AuthCode)
	if err != nil {
		respondUpstreamError(ctx, err)
		return
	}
	if result.Rejected != nil {
		ctx.JSON(http.StatusUnauthorized, upstreamResponse{
			Success: false,
			Data:    result.Rejected.Data,
			Message: result.Rejected.Message,
		})
		return
	}
	if result.NeedBind {
		util.SuccessMessage(ctx, gin.H{
			"needBind":     true,
			"token":        result.User.Token,
			"refreshToken": result.User.RefreshToken,
		}, "账号尚未绑定学生，请先绑定")
		return
	}

	util.Success(ctx, gin.H{
		"token": result.Token,
		"user":  result.User,
	})
}

type SendSmsRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

type ValidSmsRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	AuthCode    string `json:"authCode" binding:"required"`
}

// SendSms godoc
// @Summary 发送短信验证码
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body SendSmsRequest true "手机号"
// @Success 200 {object} util.Response
// @Failure 429 {object} util.Response "发送过于频繁"
// @Router /api/auth/sms/send [post]
func (c *AuthController) SendSms(ctx *gin.Context) {
	var req SendSmsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	env, err := c.AuthService.SendAuthCode(ctx.Request.Context(), req.PhoneNumber)
	if err != nil {
		if errors.Is(err, service.ErrSmsCooldown) {
			util.Error(ctx, http.StatusTooManyRequests, err.Error())
			return
		}
		respondUpstreamError(ctx, err)
		return
	}
	passThrough(ctx, env, false)
}

// ValidSms godoc
// @Summary 校验短信验证码
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body ValidSmsRequest true "手机号与验证码"
// @Success 200 {object} util.Response
// @Router /api/auth/sms/validate [post]
func (c *AuthController) ValidSms(ctx *gin.Context) {
	var req ValidSmsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	env, err := c.AuthService.ValidAuthCode(ctx.Request.Context(), req.PhoneNumber, req.AuthCode)
	if err != nil {
		respondUpstreamError(ctx, err)
		return
	}
	passThrough(ctx, env, false)
}

// CheckBind godoc
// @Summary 查询账号绑定状态
// @Description data 为 true 表示还需绑定学生
// @Tags 认证
// @Produce  json
// @Param   token query string true "上游令牌"
// @Success 200 {object} util.Response
// @Router /api/auth/check-bind [get]
func (c *AuthController) CheckBind(ctx *gin.Context) {
	token := ctx.Query("token")
	if token == "" {
		if user := util.GetUserFromContext(ctx); user != nil {
			token = user.Token
		}
	}
	if token == "" {
		util.BadRequest(ctx, "缺少 token 参数")
		return
	}

	env, err := c.AuthService.CheckBind(ctx.Request.Context(), token)
	if err != nil {
		respondUpstreamError(ctx, err)
		return
	}
	passThrough(ctx, env, false)
}

// Logout godoc
// @Summary 登出
// @Description 尽力通知上游解绑，本地登出总是成功
// @Tags 认证
// @Produce  json
// @Success 200 {object} util.Response
// @Router /api/auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	c.AuthService.Logout(ctx.Request.Context(), user)
	util.SuccessMessage(ctx, nil, "已登出")
}
