package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Jh18L/sxt/internal/sxt"
	"github.com/Jh18L/sxt/internal/util"

	"github.com/gin-gonic/gin"
)

// upstreamResponse 上游应答透传结构，cached 表示数据来自本地缓存
type upstreamResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Cached  bool            `json:"cached,omitempty"`
}

func passThrough(ctx *gin.Context, env *sxt.Envelope, cached bool) {
	ctx.JSON(http.StatusOK, upstreamResponse{
		Success: env.Success,
		Data:    env.Data,
		Message: env.Message,
		Cached:  cached,
	})
}

// respondUpstreamError 上游调用失败的统一出口。
// 会话不完整算认证问题，其余一律按服务端错误带可读信息返回。
func respondUpstreamError(ctx *gin.Context, err error) {
	if errors.Is(err, util.ErrIncompleteSession) {
		util.Unauthorized(ctx, err.Error())
		return
	}

	var blocked *sxt.BlockedError
	if errors.As(err, &blocked) {
		util.Error(ctx, http.StatusBadGateway, blocked.Error())
		return
	}

	var upstream *sxt.UpstreamError
	if errors.As(err, &upstream) {
		// Message 可能为空，Error() 会补上带状态码的兜底文案
		util.Error(ctx, http.StatusBadGateway, upstream.Error())
		return
	}

	util.LogInternalError(ctx, err)
}
