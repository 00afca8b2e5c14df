package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jh18L/sxt/internal/sxt"
	"github.com/Jh18L/sxt/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondUpstreamErrorFallbackMessage(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/api/exam/list", nil)

	// 上游错误没带消息时也不能给前端返回空 message
	respondUpstreamError(ctx, &sxt.UpstreamError{Status: http.StatusServiceUnavailable})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "503")
	assert.NotContains(t, w.Body.String(), `"message":""`)
}

func TestRespondUpstreamErrorMessagePassthrough(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/api/exam/list", nil)

	respondUpstreamError(ctx, &sxt.UpstreamError{Status: 500, Message: "系统繁忙"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "系统繁忙")
}

func TestRespondUpstreamErrorIncompleteSession(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/api/exam/list", nil)

	respondUpstreamError(ctx, util.ErrIncompleteSession)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
