package controller

import (
	"github.com/Jh18L/sxt/internal/service"
	"github.com/Jh18L/sxt/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
}

func NewExamController(examService *service.ExamService) *ExamController {
	return &ExamController{ExamService: examService}
}

// List godoc
// @Summary 考试列表
// @Description 透传上游分页考试列表，同时落库考试元数据
// @Tags 考试
// @Produce  json
// @Param   page query int false "页码" default(1)
// @Param   size query int false "每页条数" default(10)
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "用户信息不完整"
// @Router /api/exam/list [get]
func (c *ExamController) List(ctx *gin.Context) {
	page := util.ParseIntDefault(ctx.Query("page"), 1)
	size := util.ParseIntDefault(ctx.Query("size"), 10)

	user := util.GetUserFromContext(ctx)
	env, err := c.ExamService.List(ctx.Request.Context(), user, page, size)
	if err != nil {
		respondUpstreamError(ctx, err)
		return
	}
	passThrough(ctx, env, false)
}

// Score godoc
// @Summary 考试成绩单
// @Description 读穿缓存，一小时内的重复请求直接回放本地数据并带 cached 标记
// @Tags 考试
// @Produce  json
// @Param   examId path string true "考试ID"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "用户信息不完整"
// @Router /api/exam/score/{examId} [get]
func (c *ExamController) Score(ctx *gin.Context) {
	examID := ctx.Param("examId")
	if examID == "" {
		util.BadRequest(ctx, "缺少 examId 参数")
		return
	}

	user := util.GetUserFromContext(ctx)
	env, cached, err := c.ExamService.Score(ctx.Request.Context(), user, examID)
	if err != nil {
		respondUpstreamError(ctx, err)
		return
	}
	passThrough(ctx, env, cached)
}
