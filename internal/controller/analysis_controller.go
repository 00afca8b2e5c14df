package controller

import (
	"context"

	"github.com/Jh18L/sxt/internal/model"
	"github.com/Jh18L/sxt/internal/service"
	"github.com/Jh18L/sxt/internal/sxt"
	"github.com/Jh18L/sxt/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalysisController struct {
	AnalysisService *service.AnalysisService
}

func NewAnalysisController(analysisService *service.AnalysisService) *AnalysisController {
	return &AnalysisController{AnalysisService: analysisService}
}

type analysisFetch func(ctx context.Context, user *model.User, examCourseID string, trend int) (*sxt.Envelope, bool, error)

func (c *AnalysisController) serve(ctx *gin.Context, fetch analysisFetch) {
	examCourseID := ctx.Param("examCourseId")
	if examCourseID == "" {
		util.BadRequest(ctx, "缺少 examCourseId 参数")
		return
	}
	trend := util.ParseIntDefault(ctx.Query("courseChooseTrend"), 1)

	user := util.GetUserFromContext(ctx)
	env, cached, err := fetch(ctx.Request.Context(), user, examCourseID, trend)
	if err != nil {
		respondUpstreamError(ctx, err)
		return
	}
	passThrough(ctx, env, cached)
}

// Question godoc
// @Summary 小题得分分析
// @Tags 分析
// @Produce  json
// @Param   examCourseId path string true "考试科目ID"
// @Param   courseChooseTrend query int false "选科走向"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "用户信息不完整"
// @Router /api/analysis/question/{examCourseId} [get]
func (c *AnalysisController) Question(ctx *gin.Context) {
	c.serve(ctx, c.AnalysisService.Question)
}

// Point godoc
// @Summary 知识点分析
// @Tags 分析
// @Produce  json
// @Param   examCourseId path string true "考试科目ID"
// @Param   courseChooseTrend query int false "选科走向"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "用户信息不完整"
// @Router /api/analysis/point/{examCourseId} [get]
func (c *AnalysisController) Point(ctx *gin.Context) {
	c.serve(ctx, c.AnalysisService.Point)
}

// Ability godoc
// @Summary 能力维度分析
// @Tags 分析
// @Produce  json
// @Param   examCourseId path string true "考试科目ID"
// @Param   courseChooseTrend query int false "选科走向"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "用户信息不完整"
// @Router /api/analysis/ability/{examCourseId} [get]
func (c *AnalysisController) Ability(ctx *gin.Context) {
	c.serve(ctx, c.AnalysisService.Ability)
}
