package controller

import (
	"errors"

	"github.com/Jh18L/sxt/internal/service"
	"github.com/Jh18L/sxt/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// Info godoc
// @Summary 获取用户信息
// @Description 向上游拉取最新信息并同步本地档案，上游不可用时回退本地副本
// @Tags 用户
// @Produce  json
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response
// @Router /api/user/info [get]
func (c *UserController) Info(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	data, err := c.UserService.Info(ctx.Request.Context(), user)
	if err != nil {
		respondUpstreamError(ctx, err)
		return
	}
	util.Success(ctx, data)
}

// SearchSchools godoc
// @Summary 按名称搜索学校
// @Tags 用户
// @Produce  json
// @Param   schoolName query string true "学校名称关键词"
// @Success 200 {object} util.Response
// @Router /api/user/schools/search [get]
func (c *UserController) SearchSchools(ctx *gin.Context) {
	schoolName := ctx.Query("schoolName")
	if schoolName == "" {
		util.BadRequest(ctx, "缺少 schoolName 参数")
		return
	}

	user := util.GetUserFromContext(ctx)
	data, err := c.UserService.SearchSchools(ctx.Request.Context(), user, schoolName)
	if err != nil {
		respondUpstreamError(ctx, err)
		return
	}
	util.Success(ctx, data)
}

// SearchClasses godoc
// @Summary 查询学校的年级班级列表
// @Tags 用户
// @Produce  json
// @Param   schoolId query string true "学校ID"
// @Success 200 {object} util.Response
// @Router /api/user/classes/search [get]
func (c *UserController) SearchClasses(ctx *gin.Context) {
	schoolID := ctx.Query("schoolId")
	if schoolID == "" {
		util.BadRequest(ctx, "缺少 schoolId 参数")
		return
	}

	user := util.GetUserFromContext(ctx)
	data, err := c.UserService.SearchClasses(ctx.Request.Context(), user, schoolID)
	if err != nil {
		respondUpstreamError(ctx, err)
		return
	}
	util.Success(ctx, data)
}

// Bind godoc
// @Summary 学生绑定班级
// @Tags 用户
// @Accept  json
// @Produce  json
// @Param   body body service.BindRequest true "绑定信息"
// @Success 200 {object} util.Response
// @Router /api/user/bind [post]
func (c *UserController) Bind(ctx *gin.Context) {
	var req service.BindRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user := util.GetUserFromContext(ctx)
	env, err := c.UserService.Bind(ctx.Request.Context(), user, req)
	if err != nil {
		respondUpstreamError(ctx, err)
		return
	}
	passThrough(ctx, env, false)
}

// Announcement godoc
// @Summary 读取公示内容
// @Description type 取 about、copyright 或 agreement
// @Tags 公共
// @Produce  json
// @Param   type query string true "公示类型"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "无效的类型参数"
// @Router /api/user/announcement [get]
func (c *UserController) Announcement(ctx *gin.Context) {
	ann, err := c.UserService.Announcement(ctx.Query("type"))
	if err != nil {
		if errors.Is(err, util.ErrInvalidAnnouncementType) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, ann)
}

// Count godoc
// @Summary 注册用户总数
// @Tags 公共
// @Produce  json
// @Success 200 {object} util.Response
// @Router /api/user/count [get]
func (c *UserController) Count(ctx *gin.Context) {
	count, err := c.UserService.UserCount()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"count": count})
}
