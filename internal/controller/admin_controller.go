package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/service"
	"github.com/Jh18L/sxt/internal/util"

	"github.com/gin-gonic/gin"
)

// 导入文件大小上限
const maxImportBytes = 64 << 20

type AdminController struct {
	AdminService  *service.AdminService
	BackupService *service.BackupService
}

func NewAdminController(adminService *service.AdminService, backupService *service.BackupService) *AdminController {
	return &AdminController{AdminService: adminService, BackupService: backupService}
}

type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary 管理员登录
// @Tags 管理后台
// @Accept  json
// @Produce  json
// @Param   body body AdminLoginRequest true "管理员账号密码"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response "用户名或密码错误"
// @Router /api/admin/login [post]
func (c *AdminController) Login(ctx *gin.Context) {
	var req AdminLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, err := c.AdminService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, util.ErrInvalidCredentials) {
			util.Unauthorized(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"token": token})
}

// Dashboard godoc
// @Summary 仪表盘统计
// @Tags 管理后台
// @Produce  json
// @Success 200 {object} util.Response{data=service.DashboardStats}
// @Router /api/admin/dashboard [get]
func (c *AdminController) Dashboard(ctx *gin.Context) {
	stats, err := c.AdminService.Dashboard()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Users godoc
// @Summary 用户列表
// @Tags 管理后台
// @Produce  json
// @Param   page query int false "页码" default(1)
// @Param   size query int false "每页条数" default(20)
// @Param   search query string false "账号/姓名/手机号模糊搜索"
// @Param   schoolId query string false "学校筛选"
// @Param   classId query string false "班级筛选"
// @Success 200 {object} util.Response{data=service.UserListResult}
// @Router /api/admin/users [get]
func (c *AdminController) Users(ctx *gin.Context) {
	p := repository.ListParams{
		Page:     util.ParseIntDefault(ctx.Query("page"), 1),
		Size:     util.ParseIntDefault(ctx.Query("size"), 20),
		Search:   ctx.Query("search"),
		SchoolID: ctx.Query("schoolId"),
		ClassID:  ctx.Query("classId"),
	}

	result, err := c.AdminService.Users(p)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

type BanRequest struct {
	Banned bool   `json:"banned"`
	Reason string `json:"reason"`
}

// Ban godoc
// @Summary 封禁或解禁用户
// @Tags 管理后台
// @Accept  json
// @Produce  json
// @Param   userId path int true "用户ID"
// @Param   body body BanRequest true "封禁状态与理由"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{userId}/ban [patch]
func (c *AdminController) Ban(ctx *gin.Context) {
	userID, err := strconv.ParseUint(ctx.Param("userId"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "无效的用户ID")
		return
	}

	var req BanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AdminService.SetBan(uint(userID), req.Banned, req.Reason)
	if err != nil {
		util.NotFound(ctx, "用户不存在")
		return
	}
	util.Success(ctx, user)
}

// Reports godoc
// @Summary 报告缓存列表
// @Tags 管理后台
// @Produce  json
// @Param   page query int false "页码" default(1)
// @Param   size query int false "每页条数" default(20)
// @Param   search query string false "考试名/账号模糊搜索"
// @Param   examId query string false "考试筛选"
// @Success 200 {object} util.Response{data=service.ReportListResult}
// @Router /api/admin/reports [get]
func (c *AdminController) Reports(ctx *gin.Context) {
	p := repository.ReportListParams{
		Page:   util.ParseIntDefault(ctx.Query("page"), 1),
		Size:   util.ParseIntDefault(ctx.Query("size"), 20),
		Search: ctx.Query("search"),
		ExamID: ctx.Query("examId"),
	}

	result, err := c.AdminService.Reports(p)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Blacklist godoc
// @Summary 封禁用户列表
// @Tags 管理后台
// @Produce  json
// @Param   page query int false "页码" default(1)
// @Param   size query int false "每页条数" default(20)
// @Success 200 {object} util.Response
// @Router /api/admin/blacklist [get]
func (c *AdminController) Blacklist(ctx *gin.Context) {
	page := util.ParseIntDefault(ctx.Query("page"), 1)
	size := util.ParseIntDefault(ctx.Query("size"), 20)

	result, err := c.AdminService.Banned(page, size)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Logs godoc
// @Summary 上游调用流水
// @Tags 管理后台
// @Produce  json
// @Param   page query int false "页码" default(1)
// @Param   size query int false "每页条数" default(50)
// @Success 200 {object} util.Response
// @Router /api/admin/logs [get]
func (c *AdminController) Logs(ctx *gin.Context) {
	page := util.ParseIntDefault(ctx.Query("page"), 1)
	size := util.ParseIntDefault(ctx.Query("size"), 50)

	result, err := c.AdminService.Logs(page, size)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// PruneLogs godoc
// @Summary 清理调用流水
// @Description 删除 days 天之前的流水，返回删除条数
// @Tags 管理后台
// @Produce  json
// @Param   days query int false "保留天数" default(30)
// @Success 200 {object} util.Response
// @Router /api/admin/logs [delete]
func (c *AdminController) PruneLogs(ctx *gin.Context) {
	days := util.ParseIntDefault(ctx.Query("days"), 30)

	deleted, err := c.AdminService.PruneLogs(days)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": deleted})
}

// GetDatabaseConfig godoc
// @Summary 查看数据库配置
// @Description 密码不回显
// @Tags 管理后台
// @Produce  json
// @Success 200 {object} util.Response{data=service.DatabaseConfigView}
// @Router /api/admin/db-config [get]
func (c *AdminController) GetDatabaseConfig(ctx *gin.Context) {
	util.Success(ctx, c.AdminService.DatabaseConfig())
}

type DatabaseConfigRequest struct {
	Host     string `json:"host" binding:"required"`
	Port     int    `json:"port" binding:"required"`
	User     string `json:"user" binding:"required"`
	Password string `json:"password"`
	DBName   string `json:"dbname" binding:"required"`
}

func (r DatabaseConfigRequest) toConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     r.Host,
		Port:     r.Port,
		User:     r.User,
		Password: r.Password,
		DBName:   r.DBName,
	}
}

// TestDatabase godoc
// @Summary 测试数据库连接
// @Tags 管理后台
// @Accept  json
// @Produce  json
// @Param   body body DatabaseConfigRequest true "数据库连接参数"
// @Success 200 {object} util.Response
// @Router /api/admin/db-test [post]
func (c *AdminController) TestDatabase(ctx *gin.Context) {
	var req DatabaseConfigRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AdminService.TestDatabase(ctx.Request.Context(), req.toConfig()); err != nil {
		util.Error(ctx, http.StatusBadRequest, "连接失败: "+err.Error())
		return
	}
	util.SuccessMessage(ctx, nil, "连接成功")
}

// SaveDatabase godoc
// @Summary 保存数据库配置
// @Description 先试连再写回配置文件，重启后生效
// @Tags 管理后台
// @Accept  json
// @Produce  json
// @Param   body body DatabaseConfigRequest true "数据库连接参数"
// @Success 200 {object} util.Response
// @Router /api/admin/db-config [post]
func (c *AdminController) SaveDatabase(ctx *gin.Context) {
	var req DatabaseConfigRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AdminService.SaveDatabase(ctx.Request.Context(), req.toConfig()); err != nil {
		util.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	util.SuccessMessage(ctx, nil, "配置已保存，重启服务后生效")
}

// Announcements godoc
// @Summary 公示内容列表
// @Tags 管理后台
// @Produce  json
// @Success 200 {object} util.Response
// @Router /api/admin/announcement [get]
func (c *AdminController) Announcements(ctx *gin.Context) {
	anns, err := c.AdminService.Announcements()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, anns)
}

type AnnouncementRequest struct {
	Type    string `json:"type" binding:"required"`
	Content string `json:"content"`
}

// SaveAnnouncement godoc
// @Summary 保存公示内容
// @Tags 管理后台
// @Accept  json
// @Produce  json
// @Param   body body AnnouncementRequest true "公示类型与内容"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "无效的类型参数"
// @Router /api/admin/announcement [post]
func (c *AdminController) SaveAnnouncement(ctx *gin.Context) {
	var req AnnouncementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	ann, err := c.AdminService.SaveAnnouncement(req.Type, req.Content)
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

// ExportData godoc
// @Summary 导出全量备份
// @Tags 管理后台
// @Produce  json
// @Success 200 {object} util.Response{data=service.Snapshot}
// @Router /api/admin/export-data [get]
func (c *AdminController) ExportData(ctx *gin.Context) {
	snap, err := c.BackupService.Export(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// ImportData godoc
// @Summary 从备份恢复数据
// @Description 请求体为导出的快照 JSON
// @Tags 管理后台
// @Accept  json
// @Produce  json
// @Success 200 {object} util.Response{data=service.ImportStats}
// @Failure 400 {object} util.Response "备份文件格式错误"
// @Router /api/admin/import-data [post]
func (c *AdminController) ImportData(ctx *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxImportBytes))
	if err != nil {
		util.BadRequest(ctx, "读取请求体失败")
		return
	}

	stats, err := c.BackupService.Import(data)
	if err != nil {
		if errors.Is(err, util.ErrInvalidSnapshot) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.SuccessMessage(ctx, stats, "导入完成")
}
