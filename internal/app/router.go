package app

import (
	"github.com/Jh18L/sxt/docs"
	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/internal/middleware"
	"github.com/Jh18L/sxt/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/login/password", c.auth.PasswordLogin)
		public.POST("/auth/login/authcode", c.auth.AuthCodeLogin)
		public.POST("/auth/sms/send", c.auth.SendSms)
		public.POST("/auth/sms/validate", c.auth.ValidSms)
		public.GET("/auth/check-bind", c.auth.CheckBind)
		public.POST("/user/bind", c.user.Bind)
		public.GET("/user/announcement", c.user.Announcement)
		public.GET("/user/count", c.user.Count)
	}

	// 学生端授权路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(repos.user, cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.POST("/auth/logout", c.auth.Logout)
		authGroup.GET("/user/info", c.user.Info)
		authGroup.GET("/user/schools/search", c.user.SearchSchools)
		authGroup.GET("/user/classes/search", c.user.SearchClasses)

		authGroup.GET("/exam/list", c.exam.List)
		authGroup.GET("/exam/score/:examId", c.exam.Score)

		authGroup.GET("/analysis/question/:examCourseId", c.analysis.Question)
		authGroup.GET("/analysis/point/:examCourseId", c.analysis.Point)
		authGroup.GET("/analysis/ability/:examCourseId", c.analysis.Ability)
	}

	// 管理后台
	router.POST("/api/admin/login", c.admin.Login)

	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AdminMiddleware(cfg))
	{
		adminGroup.GET("/dashboard", c.admin.Dashboard)
		adminGroup.GET("/users", c.admin.Users)
		adminGroup.PATCH("/users/:userId/ban", c.admin.Ban)
		adminGroup.GET("/reports", c.admin.Reports)
		adminGroup.GET("/blacklist", c.admin.Blacklist)
		adminGroup.GET("/logs", c.admin.Logs)
		adminGroup.DELETE("/logs", c.admin.PruneLogs)
		adminGroup.GET("/db-config", c.admin.GetDatabaseConfig)
		adminGroup.POST("/db-config", c.admin.SaveDatabase)
		adminGroup.POST("/db-test", c.admin.TestDatabase)
		adminGroup.GET("/announcement", c.admin.Announcements)
		adminGroup.POST("/announcement", c.admin.SaveAnnouncement)
		adminGroup.GET("/export-data", c.admin.ExportData)
		adminGroup.POST("/import-data", c.admin.ImportData)
	}
}
