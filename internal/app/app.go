package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/internal/controller"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/service"
	"github.com/Jh18L/sxt/internal/sxt"
	"github.com/Jh18L/sxt/pkg/database"
	"github.com/Jh18L/sxt/pkg/logger"
	"github.com/Jh18L/sxt/pkg/monitoring"
	"github.com/Jh18L/sxt/pkg/security"
	"github.com/Jh18L/sxt/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user         *repository.UserRepository
	report       *repository.ExamReportRepository
	announcement *repository.AnnouncementRepository
	apiLog       *repository.ApiLogRepository
}

type services struct {
	apiLog   *service.ApiLogService
	auth     *service.AuthService
	user     *service.UserService
	exam     *service.ExamService
	analysis *service.AnalysisService
	admin    *service.AdminService
	backup   *service.BackupService
}

type controllers struct {
	auth     *controller.AuthController
	user     *controller.UserController
	exam     *controller.ExamController
	analysis *controller.AnalysisController
	admin    *controller.AdminController
	health   *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		report:       repository.NewExamReportRepository(db),
		announcement: repository.NewAnnouncementRepository(db),
		apiLog:       repository.NewApiLogRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.apiLog = service.NewApiLogService(repos.apiLog, cfg.APILog.QueueSize)
	s.apiLog.Start()

	client := sxt.NewClient(cfg.Sxt, s.apiLog)

	s.auth = service.NewAuthService(repos.user, client, rdb, cfg)
	s.user = service.NewUserService(repos.user, repos.announcement, client, rdb)
	s.exam = service.NewExamService(repos.report, client, cfg)
	s.analysis = service.NewAnalysisService(repos.report, client, cfg)
	s.admin = service.NewAdminService(repos.user, repos.report, repos.apiLog, repos.announcement, cfg)
	s.backup = service.NewBackupService(repos.user, repos.report, repos.announcement, service.NewStorageProvider(cfg))

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		user:     controller.NewUserController(s.user),
		exam:     controller.NewExamController(s.exam),
		analysis: controller.NewAnalysisController(s.analysis),
		admin:    controller.NewAdminController(s.admin, s.backup),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 600
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("sxt-report-portal", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	return app
}

// ApplyConfig 配置热更新。管理员账号与缓存时效即时生效，
// 其余字段重启生效。
func (a *App) ApplyConfig(newCfg *config.Config) {
	a.Config.Admin = newCfg.Admin
	a.Config.Cache = newCfg.Cache
	logger.Log.Info("配置已热更新",
		zap.Duration("reportTTL", newCfg.Cache.ReportTTL))
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	// 把队列里剩余的调用日志写完再退出
	if a.services != nil && a.services.apiLog != nil {
		a.services.apiLog.Stop()
	}

	if err := tracing.Shutdown(context.Background()); err != nil {
		log.Println("tracing shutdown:", err)
	}

	log.Println("Server exiting")
}
