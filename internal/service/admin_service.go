package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/internal/model"
	"github.com/Jh18L/sxt/internal/repository"
	"github.com/Jh18L/sxt/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type AdminService struct {
	UserRepo         *repository.UserRepository
	ReportRepo       *repository.ExamReportRepository
	ApiLogRepo       *repository.ApiLogRepository
	AnnouncementRepo *repository.AnnouncementRepository
	Cfg              *config.Config
}

func NewAdminService(userRepo *repository.UserRepository, reportRepo *repository.ExamReportRepository, apiLogRepo *repository.ApiLogRepository, annRepo *repository.AnnouncementRepository, cfg *config.Config) *AdminService {
	return &AdminService{
		UserRepo:         userRepo,
		ReportRepo:       reportRepo,
		ApiLogRepo:       apiLogRepo,
		AnnouncementRepo: annRepo,
		Cfg:              cfg,
	}
}

// Login 管理员登录。账号与 bcrypt 哈希来自配置，与用户表无关。
func (s *AdminService) Login(username, password string) (string, error) {
	if username != s.Cfg.Admin.Username {
		return "", util.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.Cfg.Admin.PasswordHash), []byte(password)); err != nil {
		return "", util.ErrInvalidCredentials
	}
	return util.GenerateAdminJWT(username, s.Cfg.JWT.Secret, s.Cfg.Admin.ExpireTime)
}

// processStart 进程启动时间，仪表盘上报运行时长用
var processStart = time.Now()

// ServerStatus 服务运行状态
type ServerStatus struct {
	Status    string    `json:"status"`
	Uptime    float64   `json:"uptime"` // 秒
	Timestamp time.Time `json:"timestamp"`
}

// DashboardStats 仪表盘统计
type DashboardStats struct {
	TotalUsers     int64        `json:"totalUsers"`
	BannedUsers    int64        `json:"bannedUsers"`
	TotalReports   int64        `json:"totalReports"`
	OnlineUsers    int64        `json:"onlineUsers"`
	ActiveToday    int64        `json:"activeToday"`
	LoginToday     int64        `json:"loginToday"`
	NewThisWeek    int64        `json:"newThisWeek"`
	ActiveThisWeek int64        `json:"activeThisWeek"`
	ServerStatus   ServerStatus `json:"serverStatus"`
}

func (s *AdminService) Dashboard() (*DashboardStats, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.AddDate(0, 0, -7)

	stats := &DashboardStats{}
	var err error
	if stats.TotalUsers, err = s.UserRepo.Count(); err != nil {
		return nil, err
	}
	if stats.BannedUsers, err = s.UserRepo.CountBanned(); err != nil {
		return nil, err
	}
	if stats.TotalReports, err = s.ReportRepo.Count(); err != nil {
		return nil, err
	}
	if stats.ActiveToday, err = s.UserRepo.CountSeenSince(today); err != nil {
		return nil, err
	}
	if stats.LoginToday, err = s.UserRepo.CountLoginSince(today); err != nil {
		return nil, err
	}
	if stats.NewThisWeek, err = s.UserRepo.CountCreatedSince(weekAgo); err != nil {
		return nil, err
	}
	if stats.ActiveThisWeek, err = s.UserRepo.CountSeenSince(weekAgo); err != nil {
		return nil, err
	}
	// 在线人数：最近5分钟内有活动的用户
	if stats.OnlineUsers, err = s.UserRepo.CountSeenSince(now.Add(-5 * time.Minute)); err != nil {
		return nil, err
	}
	stats.ServerStatus = ServerStatus{
		Status:    "running",
		Uptime:    time.Since(processStart).Seconds(),
		Timestamp: now,
	}
	return stats, nil
}

// UserListResult 用户列表带学校、班级聚合，供前端做筛选项
type UserListResult struct {
	List    []model.User            `json:"list"`
	Total   int64                   `json:"total"`
	Page    int                     `json:"page"`
	Size    int                     `json:"size"`
	Schools []repository.SchoolStat `json:"schools"`
	Classes []repository.ClassStat  `json:"classes"`
}

func (s *AdminService) Users(p repository.ListParams) (*UserListResult, error) {
	users, total, err := s.UserRepo.List(p)
	if err != nil {
		return nil, err
	}
	schools, err := s.UserRepo.SchoolStats(p)
	if err != nil {
		return nil, err
	}
	classes, err := s.UserRepo.ClassStats(p)
	if err != nil {
		return nil, err
	}
	stripSessions(users)
	return &UserListResult{
		List:    users,
		Total:   total,
		Page:    p.Page,
		Size:    p.Size,
		Schools: schools,
		Classes: classes,
	}, nil
}

// 列表接口不外带上游会话令牌
func stripSessions(users []model.User) {
	for i := range users {
		users[i].Token = ""
		users[i].RefreshToken = ""
	}
}

// SetBan 封禁或解禁用户
func (s *AdminService) SetBan(userID uint, banned bool, reason string) (*model.User, error) {
	user, err := s.UserRepo.SetBanState(userID, banned, reason)
	if err != nil {
		return nil, err
	}
	user.Token = ""
	user.RefreshToken = ""
	return user, nil
}

func (s *AdminService) Banned(page, size int) (*util.PageResponse, error) {
	users, total, err := s.UserRepo.ListBanned(page, size)
	if err != nil {
		return nil, err
	}
	stripSessions(users)
	return &util.PageResponse{List: users, Total: total, Page: page, Size: size}, nil
}

// ReportListResult 报告列表带考试聚合
type ReportListResult struct {
	List  []model.ExamReport    `json:"list"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Size  int                   `json:"size"`
	Exams []repository.ExamStat `json:"exams"`
}

func (s *AdminService) Reports(p repository.ReportListParams) (*ReportListResult, error) {
	reports, total, err := s.ReportRepo.List(p)
	if err != nil {
		return nil, err
	}
	exams, err := s.ReportRepo.ExamStats(100)
	if err != nil {
		return nil, err
	}
	return &ReportListResult{
		List:  reports,
		Total: total,
		Page:  p.Page,
		Size:  p.Size,
		Exams: exams,
	}, nil
}

func (s *AdminService) Logs(page, size int) (*util.PageResponse, error) {
	logs, total, err := s.ApiLogRepo.List(page, size)
	if err != nil {
		return nil, err
	}
	return &util.PageResponse{List: logs, Total: total, Page: page, Size: size}, nil
}

// PruneLogs 清理 days 天之前的调用流水，返回删除条数
func (s *AdminService) PruneLogs(days int) (int64, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	return s.ApiLogRepo.DeleteOlderThan(cutoff)
}

func (s *AdminService) Announcements() ([]model.Announcement, error) {
	return s.AnnouncementRepo.All()
}

func (s *AdminService) SaveAnnouncement(announcementType, content string) (*model.Announcement, error) {
	if !model.ValidAnnouncementType(announcementType) {
		return nil, util.ErrInvalidAnnouncementType
	}
	return s.AnnouncementRepo.Upsert(announcementType, content)
}

// DatabaseConfigView 数据库配置展示，密码脱敏
type DatabaseConfigView struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	User   string `json:"user"`
	DBName string `json:"dbname"`
}

func (s *AdminService) DatabaseConfig() DatabaseConfigView {
	db := s.Cfg.Database
	return DatabaseConfigView{
		Host:   db.Host,
		Port:   db.Port,
		User:   db.User,
		DBName: db.DBName,
	}
}

// TestDatabase 用给定参数试连数据库，五秒超时
func (s *AdminService) TestDatabase(ctx context.Context, db config.DatabaseConfig) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		db.User, db.Password, db.Host, db.Port, db.DBName)

	conn, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}

// SaveDatabase 校验连接后把新配置写回配置文件，重启生效
func (s *AdminService) SaveDatabase(ctx context.Context, db config.DatabaseConfig) error {
	if err := s.TestDatabase(ctx, db); err != nil {
		return fmt.Errorf("数据库连接测试失败: %w", err)
	}
	return config.SaveDatabaseConfig(db)
}
