package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig `mapstructure:"log"`
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig     `mapstructure:"admin"`
	Sxt       SxtConfig       `mapstructure:"sxt"`
	Cache     CacheConfig     `mapstructure:"cache"`
	APILog    APILogConfig    `mapstructure:"apilog"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

// AdminConfig 管理员账号。密码以 bcrypt 哈希存储在配置中，登录时比对。
type AdminConfig struct {
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"password_hash"`
	ExpireTime   time.Duration `mapstructure:"expire_hours"`
}

// SxtConfig 生学堂上游平台配置
type SxtConfig struct {
	APIBase        string        `mapstructure:"api_base"`
	PortalBase     string        `mapstructure:"portal_base"`
	Timeout        time.Duration `mapstructure:"timeout_seconds"`
	MinInterval    time.Duration `mapstructure:"min_interval_ms"`
	SmsMinInterval time.Duration `mapstructure:"sms_min_interval_ms"`
}

type CacheConfig struct {
	ReportTTL time.Duration `mapstructure:"report_ttl_minutes"`
}

type APILogConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}

type BackupConfig struct {
	Storage       string `mapstructure:"storage"` // local 或 minio
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("SXT")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// JWT / 管理员
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("admin.username", "ADMIN_USERNAME")
	viper.BindEnv("admin.password_hash", "ADMIN_PASSWORD_HASH")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")
	viper.BindEnv("server.port", "SERVER_PORT")

	// 上游平台
	viper.BindEnv("sxt.api_base", "SXT_API_BASE")
	viper.BindEnv("sxt.portal_base", "SXT_PORTAL_BASE")

	// 备份存储
	viper.BindEnv("backup.storage", "BACKUP_STORAGE")
	viper.BindEnv("backup.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("backup.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("backup.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("backup.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Admin.ExpireTime = cfg.Admin.ExpireTime * time.Hour
	cfg.Sxt.Timeout = cfg.Sxt.Timeout * time.Second
	cfg.Sxt.MinInterval = cfg.Sxt.MinInterval * time.Millisecond
	cfg.Sxt.SmsMinInterval = cfg.Sxt.SmsMinInterval * time.Millisecond
	cfg.Cache.ReportTTL = cfg.Cache.ReportTTL * time.Minute

	applyDefaults(&cfg)

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Backup.Storage == "local" {
		if _, err := os.Stat(cfg.Backup.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Backup.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

// SaveDatabaseConfig 管理后台修改数据库连接后写回配置文件，重启生效
func SaveDatabaseConfig(db DatabaseConfig) error {
	viper.Set("database.host", db.Host)
	viper.Set("database.port", db.Port)
	viper.Set("database.user", db.User)
	viper.Set("database.password", db.Password)
	viper.Set("database.dbname", db.DBName)
	return viper.WriteConfig()
}

func applyDefaults(cfg *Config) {
	if cfg.Sxt.APIBase == "" {
		cfg.Sxt.APIBase = "https://api.sxw.cn"
	}
	if cfg.Sxt.PortalBase == "" {
		cfg.Sxt.PortalBase = "https://portal.sxw.cn"
	}
	if cfg.Sxt.Timeout == 0 {
		cfg.Sxt.Timeout = 30 * time.Second
	}
	if cfg.Sxt.MinInterval == 0 {
		cfg.Sxt.MinInterval = 500 * time.Millisecond
	}
	if cfg.Sxt.SmsMinInterval == 0 {
		cfg.Sxt.SmsMinInterval = time.Second
	}
	if cfg.Cache.ReportTTL == 0 {
		cfg.Cache.ReportTTL = time.Hour
	}
	if cfg.APILog.QueueSize == 0 {
		cfg.APILog.QueueSize = 256
	}
	if cfg.Admin.ExpireTime == 0 {
		cfg.Admin.ExpireTime = 24 * time.Hour
	}
	if cfg.Backup.Storage == "" {
		cfg.Backup.Storage = "local"
	}
	if cfg.Backup.LocalPath == "" {
		cfg.Backup.LocalPath = "backups"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "logs/app.log"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 100
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 30
	}
}
