package database

import (
	"fmt"
	"log"

	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedAnnouncements(db)

	return db, nil
}

// Migrate 建表，测试库也走这里
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.ExamReport{},
		&model.Announcement{},
		&model.ApiLog{},
	)
}

// 版权信息缺省值，仅在表为空时写入
func seedAnnouncements(db *gorm.DB) {
	var count int64
	db.Model(&model.Announcement{}).Where("type = ?", model.AnnouncementCopyright).Count(&count)
	if count == 0 {
		db.Create(&model.Announcement{
			Type:    model.AnnouncementCopyright,
			Content: model.DefaultCopyright,
		})
	}
}
