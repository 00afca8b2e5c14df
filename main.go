// @title 生学堂成绩报告 API
// @version 1.0
// @description 面向学生端的生学堂考试报告查询服务。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"
	"path/filepath"

	"github.com/Jh18L/sxt/internal/app"
	"github.com/Jh18L/sxt/internal/config"
	"github.com/Jh18L/sxt/pkg/configwatcher"
	"github.com/Jh18L/sxt/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs", "配置文件目录")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	go configwatcher.WatchConfig(filepath.Join(*configPath, "config.yaml"), application.ApplyConfig)

	application.Run()
}
