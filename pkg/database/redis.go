package database

import (
	"context"
	"fmt"
	"log"

	"github.com/Jh18L/sxt/internal/config"

	"github.com/go-redis/redis/v8"
)

// InitRedis 连接 Redis。未启用时返回 nil，依赖方须容忍 nil 客户端。
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		log.Println("Redis disabled, search cache and SMS cooldown degrade to pass-through")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     50,
		MinIdleConns: 5,
	})

	ctx := context.Background()
	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}

	log.Println("Redis connection established")
	return rdb, nil
}
