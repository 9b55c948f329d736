package redis

import (
	"context"
	"fmt"
	"log"
	"sync"

	"smartlearn/internal/config"

	"github.com/go-redis/redis/v8"
)

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// GetClient 返回进程级单例的 Redis 客户端，进度更新的学习者级互斥锁放在这里。
func GetClient(cfg *config.RedisConfig) (*redis.Client, error) {
	once.Do(func() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		})

		if err := rdb.Ping(context.Background()).Err(); err != nil {
			initErr = fmt.Errorf("无法连接到 Redis: %w", err)
			return
		}

		log.Println("✅ 成功连接到 Redis!")
		client = rdb
	})

	return client, initErr
}

// Close 关闭单例连接，在服务关停时调用。
func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}
