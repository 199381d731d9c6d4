package queue

import (
	"context"
	"fmt"
	"log"

	"jobpilot/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// ConnectRedis is optional: the notifier side channel degrades to webhook-only
// when no REDIS_ADDR is configured.
func ConnectRedis() {
	if config.AppConfig.RedisAddr == "" {
		log.Println("Redis not configured, notifier events will use webhook only")
		return
	}

	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	ctx := context.Background()
	_, err := RDB.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	fmt.Println("Successfully connected to Redis!")
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		fmt.Println("Redis connection closed.")
	}
}
