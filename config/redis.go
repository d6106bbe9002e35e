package config

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// redisOptions reads REDIS_ADDR, REDIS_URI or REDIS_URL, in that order.
// A redis:// URL carries its own credentials; a bare address takes
// REDIS_PASSWORD and REDIS_DB.
func redisOptions() (*redis.Options, error) {
	val := os.Getenv("REDIS_ADDR")
	if val == "" {
		val = os.Getenv("REDIS_URI")
	}
	if val == "" {
		val = os.Getenv("REDIS_URL")
	}
	if val == "" {
		return nil, errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) environment variable is not set")
	}

	if strings.HasPrefix(val, "redis://") || strings.HasPrefix(val, "rediss://") {
		return redis.ParseURL(val)
	}

	opt := &redis.Options{Addr: val, Password: os.Getenv("REDIS_PASSWORD")}
	if db := os.Getenv("REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, errors.New("REDIS_DB must be an integer")
		}
		opt.DB = n
	}
	return opt, nil
}

func InitRedis() error {
	opt, err := redisOptions()
	if err != nil {
		return err
	}
	// stream consumers block for up to 5s in XREADGROUP
	opt.ReadTimeout = 10 * time.Second

	RedisClient = redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return RedisClient.Ping(ctx).Err()
}
