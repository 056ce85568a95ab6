package store

import (
	"context"

	"github.com/go-redis/redis/v8"
)

var client *redis.Client

// Init 初始化Redis连接。历史索引是尽力而为的功能，
// 连接失败时调用方可以选择继续运行（索引停用）。
func Init(addr string) error {
	c := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := c.Ping(context.Background()).Err(); err != nil {
		return err
	}
	client = c
	return nil
}

// GetRedis 返回客户端，未初始化时为 nil
func GetRedis() *redis.Client {
	return client
}
