package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisClient .
type RedisClient struct {
	conn *redis.Client
}

var _ KeyValueDB = &RedisClient{}

// NewRedisClient create a redis client
func NewRedisClient(host string, port int, password string, db int) *RedisClient {
	conn := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})
	return &RedisClient{
		conn: conn,
	}
}

// Push implement KeyValueDB
func (rdb *RedisClient) Push(ctx context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return rdb.conn.RPush(ctx, key, args...).Err()
}

// Range implement KeyValueDB
func (rdb *RedisClient) Range(ctx context.Context, key string) ([]string, error) {
	return rdb.conn.LRange(ctx, key, 0, -1).Result()
}

// RemoveValues implement KeyValueDB, all removals run in one MULTI/EXEC
func (rdb *RedisClient) RemoveValues(ctx context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := rdb.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, v := range values {
			pipe.LRem(ctx, key, 1, v)
		}
		return nil
	})
	return err
}

// Len implement KeyValueDB
func (rdb *RedisClient) Len(ctx context.Context, key string) (int64, error) {
	return rdb.conn.LLen(ctx, key).Result()
}

// Ping implement KeyValueDB
func (rdb *RedisClient) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return rdb.conn.Ping(ctx).Err()
}

// Close release the connection pool
func (rdb *RedisClient) Close() error {
	return rdb.conn.Close()
}
