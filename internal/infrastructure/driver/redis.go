package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var ctx = context.Background()

// ErrKeyNotFound Get on a missing key
var ErrKeyNotFound = errors.New("key not found")

// RedisClient .
type RedisClient struct {
	conn *redis.Client
}

var _ KeyValueDB = &RedisClient{}

// NewRedisClient create a redis client
func NewRedisClient(host string, port int, password string) *RedisClient {
	conn := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
	})
	return &RedisClient{
		conn: conn,
	}
}

// SetEX implement KeyValueDB
func (rdb *RedisClient) SetEX(key string, value string, expiration time.Duration) error {
	return rdb.conn.Set(ctx, key, value, expiration).Err()
}

// SetNX implement KeyValueDB
func (rdb *RedisClient) SetNX(key string, value string, expiration time.Duration) (bool, error) {
	return rdb.conn.SetNX(ctx, key, value, expiration).Result()
}

// Get implement KeyValueDB
func (rdb *RedisClient) Get(key string) (string, error) {
	v, err := rdb.conn.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	return v, err
}

// Exists implement KeyValueDB
func (rdb *RedisClient) Exists(key string) (bool, error) {
	n, err := rdb.conn.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Del implement KeyValueDB
func (rdb *RedisClient) Del(key string) error {
	return rdb.conn.Del(ctx, key).Err()
}

// Ping implement KeyValueDB
func (rdb *RedisClient) Ping() error {
	return rdb.conn.Ping(ctx).Err()
}

// Close release the connection pool
func (rdb *RedisClient) Close() error {
	return rdb.conn.Close()
}
