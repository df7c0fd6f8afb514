package redis

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

type IRedis interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	SetIfAbsent(ctx context.Context, key string, value []byte, expiration time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

type redisClient struct {
	client *redis.Client
	log    *logrus.Logger
}

// New connects to REDIS_ADDRESS. Without an address, or when the server does
// not answer a ping, it returns a client that never hits.
func New(log *logrus.Logger) IRedis {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		log.Info("REDIS_ADDRESS not set, record cache disabled")
		return noop{}
	}

	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	log.WithField("address", redisAddr).Info("Connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.WithField("error", err.Error()).Error("Failed to connect to Redis, record cache disabled")
		client.Close()
		return noop{}
	}

	log.Info("Successfully connected to Redis")
	return NewWithClient(client, log)
}

func NewWithClient(client *redis.Client, log *logrus.Logger) IRedis {
	return &redisClient{client: client, log: log}
}

func (r *redisClient) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	} else if err != nil {
		r.log.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Error reading cache key")
		return nil, err
	}
	return val, nil
}

func (r *redisClient) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := r.client.Set(ctx, key, value, expiration).Err(); err != nil {
		r.log.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Error writing cache key")
		return err
	}
	return nil
}

// SetIfAbsent stores value only when key does not exist and reports whether it
// was stored.
func (r *redisClient) SetIfAbsent(ctx context.Context, key string, value []byte, expiration time.Duration) (bool, error) {
	stored, err := r.client.SetNX(ctx, key, value, expiration).Result()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Error writing cache key")
		return false, err
	}
	return stored, nil
}

func (r *redisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.log.WithFields(logrus.Fields{
			"keys":  keys,
			"error": err.Error(),
		}).Warn("Error deleting cache keys")
		return err
	}
	return nil
}

type noop struct{}

func (noop) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }

func (noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (noop) SetIfAbsent(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, nil
}

func (noop) Delete(context.Context, ...string) error { return nil }
