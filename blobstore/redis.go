package blobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConf addresses the Redis server backing a Redis store.
type RedisConf struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	PW   string `json:"pw"`
	DB   int    `json:"db"`

	// KeyPrefix defaults to "sheetpdf:blob:".
	KeyPrefix string `json:"keyPrefix"`
}

// Redis stores blobs as hashes with a TTL so several exporter processes can
// share previews.
type Redis struct {
	opts   Options
	prefix string
	client *redis.Client
}

var _ Store = (*Redis)(nil)

// NewRedis connects to the server described by conf and checks it answers.
func NewRedis(ctx context.Context, conf RedisConf, opts Options) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		Password: conf.PW,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("blobstore: connecting to redis: %w", err)
	}
	prefix := conf.KeyPrefix
	if prefix == "" {
		prefix = "sheetpdf:blob:"
	}
	return &Redis{opts: opts.resolved(), prefix: prefix, client: client}, nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Put(ctx context.Context, b Blob) (Ref, error) {
	id := NewID()
	ref := r.opts.ref(id, b, time.Now())
	key := r.prefix + id

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "type", b.ContentType, "data", b.Data)
		pipe.Expire(ctx, key, r.opts.TTL)
		return nil
	})
	if err != nil {
		return Ref{}, fmt.Errorf("blobstore: storing %s: %w", id, err)
	}
	return ref, nil
}

func (r *Redis) Get(ctx context.Context, id string) (Blob, bool, error) {
	// HGETALL answers an empty map for a missing key.
	fields, err := r.client.HGetAll(ctx, r.prefix+id).Result()
	if err != nil {
		return Blob{}, false, fmt.Errorf("blobstore: loading %s: %w", id, err)
	}
	data, ok := fields["data"]
	if !ok {
		return Blob{}, false, nil
	}
	return Blob{Data: []byte(data), ContentType: fields["type"]}, true, nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.prefix+id).Err()
}
