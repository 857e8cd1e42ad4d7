package session

import (
	"context"
	"errors"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Redis es el store distribuido para producción.
type Redis struct {
	c      *rdb.Client
	prefix string
}

// NewRedis crea un store sobre redis. prefix namespacéa todas las keys.
func NewRedis(addr string, db int, prefix string) *Redis {
	return &Redis{
		c:      rdb.NewClient(&rdb.Options{Addr: addr, DB: db}),
		prefix: prefix,
	}
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.c.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *Redis) Consume(ctx context.Context, key string) ([]byte, error) {
	// GETDEL: lectura y borrado atómicos
	b, err := r.c.GetDel(ctx, r.key(key)).Bytes()
	if errors.Is(err, rdb.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, r.key(key)).Err()
}

func (r *Redis) Close() error {
	return r.c.Close()
}
