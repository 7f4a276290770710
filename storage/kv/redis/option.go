// Package rediskv keeps the plugin options in Redis.
package rediskv

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/option"
)

const keyPrefix = "flashcards:option:"

// Open connects to the Redis server at conf.Redis.Addr.
func Open(ctx context.Context, conf *core.Config) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        conf.Redis.Addr,
		Password:    conf.Redis.Password,
		DB:          conf.Redis.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return rdb, nil
}

type optionStore struct {
	rdb goredis.Cmdable
}

var _ option.Store = (*optionStore)(nil) // interface compliance check

func NewOptionStore(rdb goredis.Cmdable) option.Store {
	return &optionStore{rdb: rdb}
}

func (store *optionStore) GetOption(ctx context.Context, key string) ([]byte, error) {
	val, err := store.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err == goredis.Nil {
		return nil, option.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading option %q", key)
	}
	return val, nil
}

func (store *optionStore) SetOption(ctx context.Context, key string, value []byte) error {
	if err := store.rdb.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "saving option %q", key)
	}
	return nil
}

func (store *optionStore) DeleteOption(ctx context.Context, key string) error {
	if err := store.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return errors.Wrapf(err, "deleting option %q", key)
	}
	return nil
}
