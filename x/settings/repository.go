//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mock/repository.go
package settings

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/mjtimeline/core"
)

// Repository is the interface for the settings store
type Repository interface {
	Get(ctx context.Context, owner, key string) (string, error)
	Set(ctx context.Context, owner, key, value string) error
	Delete(ctx context.Context, owner, key string) error
}

type repository struct {
	rdb *redis.Client
}

// NewRepository creates a new settings repository
func NewRepository(rdb *redis.Client) Repository {
	return &repository{rdb}
}

func settingsKey(owner, key string) string {
	return "mjtimeline:" + owner + ":" + key
}

// Get returns a stored value
func (r *repository) Get(ctx context.Context, owner, key string) (string, error) {
	ctx, span := tracer.Start(ctx, "Settings.Repository.Get")
	defer span.End()

	value, err := r.rdb.Get(ctx, settingsKey(owner, key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", core.NewErrorNotFound()
		}
		span.RecordError(err)
		return "", err
	}

	return value, nil
}

// Set stores a value without expiration
func (r *repository) Set(ctx context.Context, owner, key, value string) error {
	ctx, span := tracer.Start(ctx, "Settings.Repository.Set")
	defer span.End()

	err := r.rdb.Set(ctx, settingsKey(owner, key), value, 0).Err()
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Delete removes a value
func (r *repository) Delete(ctx context.Context, owner, key string) error {
	ctx, span := tracer.Start(ctx, "Settings.Repository.Delete")
	defer span.End()

	return r.rdb.Del(ctx, settingsKey(owner, key)).Err()
}
