//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mock/repository.go
package identity

import (
	"context"
	"strings"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"

	"github.com/totegamma/mjtimeline/client"
	"github.com/totegamma/mjtimeline/core"
)

const cacheTTL = 60 * 60 // seconds

// Repository is identity repository interface
type Repository interface {
	GetCache(ctx context.Context, address string) (string, error)
	SetCache(ctx context.Context, address, containerID string) error
	DeleteCache(ctx context.Context, address string) error
	Lookup(ctx context.Context, owner string) ([]core.TimelineContainer, error)
}

type repository struct {
	mc     *memcache.Client
	client client.Client
}

// NewRepository creates a new identity repository
func NewRepository(mc *memcache.Client, client client.Client) Repository {
	return &repository{mc, client}
}

func cacheKey(address string) string {
	return "mjtl:container:" + strings.ToLower(address)
}

// GetCache returns the cached container id of address
func (r *repository) GetCache(ctx context.Context, address string) (string, error) {
	ctx, span := tracer.Start(ctx, "Identity.Repository.GetCache")
	defer span.End()

	item, err := r.mc.Get(cacheKey(address))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return "", core.NewErrorNotFound()
		}
		span.RecordError(err)
		return "", err
	}

	return string(item.Value), nil
}

// SetCache stores the container id of address
func (r *repository) SetCache(ctx context.Context, address, containerID string) error {
	ctx, span := tracer.Start(ctx, "Identity.Repository.SetCache")
	defer span.End()

	err := r.mc.Set(&memcache.Item{
		Key:        cacheKey(address),
		Value:      []byte(containerID),
		Expiration: cacheTTL,
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// DeleteCache forgets the container id of address
func (r *repository) DeleteCache(ctx context.Context, address string) error {
	ctx, span := tracer.Start(ctx, "Identity.Repository.DeleteCache")
	defer span.End()

	err := r.mc.Delete(cacheKey(address))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		span.RecordError(err)
		return err
	}
	return nil
}

// Lookup asks the ledger node for the containers owned by owner
func (r *repository) Lookup(ctx context.Context, owner string) ([]core.TimelineContainer, error) {
	ctx, span := tracer.Start(ctx, "Identity.Repository.Lookup")
	defer span.End()

	containers, err := r.client.ListContainers(ctx, owner)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return containers, nil
}
