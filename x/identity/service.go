// Package identity maps a wallet address to the timeline container it owns
package identity

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/mjtimeline/core"
)

var tracer = otel.Tracer("identity")

type service struct {
	repository Repository
}

// NewService creates a new identity resolver
func NewService(repository Repository) core.IdentityService {
	return &service{repository}
}

// Resolve returns the id of the container owned by address.
// It returns core.ErrorNotFound when the address has not initialized a timeline yet.
func (s *service) Resolve(ctx context.Context, address string) (string, error) {
	ctx, span := tracer.Start(ctx, "Identity.Service.Resolve")
	defer span.End()

	if address == "" {
		return "", core.NewErrorNotConnected()
	}
	span.SetAttributes(attribute.String("address", address))

	cached, err := s.repository.GetCache(ctx, address)
	if err == nil {
		return cached, nil
	}

	containers, err := s.repository.Lookup(ctx, address)
	if err != nil {
		span.RecordError(err)
		return "", core.NewErrorGateway(err)
	}

	for _, container := range containers {
		if !strings.EqualFold(container.Owner, address) {
			continue
		}

		err = s.repository.SetCache(ctx, address, container.ID)
		if err != nil {
			slog.WarnContext(
				ctx,
				"failed to cache timeline container",
				slog.String("error", err.Error()),
				slog.String("module", "identity"),
			)
		}
		return container.ID, nil
	}

	return "", core.NewErrorNotFound()
}

// Remember records a freshly initialized container
func (s *service) Remember(ctx context.Context, address, containerID string) error {
	ctx, span := tracer.Start(ctx, "Identity.Service.Remember")
	defer span.End()

	return s.repository.SetCache(ctx, address, containerID)
}

func (s *service) Forget(ctx context.Context, address string) error {
	ctx, span := tracer.Start(ctx, "Identity.Service.Forget")
	defer span.End()

	return s.repository.DeleteCache(ctx, address)
}
