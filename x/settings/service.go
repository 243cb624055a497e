// Package settings persists per-account preferences such as the theme
package settings

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/totegamma/mjtimeline/core"
)

var tracer = otel.Tracer("settings")

const themeKey = "theme"

type service struct {
	repository Repository
}

// NewService creates a new settings service
func NewService(repository Repository) core.SettingsService {
	return &service{repository: repository}
}

func ownerOrAnonymous(owner string) string {
	if owner == "" {
		return core.AnonymousOwner
	}
	return owner
}

// LoadTheme returns the stored theme. It falls back to dark when nothing is
// stored or the store cannot be read.
func (s *service) LoadTheme(ctx context.Context, owner string) (core.Theme, error) {
	ctx, span := tracer.Start(ctx, "Settings.Service.LoadTheme")
	defer span.End()

	value, err := s.repository.Get(ctx, ownerOrAnonymous(owner), themeKey)
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return core.ThemeDark, nil
		}
		span.RecordError(err)
		slog.WarnContext(
			ctx,
			"failed to read stored theme, falling back to dark",
			slog.String("error", err.Error()),
			slog.String("module", "settings"),
		)
		return core.ThemeDark, nil
	}

	theme := core.Theme(value)
	if !theme.Valid() {
		slog.WarnContext(
			ctx,
			"stored theme is unknown, falling back to dark",
			slog.String("value", value),
			slog.String("module", "settings"),
		)
		return core.ThemeDark, nil
	}

	return theme, nil
}

// SaveTheme stores a theme. Only light and dark are accepted.
func (s *service) SaveTheme(ctx context.Context, owner string, theme core.Theme) error {
	ctx, span := tracer.Start(ctx, "Settings.Service.SaveTheme")
	defer span.End()

	if !theme.Valid() {
		return core.NewErrorInvalidArgument("unknown theme " + string(theme))
	}

	return s.repository.Set(ctx, ownerOrAnonymous(owner), themeKey, string(theme))
}

// ToggleTheme flips the stored theme and returns the new one
func (s *service) ToggleTheme(ctx context.Context, owner string) (core.Theme, error) {
	ctx, span := tracer.Start(ctx, "Settings.Service.ToggleTheme")
	defer span.End()

	current, err := s.LoadTheme(ctx, owner)
	if err != nil {
		return current, err
	}

	next := current.Toggle()
	if err := s.SaveTheme(ctx, owner, next); err != nil {
		span.RecordError(err)
		return current, err
	}

	return next, nil
}
