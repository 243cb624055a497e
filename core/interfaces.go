//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=mock/services.go
package core

import (
	"context"
)

type Wallet interface {
	CurrentAccount() string
	IsConnected() bool
	Sign(ctx context.Context, payload []byte) (string, error)
}

type GatewayService interface {
	Execute(ctx context.Context, intent Intent) (Receipt, error)
	GetContainer(ctx context.Context, id string) (ContainerState, error)
}

type IdentityService interface {
	Resolve(ctx context.Context, address string) (string, error)
	Remember(ctx context.Context, address, containerID string) error
	Forget(ctx context.Context, address string) error
}

type SettingsService interface {
	LoadTheme(ctx context.Context, owner string) (Theme, error)
	SaveTheme(ctx context.Context, owner string, theme Theme) error
	ToggleTheme(ctx context.Context, owner string) (Theme, error)
}
