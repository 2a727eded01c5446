//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
)

func InitializeApplication(ctx context.Context, src ConfigSource) (*Application, func(), error) {
	panic(wire.Build(
		ConfigSet,
		ObservabilitySet,
		LoginSet,
		AppSet,
	))
}
