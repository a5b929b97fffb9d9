package core_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tripweaver/internal/providers"
	"tripweaver/pkg/logger"
	"tripweaver/pkg/utils"
)

var Module = fx.Provide(
	utils.LoadConfig,
	provideLogger,
	providers.NewProviderSet,
)

func provideLogger() *zap.Logger {
	log, err := logger.New()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
