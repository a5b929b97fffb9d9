package session_fx

import (
	"go.uber.org/fx"

	"tripweaver/internal/services"
)

var Module = fx.Provide(
	services.NewSessionService,
	services.NewExportService,
)
