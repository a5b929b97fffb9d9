package controllers_fx

import (
	"go.uber.org/fx"

	"tripweaver/internal/api/controllers"
)

var Module = fx.Provide(
	controllers.NewPlanController,
	controllers.NewSessionController,
	controllers.NewOpsController,
)
