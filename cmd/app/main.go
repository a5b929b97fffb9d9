package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tripweaver/cmd/fx/controllers_fx"
	"tripweaver/cmd/fx/core_fx"
	"tripweaver/cmd/fx/db_fx"
	"tripweaver/cmd/fx/planner_fx"
	"tripweaver/cmd/fx/session_fx"
	"tripweaver/internal/api/controllers"
	"tripweaver/pkg/middleware"
	"tripweaver/pkg/utils"
)

func main() {
	root := &cobra.Command{
		Use:   "tripweaver",
		Short: "Multi-day city itinerary planning service",
	}
	root.AddCommand(serveCmd(), planCmd(), exportCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			app := fx.New(
				core_fx.Module,
				db_fx.Module,
				session_fx.Module,
				planner_fx.Module,
				controllers_fx.Module,
				fx.Provide(ProvideRouter),
				fx.Invoke(StartServer),
			)
			app.Run()
		},
	}
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg *utils.Config, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("starting HTTP server", zap.String("port", cfg.Port))
				if err := engine.Run(":" + cfg.Port); err != nil {
					log.Fatal("failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(
	cfg *utils.Config,
	planController *controllers.PlanController,
	sessionController *controllers.SessionController,
	opsController *controllers.OpsController,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, cfg, planController, sessionController, opsController)
	return r
}

func RegisterRoutes(
	r *gin.Engine,
	cfg *utils.Config,
	planController *controllers.PlanController,
	sessionController *controllers.SessionController,
	opsController *controllers.OpsController,
) {
	r.GET("/health", opsController.Health)

	bucket := middleware.NewTokenBucket(cfg.RateLimitMax, cfg.RateLimitWindow)

	api := r.Group("/")
	api.Use(middleware.RateLimitMiddleware(bucket))
	if !cfg.AllowUnauthed {
		api.Use(middleware.AuthMiddleware(cfg))
	}
	api.POST("/plan", planController.Plan)
	api.POST("/chat", planController.Chat)
	api.GET("/sessions", sessionController.ListSessions)
	api.GET("/sessions/:id/history", sessionController.History)
	api.GET("/plans/:requestId/export", sessionController.Export)

	ops := r.Group("/")
	ops.Use(middleware.AuthMiddleware(cfg))
	ops.GET("/metrics", opsController.Metrics)
	ops.GET("/metrics/prometheus", opsController.Prometheus)
	ops.GET("/diagnostics", opsController.Diagnostics)
}
