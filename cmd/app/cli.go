package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tripweaver/internal/models/domain_models"
	"tripweaver/internal/models/request_models"
	"tripweaver/internal/providers"
	"tripweaver/internal/services"
	"tripweaver/pkg/logger"
	"tripweaver/pkg/utils"
)

// buildPlanner assembles the one-shot pipeline for CLI use; the server path
// wires the same constructors through fx.
func buildPlanner() (services.OrchestratorServiceInterface, services.ExportServiceInterface, *zap.Logger) {
	cfg := utils.LoadConfig()
	log, err := logger.New()
	if err != nil {
		log = zap.NewNop()
	}

	set := providers.NewProviderSet(cfg, log)
	sessions := services.NewSessionService(nil, nil, log)
	scheduler := services.NewSchedulerService(set.Route, cfg, log)
	orchestrator := services.NewOrchestratorService(
		services.NewIntakeService(set.LLM, cfg, log),
		services.NewClarifyService(set.LLM, log),
		services.NewRetrieverService(set, cfg, nil, log),
		scheduler,
		services.NewValidatorService(),
		services.NewRepairService(scheduler, log),
		services.NewTrustService(set, cfg),
		sessions,
		services.NewMetricsService(),
		cfg,
		log,
	)
	return orchestrator, services.NewExportService(), log
}

func planCmd() *cobra.Command {
	var asMarkdown bool
	cmd := &cobra.Command{
		Use:   "plan \"<message>\"",
		Short: "Plan a trip from a natural-language request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orchestrator, export, _ := buildPlanner()
			resp := orchestrator.Plan(context.Background(),
				request_models.PlanRequest{Message: args[0]}, "", uuid.New().String())

			if resp.Status == "clarifying" {
				fmt.Println("Need a few more details:")
				for _, q := range resp.NextQuestions {
					fmt.Println("  -", q)
				}
				return nil
			}
			if resp.Status == "error" {
				return fmt.Errorf("%s: %s", resp.ErrorCode, resp.Message)
			}

			if asMarkdown && resp.Itinerary != nil {
				fmt.Println(export.Markdown(*resp.Itinerary))
				return nil
			}
			raw, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(raw))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "render the itinerary as markdown")
	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <itinerary.json>",
		Short: "Render a saved itinerary JSON file as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var itinerary domain_models.Itinerary
			if err := json.Unmarshal(raw, &itinerary); err != nil {
				return fmt.Errorf("parse itinerary: %w", err)
			}
			fmt.Println(services.NewExportService().Markdown(itinerary))
			return nil
		},
	}
}
