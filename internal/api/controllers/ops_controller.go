package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripweaver/internal/providers"
	"tripweaver/internal/services"
	"tripweaver/pkg/utils"
)

type OpsController struct {
	metrics services.MetricsServiceInterface
	set     *providers.ProviderSet
	cfg     *utils.Config
}

func NewOpsController(metrics services.MetricsServiceInterface, set *providers.ProviderSet, cfg *utils.Config) *OpsController {
	return &OpsController{metrics: metrics, set: set, cfg: cfg}
}

func (o *OpsController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (o *OpsController) Metrics(c *gin.Context) {
	utils.RespondSuccess(c, o.metrics.Snapshot(), "Metrics snapshot")
}

func (o *OpsController) Prometheus(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; version=0.0.4", []byte(o.metrics.Prometheus()))
}

func (o *OpsController) Diagnostics(c *gin.Context) {
	diag := gin.H{
		"poi_provider":         o.set.PoiProviderName,
		"route_provider":       o.set.RouteProviderName,
		"llm_provider":         o.set.LLMProviderName,
		"strict_external_data": o.cfg.StrictExternalData,
		"env_source":           o.cfg.EnvSource,
		"rate_limit_max":       o.cfg.RateLimitMax,
		"rate_limit_window_s":  int(o.cfg.RateLimitWindow.Seconds()),
		"max_repair_rounds":    o.cfg.MaxRepairRounds,
	}
	if o.set.Map != nil {
		diag["route_cache"] = o.set.Map.RouteCache.Stats()
		diag["poi_cache"] = o.set.Map.PoiCache.Stats()
	}
	utils.RespondSuccess(c, diag, "Diagnostics")
}
