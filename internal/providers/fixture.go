package providers

import (
	"context"

	"tripweaver/pkg/utils"
)

// FixtureRouteProvider estimates legs from straight-line distance at the mode
// speed. Confidence is pinned at 0.5 so trust scoring can tell fixture legs
// from realtime ones.
type FixtureRouteProvider struct{}

func NewFixtureRouteProvider() *FixtureRouteProvider { return &FixtureRouteProvider{} }

func (f *FixtureRouteProvider) Name() string { return "fixture" }

func (f *FixtureRouteProvider) RouteBetween(ctx context.Context, fromLat, fromLon, toLat, toLon float64, mode string) (RouteLeg, error) {
	if err := ctx.Err(); err != nil {
		return RouteLeg{}, err
	}
	dist := utils.HaversineKm(fromLat, fromLon, toLat, toLon)
	minutes := utils.TravelMinutes(dist, mode)
	if minutes < 1 {
		minutes = 1
	}
	return RouteLeg{
		Minutes:    minutes,
		DistanceKm: dist,
		Confidence: 0.5,
	}, nil
}
