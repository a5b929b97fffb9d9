package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/internal/models/domain_models"
	"tripweaver/internal/providers"
)

func newTestIntake() IntakeServiceInterface {
	return NewIntakeService(providers.NewTemplateClient(), testConfig(), testLogger())
}

func TestIntakeParsesFullRequest(t *testing.T) {
	intake := newTestIntake()

	result, err := intake.Extract(context.Background(),
		"Beijing 4 days, Spring Festival, history+food, budget 600/day", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "beijing", result.Constraints.City)
	assert.Equal(t, 4, result.Constraints.Days)
	assert.Equal(t, 600.0, result.Constraints.DailyBudget)
	require.NotNil(t, result.Constraints.DateStart)
	assert.Equal(t, "2026-02-17", result.Constraints.DateStart.Format("2006-01-02"))
	assert.Contains(t, result.Profile.Themes, "history")
	assert.Contains(t, result.Profile.Themes, "food")
	assert.Empty(t, result.MissingFields)
	assert.Equal(t, "regex", result.FieldEvidence["city"])
}

func TestIntakeDetectsMissingFields(t *testing.T) {
	intake := newTestIntake()

	result, err := intake.Extract(context.Background(), "I want to travel", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"city", "days"}, result.MissingFields)
}

func TestIntakeMustVisitAndAvoid(t *testing.T) {
	intake := newTestIntake()

	result, err := intake.Extract(context.Background(),
		"Chengdu 3 days, must_visit=Panda Base, avoid Hotpot", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "chengdu", result.Constraints.City)
	assert.Equal(t, 3, result.Constraints.Days)
	assert.Contains(t, result.Constraints.MustVisit, "Panda Base")
	require.NotEmpty(t, result.Constraints.Avoid)
	assert.Contains(t, result.Constraints.Avoid[0], "Hotpot")
}

func TestIntakeKeywords(t *testing.T) {
	intake := newTestIntake()

	result, err := intake.Extract(context.Background(),
		"Relaxed weekend in Shanghai with the family, we will use the metro, vegetarian food please", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "shanghai", result.Constraints.City)
	assert.Equal(t, 2, result.Constraints.Days)
	assert.Equal(t, domain_models.PaceRelaxed, result.Constraints.Pace)
	assert.Equal(t, domain_models.TransportPublicTransit, result.Constraints.TransportMode)
	assert.Equal(t, domain_models.TravelersFamily, result.Profile.TravelersType)
	assert.Contains(t, result.Profile.Dietary, "vegetarian")
}

func TestIntakeSeedWinsOverParse(t *testing.T) {
	intake := newTestIntake()

	seed := &domain_models.TripConstraints{City: "hangzhou", Days: 5}
	result, err := intake.Extract(context.Background(), "Beijing 2 days", seed, nil)
	require.NoError(t, err)

	assert.Equal(t, "hangzhou", result.Constraints.City)
	assert.Equal(t, 5, result.Constraints.Days)
	assert.Equal(t, "caller", result.FieldEvidence["city"])
}

func TestIntakeExplicitDate(t *testing.T) {
	intake := newTestIntake()

	result, err := intake.Extract(context.Background(), "Chengdu 1 day trip on 2026-08-03", nil, nil)
	require.NoError(t, err)

	require.NotNil(t, result.Constraints.DateStart)
	assert.Equal(t, "2026-08-03", result.Constraints.DateStart.Format("2006-01-02"))
}
