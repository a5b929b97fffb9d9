package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tripweaver/internal/models/domain_models"
	"tripweaver/internal/providers"
	"tripweaver/pkg/utils"
)

// IntakeResult is what intake hands the orchestrator: constraints, profile,
// and the evidence of which fields each strategy filled.
type IntakeResult struct {
	Constraints   domain_models.TripConstraints
	Profile       domain_models.UserProfile
	MissingFields []string
	FieldEvidence map[string]string // field -> "llm" | "regex" | "caller"
}

type IntakeServiceInterface interface {
	Extract(ctx context.Context, message string, seed *domain_models.TripConstraints, seedProfile *domain_models.UserProfile) (*IntakeResult, error)
}

type IntakeService struct {
	llm    providers.LLMClient
	cfg    *utils.Config
	logger *zap.Logger
}

func NewIntakeService(llm providers.LLMClient, cfg *utils.Config, logger *zap.Logger) IntakeServiceInterface {
	return &IntakeService{llm: llm, cfg: cfg, logger: logger}
}

var knownCities = []string{
	"beijing", "shanghai", "chengdu", "hangzhou", "guangzhou", "shenzhen",
	"xian", "xi'an", "nanjing", "chongqing", "wuhan", "changsha", "xiamen",
	"qingdao", "suzhou", "sanya", "lijiang", "dali", "guilin", "kunming",
}

var paceKeywords = map[string]domain_models.Pace{
	"relaxed":   domain_models.PaceRelaxed,
	"leisurely": domain_models.PaceRelaxed,
	"easy":      domain_models.PaceRelaxed,
	"moderate":  domain_models.PaceModerate,
	"normal":    domain_models.PaceModerate,
	"intensive": domain_models.PaceIntensive,
	"packed":    domain_models.PaceIntensive,
	"intense":   domain_models.PaceIntensive,
}

var transportKeywords = map[string]domain_models.TransportMode{
	"walking":        domain_models.TransportWalking,
	"walk":           domain_models.TransportWalking,
	"on foot":        domain_models.TransportWalking,
	"public transit": domain_models.TransportPublicTransit,
	"metro":          domain_models.TransportPublicTransit,
	"subway":         domain_models.TransportPublicTransit,
	"bus":            domain_models.TransportPublicTransit,
	"taxi":           domain_models.TransportTaxi,
	"cab":            domain_models.TransportTaxi,
	"driving":        domain_models.TransportDriving,
	"drive":          domain_models.TransportDriving,
	"car":            domain_models.TransportDriving,
}

var travelerKeywords = map[string]domain_models.TravelersType{
	"solo":        domain_models.TravelersSolo,
	"alone":       domain_models.TravelersSolo,
	"couple":      domain_models.TravelersCouple,
	"honeymoon":   domain_models.TravelersCouple,
	"family":      domain_models.TravelersFamily,
	"kids":        domain_models.TravelersFamily,
	"children":    domain_models.TravelersFamily,
	"friends":     domain_models.TravelersFriends,
	"elderly":     domain_models.TravelersElderly,
	"grandparent": domain_models.TravelersElderly,
}

var themeKeywords = []string{
	"history", "food", "nature", "art", "culture", "museum", "shopping",
	"nightlife", "family", "temple", "hiking", "skyline", "photography",
}

var dietaryKeywords = []string{"vegetarian", "vegan", "halal", "no seafood", "gluten-free", "no spicy"}

var (
	daysRe      = regexp.MustCompile(`(\d+)[\s-]*days?\b`)
	budgetRe    = regexp.MustCompile(`budget\s*(?:of\s*)?(\d+(?:\.\d+)?)`)
	perDayRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:/|\bper\s*)day`)
	mustVisitRe = regexp.MustCompile(`must[\s_-]*visit\s*[:=]?\s*([^,.;]+)`)
	avoidRe     = regexp.MustCompile(`avoid\s*[:=]?\s*([^,.;]+)`)
	dateRe      = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
)

// Extract runs the LLM-guided parse when a provider is configured, then the
// regex safety net, then reports missing required fields. The regex pass fills
// city, days, budget and start date only while they are unset; a pace,
// transport or traveler keyword in the message replaces the earlier value.
func (s *IntakeService) Extract(ctx context.Context, message string, seed *domain_models.TripConstraints, seedProfile *domain_models.UserProfile) (*IntakeResult, error) {
	result := &IntakeResult{
		Constraints:   domain_models.DefaultConstraints(),
		Profile:       domain_models.DefaultProfile(),
		FieldEvidence: make(map[string]string),
	}

	// Caller-supplied city, days, dates and budget win over anything parsed;
	// pace, transport mode and travelers type can still be replaced by the parse.
	if seed != nil {
		s.applySeed(result, seed)
	}
	if seedProfile != nil {
		if seedProfile.TravelersType != "" {
			result.Profile.TravelersType = seedProfile.TravelersType
		}
		result.Profile.Themes = append(result.Profile.Themes, seedProfile.Themes...)
		result.Profile.Dietary = append(result.Profile.Dietary, seedProfile.Dietary...)
	}

	if s.llm != nil && s.llm.Name() != "template" && strings.TrimSpace(message) != "" {
		s.applyLLMParse(ctx, message, result)
	}
	s.applyRegexParse(message, result)

	result.MissingFields = result.Constraints.MissingFields()
	return result, nil
}

func (s *IntakeService) applySeed(result *IntakeResult, seed *domain_models.TripConstraints) {
	c := &result.Constraints
	if seed.City != "" {
		c.City = seed.City
		result.FieldEvidence["city"] = "caller"
	}
	if seed.Days > 0 {
		c.Days = seed.Days
		result.FieldEvidence["days"] = "caller"
	}
	if seed.DateStart != nil {
		c.DateStart = seed.DateStart
		result.FieldEvidence["date_start"] = "caller"
	}
	if seed.DateEnd != nil {
		c.DateEnd = seed.DateEnd
	}
	if seed.DailyBudget > 0 {
		c.DailyBudget = seed.DailyBudget
		result.FieldEvidence["daily_budget"] = "caller"
	}
	if seed.TransportMode != "" {
		c.TransportMode = seed.TransportMode
	}
	if seed.Pace != "" {
		c.Pace = seed.Pace
	}
	c.MustVisit = append(c.MustVisit, seed.MustVisit...)
	c.Avoid = append(c.Avoid, seed.Avoid...)
}

func (s *IntakeService) applyLLMParse(ctx context.Context, message string, result *IntakeResult) {
	var parsed *providers.TripParse
	err := utils.CallWithRetry(ctx, s.cfg.LLMTimeout, func(callCtx context.Context) error {
		var callErr error
		parsed, callErr = s.llm.ParseTrip(callCtx, message)
		return callErr
	})
	if err != nil || parsed == nil {
		s.logger.Warn("llm intake parse failed, regex net will fill", zap.Error(err))
		return
	}

	c := &result.Constraints
	if c.City == "" && parsed.City != "" {
		c.City = domain_models.NormalizeName(parsed.City)
		result.FieldEvidence["city"] = "llm"
	}
	if result.FieldEvidence["days"] == "" && parsed.Days >= 1 && parsed.Days <= 30 {
		c.Days = parsed.Days
		result.FieldEvidence["days"] = "llm"
	}
	if c.DateStart == nil {
		if t := utils.ParseDate(parsed.DateStart); t != nil {
			c.DateStart = t
			result.FieldEvidence["date_start"] = "llm"
		}
	}
	if c.DateEnd == nil {
		c.DateEnd = utils.ParseDate(parsed.DateEnd)
	}
	if c.DailyBudget == 0 && parsed.DailyBudget > 0 {
		c.DailyBudget = parsed.DailyBudget
		result.FieldEvidence["daily_budget"] = "llm"
	}
	if mode := domain_models.TransportMode(parsed.TransportMode); validTransport(mode) {
		c.TransportMode = mode
	}
	if pace := domain_models.Pace(parsed.Pace); validPace(pace) {
		c.Pace = pace
	}
	c.MustVisit = mergeUnique(c.MustVisit, parsed.MustVisit)
	c.Avoid = mergeUnique(c.Avoid, parsed.Avoid)
	if t := domain_models.TravelersType(parsed.TravelersType); validTravelers(t) {
		result.Profile.TravelersType = t
	}
	result.Profile.Themes = mergeUnique(result.Profile.Themes, parsed.Themes)
	result.Profile.Dietary = mergeUnique(result.Profile.Dietary, parsed.Dietary)
}

func (s *IntakeService) applyRegexParse(message string, result *IntakeResult) {
	lower := strings.ToLower(message)
	c := &result.Constraints

	if c.City == "" {
		for _, city := range knownCities {
			if strings.Contains(lower, city) {
				c.City = city
				result.FieldEvidence["city"] = "regex"
				break
			}
		}
	}

	if result.FieldEvidence["days"] == "" {
		if m := daysRe.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 30 {
				c.Days = n
				result.FieldEvidence["days"] = "regex"
			}
		} else if strings.Contains(lower, "weekend") {
			c.Days = 2
			result.FieldEvidence["days"] = "regex"
		}
	}

	if c.DailyBudget == 0 {
		if m := perDayRe.FindStringSubmatch(lower); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				c.DailyBudget = v
				result.FieldEvidence["daily_budget"] = "regex"
			}
		} else if m := budgetRe.FindStringSubmatch(lower); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && c.Days > 0 {
				c.DailyBudget = v / float64(c.Days)
				result.FieldEvidence["daily_budget"] = "regex"
			}
		}
	}

	if c.DateStart == nil {
		if m := dateRe.FindStringSubmatch(message); m != nil {
			c.DateStart = utils.ParseDate(m[1])
			result.FieldEvidence["date_start"] = "regex"
		} else if strings.Contains(lower, "spring festival") || strings.Contains(lower, "lunar new year") {
			// Anchor the trip on the configured festival date so peak-season
			// handling kicks in.
			c.DateStart = utils.ParseDate(s.cfg.SpringFestivalDate)
			result.FieldEvidence["date_start"] = "regex"
		}
	}

	for kw, pace := range paceKeywords {
		if strings.Contains(lower, kw) {
			c.Pace = pace
			break
		}
	}
	for kw, mode := range transportKeywords {
		if strings.Contains(lower, kw) {
			c.TransportMode = mode
			break
		}
	}
	for kw, t := range travelerKeywords {
		if strings.Contains(lower, kw) {
			result.Profile.TravelersType = t
			break
		}
	}
	for _, theme := range themeKeywords {
		if strings.Contains(lower, theme) {
			result.Profile.Themes = mergeUnique(result.Profile.Themes, []string{theme})
		}
	}
	for _, kw := range dietaryKeywords {
		if strings.Contains(lower, kw) {
			result.Profile.Dietary = mergeUnique(result.Profile.Dietary, []string{kw})
		}
	}

	if m := mustVisitRe.FindStringSubmatch(message); m != nil {
		c.MustVisit = mergeUnique(c.MustVisit, []string{strings.TrimSpace(m[1])})
	}
	if m := avoidRe.FindStringSubmatch(message); m != nil {
		c.Avoid = mergeUnique(c.Avoid, []string{strings.TrimSpace(m[1])})
	}
}

func mergeUnique(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[domain_models.NormalizeName(v)] = true
	}
	for _, v := range extra {
		v = strings.TrimSpace(v)
		if v == "" || seen[domain_models.NormalizeName(v)] {
			continue
		}
		seen[domain_models.NormalizeName(v)] = true
		existing = append(existing, v)
	}
	return existing
}

func validTransport(m domain_models.TransportMode) bool {
	switch m {
	case domain_models.TransportWalking, domain_models.TransportPublicTransit,
		domain_models.TransportTaxi, domain_models.TransportDriving:
		return true
	}
	return false
}

func validPace(p domain_models.Pace) bool {
	switch p {
	case domain_models.PaceRelaxed, domain_models.PaceModerate, domain_models.PaceIntensive:
		return true
	}
	return false
}

func validTravelers(t domain_models.TravelersType) bool {
	switch t {
	case domain_models.TravelersSolo, domain_models.TravelersCouple, domain_models.TravelersFamily,
		domain_models.TravelersFriends, domain_models.TravelersElderly:
		return true
	}
	return false
}
