package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tripweaver/internal/models/db_models"
	"tripweaver/internal/models/domain_models"
	"tripweaver/internal/repositories"
	"tripweaver/pkg/utils"
)

// SessionState is the per-conversation memory the orchestrator needs between
// requests.
type SessionState struct {
	ID          string
	Sequence    int64
	Constraints *domain_models.TripConstraints
	Profile     *domain_models.UserProfile
	Itinerary   *domain_models.Itinerary
}

type SessionSummary struct {
	ID       string `json:"id"`
	City     string `json:"city"`
	Sequence int64  `json:"sequence"`
	Updated  int64  `json:"updated"`
}

type HistoryEntry struct {
	RequestID    string `json:"request_id"`
	Status       string `json:"status"`
	DegradeLevel string `json:"degrade_level"`
	Message      string `json:"message"`
	CreatedAt    int64  `json:"created_at"`
}

type SessionServiceInterface interface {
	// Acquire locks the session for the duration of a request; the returned
	// release function must be called exactly once.
	Acquire(sessionID string) (*SessionState, func())
	Save(ctx context.Context, state *SessionState) int64
	RecordPlan(ctx context.Context, record *db_models.PlanRecord)
	PlanByRequestID(ctx context.Context, requestID string) (*db_models.PlanRecord, error)
	ListSessions(ctx context.Context, limit int) ([]SessionSummary, error)
	History(ctx context.Context, sessionID string, limit int) ([]HistoryEntry, error)
}

type SessionService struct {
	mu       sync.Mutex
	states   map[string]*sessionSlot
	sessions repositories.SessionRepository // nil without Postgres
	plans    repositories.PlanRepository    // nil without Postgres
	memPlans []db_models.PlanRecord         // in-memory history fallback
	logger   *zap.Logger
}

type sessionSlot struct {
	lock  sync.Mutex
	state *SessionState
}

func NewSessionService(sessions repositories.SessionRepository, plans repositories.PlanRepository, logger *zap.Logger) SessionServiceInterface {
	return &SessionService{
		states:   make(map[string]*sessionSlot),
		sessions: sessions,
		plans:    plans,
		logger:   logger,
	}
}

// Acquire hands back the session state under its mutex, creating the session
// on first use. Requests to the same session serialize here.
func (s *SessionService) Acquire(sessionID string) (*SessionState, func()) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	s.mu.Lock()
	slot, ok := s.states[sessionID]
	if !ok {
		slot = &sessionSlot{state: &SessionState{ID: sessionID}}
		s.states[sessionID] = slot
	}
	s.mu.Unlock()

	slot.lock.Lock()
	if slot.state.Itinerary == nil && s.sessions != nil {
		s.hydrate(slot.state)
	}
	return slot.state, func() { slot.lock.Unlock() }
}

func (s *SessionService) hydrate(state *SessionState) {
	stored, err := s.sessions.GetByID(context.Background(), state.ID)
	if err != nil || stored == nil {
		return
	}
	state.Sequence = stored.Sequence
	if stored.ConstraintsJSON != "" {
		var constraints domain_models.TripConstraints
		if json.Unmarshal([]byte(stored.ConstraintsJSON), &constraints) == nil {
			state.Constraints = &constraints
		}
	}
	if stored.ItineraryJSON != "" {
		var itinerary domain_models.Itinerary
		if json.Unmarshal([]byte(stored.ItineraryJSON), &itinerary) == nil {
			state.Itinerary = &itinerary
		}
	}
}

// Save bumps the sequence, persists when a repository is wired, and returns
// the new sequence number.
func (s *SessionService) Save(ctx context.Context, state *SessionState) int64 {
	state.Sequence++
	if s.sessions == nil {
		return state.Sequence
	}

	record := &db_models.Session{Sequence: state.Sequence}
	if id, err := uuid.Parse(state.ID); err == nil {
		record.ID = id
	}
	if state.Constraints != nil {
		record.City = state.Constraints.City
		if raw, err := json.Marshal(state.Constraints); err == nil {
			record.ConstraintsJSON = string(raw)
		}
	}
	if state.Profile != nil {
		record.Themes = state.Profile.Themes
	}
	if state.Itinerary != nil {
		if raw, err := json.Marshal(state.Itinerary); err == nil {
			record.ItineraryJSON = string(raw)
		}
	}
	if err := s.sessions.Upsert(ctx, record); err != nil {
		s.logger.Warn("session persist failed", zap.String("session_id", state.ID), zap.Error(err))
	}
	return state.Sequence
}

func (s *SessionService) RecordPlan(ctx context.Context, record *db_models.PlanRecord) {
	if s.plans != nil {
		if err := s.plans.Create(ctx, record); err != nil {
			s.logger.Warn("plan persist failed", zap.String("request_id", record.RequestID), zap.Error(err))
		}
		return
	}
	s.mu.Lock()
	s.memPlans = append(s.memPlans, *record)
	if len(s.memPlans) > 1000 {
		s.memPlans = s.memPlans[len(s.memPlans)-1000:]
	}
	s.mu.Unlock()
}

func (s *SessionService) PlanByRequestID(ctx context.Context, requestID string) (*db_models.PlanRecord, error) {
	if s.plans != nil {
		record, err := s.plans.GetByRequestID(ctx, requestID)
		if err != nil {
			return nil, utils.ErrDatabaseError
		}
		if record == nil {
			return nil, utils.ErrPlanNotFound
		}
		return record, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.memPlans {
		if s.memPlans[i].RequestID == requestID {
			record := s.memPlans[i]
			return &record, nil
		}
	}
	return nil, utils.ErrPlanNotFound
}

func (s *SessionService) ListSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.sessions != nil {
		rows, err := s.sessions.List(ctx, limit)
		if err != nil {
			return nil, utils.ErrDatabaseError
		}
		out := make([]SessionSummary, 0, len(rows))
		for _, row := range rows {
			out = append(out, SessionSummary{
				ID:       row.ID.String(),
				City:     row.City,
				Sequence: row.Sequence,
				Updated:  row.UpdatedAt,
			})
		}
		return out, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionSummary, 0, len(s.states))
	for id, slot := range s.states {
		city := ""
		if slot.state.Constraints != nil {
			city = slot.state.Constraints.City
		}
		out = append(out, SessionSummary{ID: id, City: city, Sequence: slot.state.Sequence})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *SessionService) History(ctx context.Context, sessionID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []db_models.PlanRecord
	if s.plans != nil {
		var err error
		rows, err = s.plans.ListBySession(ctx, sessionID, limit)
		if err != nil {
			return nil, utils.ErrDatabaseError
		}
	} else {
		s.mu.Lock()
		for i := len(s.memPlans) - 1; i >= 0 && len(rows) < limit; i-- {
			if s.memPlans[i].SessionID == sessionID {
				rows = append(rows, s.memPlans[i])
			}
		}
		s.mu.Unlock()
	}

	out := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, HistoryEntry{
			RequestID:    row.RequestID,
			Status:       row.Status,
			DegradeLevel: row.DegradeLevel,
			Message:      row.Message,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out, nil
}
