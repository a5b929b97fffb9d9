package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tripweaver/internal/models/db_models"
	"tripweaver/internal/models/domain_models"
	"tripweaver/internal/models/request_models"
	"tripweaver/internal/models/response_models"
	"tripweaver/pkg/utils"
)

// stage names drive the pipeline loop; transitions are pure decisions over the
// accumulated plan state.
type stage string

const (
	stageIntake   stage = "intake"
	stageClarify  stage = "clarify"
	stageRetrieve stage = "retrieve"
	stageSchedule stage = "schedule"
	stageValidate stage = "validate"
	stageRepair   stage = "repair"
	stageFinalize stage = "finalize"
)

// planState is exclusively owned by the orchestrator; stages receive copies
// and hand back replacements.
type planState struct {
	message     string
	constraints domain_models.TripConstraints
	profile     domain_models.UserProfile
	missing     []string
	evidence    map[string]string
	pool        *RetrieverResult
	itinerary   domain_models.Itinerary
	issues      []domain_models.Issue
	repairRound int
	editPatch   *request_models.EditPatch
}

type OrchestratorServiceInterface interface {
	Plan(ctx context.Context, req request_models.PlanRequest, sessionID string, traceID string) *response_models.PlanResponse
}

type OrchestratorService struct {
	intake    IntakeServiceInterface
	clarify   ClarifyServiceInterface
	retriever RetrieverServiceInterface
	scheduler SchedulerServiceInterface
	validator ValidatorServiceInterface
	repair    RepairServiceInterface
	trust     TrustServiceInterface
	sessions  SessionServiceInterface
	metrics   MetricsServiceInterface
	cfg       *utils.Config
	logger    *zap.Logger
}

func NewOrchestratorService(
	intake IntakeServiceInterface,
	clarify ClarifyServiceInterface,
	retriever RetrieverServiceInterface,
	scheduler SchedulerServiceInterface,
	validator ValidatorServiceInterface,
	repair RepairServiceInterface,
	trust TrustServiceInterface,
	sessions SessionServiceInterface,
	metrics MetricsServiceInterface,
	cfg *utils.Config,
	logger *zap.Logger,
) OrchestratorServiceInterface {
	return &OrchestratorService{
		intake:    intake,
		clarify:   clarify,
		retriever: retriever,
		scheduler: scheduler,
		validator: validator,
		repair:    repair,
		trust:     trust,
		sessions:  sessions,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

// Plan drives Intake → (Clarify) | Retrieve → Schedule → Validate →
// [Repair → Validate]* → Finalize under the request deadline.
func (s *OrchestratorService) Plan(ctx context.Context, req request_models.PlanRequest, sessionID, traceID string) *response_models.PlanResponse {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestDeadline)
	defer cancel()

	var patch *request_models.EditPatch
	if req.Metadata != nil {
		patch = req.Metadata.EditPatch
	}
	if strings.TrimSpace(req.Message) == "" && patch == nil {
		return s.errorResponse(sessionID, traceID, utils.ErrInputInvalid, "message must not be empty")
	}

	session, release := s.sessions.Acquire(sessionID)
	defer release()

	state := &planState{
		message:   req.Message,
		editPatch: patch,
	}

	current := stageIntake
	if patch != nil {
		if session.Itinerary == nil {
			return s.errorResponse(session.ID, traceID, utils.ErrInputInvalid, "no prior itinerary to edit in this session")
		}
		// Edit patches short-circuit intake: restore prior state and jump
		// straight to the repair/validate path.
		state.itinerary = session.Itinerary.Clone()
		if session.Constraints != nil {
			state.constraints = *session.Constraints
		}
		if session.Profile != nil {
			state.profile = *session.Profile
		}
		patched, err := s.repair.ApplyEditPatch(state.itinerary, patch, state.constraints)
		if err != nil {
			return s.errorResponse(session.ID, traceID, err, "edit patch could not be applied")
		}
		state.itinerary = patched
		current = stageValidate
	}

	for current != stageFinalize {
		if err := ctx.Err(); err != nil {
			return s.errorResponse(session.ID, traceID, utils.ErrDeadlineExceeded, "request deadline exceeded")
		}

		var resp *response_models.PlanResponse
		current, resp = s.step(ctx, current, state, session, traceID)
		if resp != nil {
			return resp
		}
	}
	return s.finalize(ctx, state, session, traceID)
}

// step executes one stage and returns the next, or a terminal response for the
// clarify and error exits.
func (s *OrchestratorService) step(ctx context.Context, current stage, state *planState, session *SessionState, traceID string) (stage, *response_models.PlanResponse) {
	switch current {
	case stageIntake:
		seed := state.seedConstraints(session)
		result, err := s.intake.Extract(ctx, state.message, seed, session.Profile)
		if err != nil {
			return current, s.errorResponse(session.ID, traceID, err, "intake failed")
		}
		state.constraints = result.Constraints
		state.profile = result.Profile
		state.missing = result.MissingFields
		state.evidence = result.FieldEvidence
		if len(state.missing) > 0 {
			return stageClarify, nil
		}
		return stageRetrieve, nil

	case stageClarify:
		questions := s.clarify.Questions(ctx, state.missing)
		session.Constraints = &state.constraints
		session.Profile = &state.profile
		seq := s.sessions.Save(ctx, session)
		s.metrics.CountRequest("clarifying")
		return stageFinalize, &response_models.PlanResponse{
			Status:         "clarifying",
			Message:        "A few details are missing before planning can start.",
			SessionID:      session.ID,
			Sequence:       seq,
			RequestID:      uuid.New().String(),
			TraceID:        traceID,
			NextQuestions:  questions,
			FieldEvidence:  state.evidence,
			RunFingerprint: s.trust.Fingerprint(traceID),
		}

	case stageRetrieve:
		pool, err := s.retriever.BuildPool(ctx, state.constraints, state.profile)
		if err != nil {
			return current, s.errorResponse(session.ID, traceID, err, "candidate retrieval failed")
		}
		state.pool = pool
		return stageSchedule, nil

	case stageSchedule:
		itinerary, err := s.scheduler.BuildItinerary(ctx, state.constraints, state.profile, state.pool)
		if err != nil {
			return current, s.errorResponse(session.ID, traceID, err, "scheduling failed")
		}
		state.itinerary = itinerary
		return stageValidate, nil

	case stageValidate:
		state.issues = s.validator.Validate(state.itinerary, state.constraints)
		if domain_models.HasAtLeast(state.issues, domain_models.SeverityMedium) &&
			state.repairRound < s.cfg.MaxRepairRounds {
			return stageRepair, nil
		}
		return stageFinalize, nil

	case stageRepair:
		state.repairRound++
		before := domain_models.WeightedSum(state.issues)
		result := s.repair.Repair(state.itinerary, state.issues, state.constraints, state.profile)

		// Progress invariant: keep the repaired itinerary only when cost or
		// severity-weighted issues went down; otherwise stop looping.
		afterIssues := s.validator.Validate(result.Itinerary, state.constraints)
		if result.Itinerary.TotalCost < state.itinerary.TotalCost ||
			domain_models.WeightedSum(afterIssues) < before {
			state.itinerary = result.Itinerary
			state.issues = afterIssues
			return stageValidate, nil
		}
		state.issues = s.validator.Validate(state.itinerary, state.constraints)
		state.repairRound = s.cfg.MaxRepairRounds
		return stageFinalize, nil
	}
	return stageFinalize, nil
}

func (state *planState) seedConstraints(session *SessionState) *domain_models.TripConstraints {
	// Chat follow-ups inherit the session's constraints as a baseline.
	if session.Constraints == nil {
		return nil
	}
	seed := *session.Constraints
	return &seed
}

func (s *OrchestratorService) finalize(ctx context.Context, state *planState, session *SessionState, traceID string) *response_models.PlanResponse {
	itinerary := state.itinerary
	itinerary.Issues = state.issues

	s.trust.Score(&itinerary, state.repairRound)
	if state.repairRound >= s.cfg.MaxRepairRounds &&
		domain_models.HasAtLeast(state.issues, domain_models.SeverityMedium) {
		itinerary.DegradeLevel = domain_models.DegradeL3
	}

	budgetWarning := ""
	for _, issue := range state.issues {
		if issue.Code == domain_models.IssueBudgetUnrealistic {
			budgetWarning = fmt.Sprintf("stated budget is below the minimum feasible %.0f", itinerary.MinimumFeasibleBudget)
		}
	}

	session.Constraints = &state.constraints
	session.Profile = &state.profile
	session.Itinerary = &itinerary
	seq := s.sessions.Save(ctx, session)

	requestID := uuid.New().String()
	if raw, err := json.Marshal(itinerary); err == nil {
		s.sessions.RecordPlan(ctx, &db_models.PlanRecord{
			SessionID:     session.ID,
			RequestID:     requestID,
			TraceID:       traceID,
			Status:        "done",
			DegradeLevel:  string(itinerary.DegradeLevel),
			ItineraryJSON: string(raw),
			Message:       state.message,
		})
	}

	s.metrics.CountRequest("done")
	s.metrics.CountRepairRounds(state.repairRound)
	s.metrics.CountDegrade(string(itinerary.DegradeLevel))

	return &response_models.PlanResponse{
		Status:          "done",
		Message:         "Itinerary ready.",
		Itinerary:       &itinerary,
		SessionID:       session.ID,
		Sequence:        seq,
		RequestID:       requestID,
		TraceID:         traceID,
		DegradeLevel:    itinerary.DegradeLevel,
		ConfidenceScore: itinerary.ConfidenceScore,
		Issues:          state.issues,
		FieldEvidence:   state.evidence,
		BudgetWarning:   budgetWarning,
		RunFingerprint:  s.trust.Fingerprint(traceID),
	}
}

func (s *OrchestratorService) errorResponse(sessionID, traceID string, err error, message string) *response_models.PlanResponse {
	s.metrics.CountRequest("error")
	if errors.Is(err, utils.ErrInputInvalid) {
		s.logger.Info("request rejected", zap.String("reason", message))
	} else {
		s.logger.Warn("plan failed", zap.String("reason", message), zap.Error(err))
	}
	return &response_models.PlanResponse{
		Status:         "error",
		Message:        message,
		SessionID:      sessionID,
		TraceID:        traceID,
		ErrorCode:      utils.ErrorCode(err),
		RunFingerprint: s.trust.Fingerprint(traceID),
	}
}
