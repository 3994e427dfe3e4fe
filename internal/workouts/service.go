package workouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/2beens/fitrank/internal/scoring"
	"github.com/2beens/fitrank/internal/scoring/validation"
	"github.com/2beens/fitrank/internal/telemetry/metrics"
	"github.com/2beens/fitrank/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// ValidationError carries every problem found in a rejected input.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

func IsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

// RecomputeTrigger starts a leaderboard recomputation after a submission.
type RecomputeTrigger interface {
	TriggerRecompute(ctx context.Context) error
}

type Service struct {
	repo           *Repo
	calculator     *scoring.Calculator
	metricsManager *metrics.Manager

	trigger RecomputeTrigger
	pending sync.WaitGroup
}

func NewService(repo *Repo, calculator *scoring.Calculator, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		calculator:     calculator,
		metricsManager: metricsManager,
	}
}

// SetRecomputeTrigger must be called before the service starts taking submissions.
func (s *Service) SetRecomputeTrigger(trigger RecomputeTrigger) {
	s.trigger = trigger
}

// Wait blocks until all fired recompute triggers are done.
func (s *Service) Wait() {
	s.pending.Wait()
}

// Submit validates and stores a metrics submission, appends it to the user history,
// recomputes the user's score and fires the recompute trigger without awaiting it.
func (s *Service) Submit(ctx context.Context, userID string, raw map[string]any) (_ scoring.ScoreBreakdown, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.submit")
	span.SetAttributes(attribute.String("user.id", userID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
		switch _, invalid := IsValidationError(err); {
		case invalid:
			s.metricsManager.CounterSubmissions.WithLabelValues(metrics.OutcomeInvalid).Inc()
		case err != nil:
			s.metricsManager.CounterSubmissions.WithLabelValues(metrics.OutcomeFailure).Inc()
		default:
			s.metricsManager.CounterSubmissions.WithLabelValues(metrics.OutcomeSuccess).Inc()
		}
	}()

	if idErrs := validation.ValidateUserID(userID); len(idErrs) > 0 {
		return scoring.ScoreBreakdown{}, &ValidationError{Errors: idErrs}
	}

	now := s.calculator.Now()
	res := validation.ValidateMetrics(raw, now)
	if !res.Valid {
		return scoring.ScoreBreakdown{}, &ValidationError{Errors: res.Errors}
	}
	if res.Data.UserID != "" && res.Data.UserID != userID {
		return scoring.ScoreBreakdown{}, &ValidationError{
			Errors: []string{fmt.Sprintf("userId %q does not match path user %q", res.Data.UserID, userID)},
		}
	}

	if err := s.repo.MergeMetrics(ctx, userID, res.Data); err != nil {
		return scoring.ScoreBreakdown{}, err
	}
	// history is ordered by when the workout happened, not when it was submitted
	recordedAt := now
	if res.Data.Timestamp != nil {
		recordedAt = *res.Data.Timestamp
	}
	if _, err := s.repo.AppendHistory(ctx, userID, res.Data, recordedAt); err != nil {
		return scoring.ScoreBreakdown{}, err
	}

	current, err := s.repo.GetMetrics(ctx, userID)
	if err != nil {
		return scoring.ScoreBreakdown{}, err
	}
	weights, err := s.Weights(ctx)
	if err != nil {
		return scoring.ScoreBreakdown{}, err
	}
	breakdown, err := s.ComputeAndStore(ctx, userID, *current, weights)
	if err != nil {
		return scoring.ScoreBreakdown{}, err
	}

	s.fireTrigger(ctx, userID)

	return breakdown, nil
}

func (s *Service) fireTrigger(ctx context.Context, userID string) {
	if s.trigger == nil {
		return
	}
	triggerCtx := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.trigger.TriggerRecompute(triggerCtx); err != nil {
			log.Errorf("recompute after submission of [%s]: %s", userID, err)
		}
	}()
}

// ComputeAndStore scores the given metrics against the user's recent history and
// merge-writes the breakdown. A failing history read only degrades the improvement score.
func (s *Service) ComputeAndStore(ctx context.Context, userID string, m scoring.UserMetrics, weights scoring.Weights) (_ scoring.ScoreBreakdown, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.compute")
	span.SetAttributes(attribute.String("user.id", userID))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	history, err := s.repo.ListHistory(ctx, userID, scoring.MaxHistory)
	if err != nil {
		log.Warnf("compute score [%s], history unavailable: %s", userID, err)
		history = nil
	}

	breakdown := s.calculator.ComputeScore(userID, m, weights, history)
	if err := s.repo.SaveBreakdown(ctx, breakdown); err != nil {
		return scoring.ScoreBreakdown{}, err
	}
	return breakdown, nil
}

func (s *Service) Weights(ctx context.Context) (scoring.Weights, error) {
	return s.repo.GetWeights(ctx)
}

func (s *Service) UpdateWeights(ctx context.Context, raw map[string]any) (_ scoring.Weights, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.weights.update")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	res := validation.ValidateWeights(raw)
	if !res.Valid {
		return scoring.Weights{}, &ValidationError{Errors: res.Errors}
	}
	if err := s.repo.SaveWeights(ctx, res.Weights); err != nil {
		return scoring.Weights{}, err
	}
	log.Infof("scoring weights updated: %+v", res.Weights)
	return res.Weights, nil
}

func (s *Service) Breakdown(ctx context.Context, userID string) (*scoring.ScoreBreakdown, error) {
	if idErrs := validation.ValidateUserID(userID); len(idErrs) > 0 {
		return nil, &ValidationError{Errors: idErrs}
	}
	return s.repo.GetBreakdown(ctx, userID)
}

func (s *Service) ListAllMetrics(ctx context.Context) ([]scoring.UserMetrics, error) {
	return s.repo.ListAllMetrics(ctx)
}

func (s *Service) HasHistory(ctx context.Context, userID string) (bool, error) {
	return s.repo.HasHistory(ctx, userID)
}
