package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/2beens/fitrank/internal/scoring"
	"github.com/2beens/fitrank/internal/telemetry/tracing"
	"github.com/2beens/fitrank/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=workouts_test

type service interface {
	Submit(ctx context.Context, userID string, raw map[string]any) (scoring.ScoreBreakdown, error)
	Breakdown(ctx context.Context, userID string) (*scoring.ScoreBreakdown, error)
	Weights(ctx context.Context) (scoring.Weights, error)
	UpdateWeights(ctx context.Context, raw map[string]any) (scoring.Weights, error)
}

type Handler struct {
	service service
}

func NewHandler(service service) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) HandleSubmitMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.submit")
	defer span.End()

	raw, ok := decodeObject(w, r)
	if !ok {
		return
	}

	userID := mux.Vars(r)["userId"]
	breakdown, err := handler.service.Submit(ctx, userID, raw)
	if err != nil {
		if vErr, invalid := IsValidationError(err); invalid {
			pkg.WriteValidationErrors(w, vErr.Errors)
			return
		}
		log.Errorf("submit metrics [%s]: %s", userID, err)
		pkg.WriteError(w, http.StatusInternalServerError, "failed to submit metrics")
		return
	}

	log.Debugf("metrics submitted for [%s], total score: %.2f", userID, breakdown.Total)
	pkg.WriteSuccess(w, http.StatusCreated, breakdown)
}

func (handler *Handler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.score")
	defer span.End()

	userID := mux.Vars(r)["userId"]
	breakdown, err := handler.service.Breakdown(ctx, userID)
	if err != nil {
		if vErr, invalid := IsValidationError(err); invalid {
			pkg.WriteValidationErrors(w, vErr.Errors)
			return
		}
		if errors.Is(err, ErrScoreNotFound) {
			pkg.WriteError(w, http.StatusNotFound, "score not found")
			return
		}
		log.Errorf("get score [%s]: %s", userID, err)
		pkg.WriteError(w, http.StatusInternalServerError, "failed to get score")
		return
	}

	pkg.WriteJSONResponseOK(w, breakdown)
}

func (handler *Handler) HandleGetWeights(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.weights.get")
	defer span.End()

	weights, err := handler.service.Weights(ctx)
	if err != nil {
		log.Errorf("get weights: %s", err)
		pkg.WriteError(w, http.StatusInternalServerError, "failed to get weights")
		return
	}
	pkg.WriteJSONResponseOK(w, weights)
}

func (handler *Handler) HandleUpdateWeights(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.weights.update")
	defer span.End()

	raw, ok := decodeObject(w, r)
	if !ok {
		return
	}

	weights, err := handler.service.UpdateWeights(ctx, raw)
	if err != nil {
		if vErr, invalid := IsValidationError(err); invalid {
			pkg.WriteValidationErrors(w, vErr.Errors)
			return
		}
		log.Errorf("update weights: %s", err)
		pkg.WriteError(w, http.StatusInternalServerError, "failed to update weights")
		return
	}
	pkg.WriteJSONResponseOK(w, weights)
}

func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), pkg.ContentType.JSON) {
		pkg.WriteError(w, http.StatusBadRequest, "invalid content type")
		return nil, false
	}

	raw := make(map[string]any)
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		log.Debugf("decode request body: %s", err)
		pkg.WriteError(w, http.StatusBadRequest, "request body must be a JSON object")
		return nil, false
	}
	return raw, true
}
