package ranking

import (
	"context"
	"errors"
	"net/http"

	"github.com/2beens/fitrank/internal/scoring/validation"
	"github.com/2beens/fitrank/internal/telemetry/tracing"
	"github.com/2beens/fitrank/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=ranking_test

type leaderboardReader interface {
	GetLeaderboard(ctx context.Context, leaderboardType string, limit, offset int) ([]RankingEntry, error)
	GetUserRankingDetails(ctx context.Context, userID, leaderboardType string) (*RankingEntry, error)
	GetRankingStatistics(ctx context.Context) (*RankingStatistics, error)
}

type cycleRunner interface {
	Recompute(ctx context.Context) (CycleResult, error)
}

type Handler struct {
	reader leaderboardReader
	engine cycleRunner
}

func NewHandler(reader leaderboardReader, engine cycleRunner) *Handler {
	return &Handler{
		reader: reader,
		engine: engine,
	}
}

func (handler *Handler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.ranking.leaderboard")
	defer span.End()

	leaderboardType := mux.Vars(r)["type"]
	pagination, errs := validation.ValidatePagination(
		r.URL.Query().Get("limit"),
		r.URL.Query().Get("offset"),
	)
	if len(errs) > 0 {
		pkg.WriteValidationErrors(w, errs)
		return
	}

	entries, err := handler.reader.GetLeaderboard(ctx, leaderboardType, pagination.Limit, pagination.Offset)
	if err != nil {
		handler.writeReadError(w, "get leaderboard", err)
		return
	}
	pkg.WriteJSONResponseOK(w, entries)
}

func (handler *Handler) HandleGetUserRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.ranking.user")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	if errs := validation.ValidateUserID(userID); len(errs) > 0 {
		pkg.WriteValidationErrors(w, errs)
		return
	}

	entry, err := handler.reader.GetUserRankingDetails(ctx, userID, vars["type"])
	if err != nil {
		handler.writeReadError(w, "get user ranking", err)
		return
	}
	// a user outside the leaderboard answers with data: null
	pkg.WriteJSON(w, http.StatusOK, pkg.APIResponse{Success: true, Data: entry})
}

func (handler *Handler) HandleGetStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.ranking.statistics")
	defer span.End()

	stats, err := handler.reader.GetRankingStatistics(ctx)
	if err != nil {
		handler.writeReadError(w, "get ranking statistics", err)
		return
	}
	pkg.WriteJSONResponseOK(w, stats)
}

func (handler *Handler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.ranking.recompute")
	defer span.End()

	result, err := handler.engine.Recompute(ctx)
	if err != nil {
		log.Errorf("recompute rankings: %s", err)
		pkg.WriteError(w, http.StatusInternalServerError, "ranking recomputation failed")
		return
	}
	pkg.WriteJSONResponseOK(w, result)
}

func (handler *Handler) writeReadError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrUnknownLeaderboardType) {
		pkg.WriteValidationErrors(w, []string{err.Error()})
		return
	}
	log.Errorf("%s: %s", op, err)
	pkg.WriteError(w, http.StatusInternalServerError, "failed to read leaderboard")
}
