package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ahump20/lone-star-legends-championship-sub006/internal/analysis"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/cohort"
	apperrors "github.com/ahump20/lone-star-legends-championship-sub006/internal/errors"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/types"
	"github.com/gin-gonic/gin"
)

// bindScoreRequest decodes the body and converts it for the engine. On
// failure the error is attached to c and ok is false.
func (a *app) bindScoreRequest(c *gin.Context) (analysis.Request, bool) {
	var req types.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(types.ValidationError(err))
		return analysis.Request{}, false
	}

	engineReq, err := req.ToRequest(time.Now())
	if err != nil {
		_ = c.Error(types.ValidationError(err))
		return analysis.Request{}, false
	}
	return engineReq, true
}

// scoringError maps engine failures onto the API error categories.
func scoringError(athleteID string, err error) *apperrors.AppError {
	switch {
	case errors.Is(err, analysis.ErrInvalidFeature):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.NewTimeoutError("Scoring timed out", err)
	default:
		return apperrors.NewScoringError(athleteID, err)
	}
}

// handleScore godoc
// @Summary      Score an athlete
// @Description  Scores all eight trait dimensions against the athlete's cohort.
// @Tags         scoring
// @Accept       json
// @Produce      json
// @Param        request  body      types.ScoreRequest  true  "Feature observations"
// @Success      200      {object}  analysis.Response
// @Failure      400      {object}  apperrors.ErrorBody
// @Failure      429      {object}  apperrors.ErrorBody
// @Failure      500      {object}  apperrors.ErrorBody
// @Router       /v1/score [post]
func (a *app) handleScore(c *gin.Context) {
	req, ok := a.bindScoreRequest(c)
	if !ok {
		return
	}

	start := time.Now()
	resp, err := a.analyzer.Score(c.Request.Context(), req)
	duration := time.Since(start)
	a.metrics.RecordScore(len(req.Features), duration, err)
	if err != nil {
		_ = c.Error(scoringError(req.AthleteID, err))
		return
	}

	a.logger.ScoringLogger(resp.AthleteID, resp.Cohort, len(req.Features), duration, false)
	c.JSON(http.StatusOK, resp)
}

// handleExplain godoc
// @Summary      Explain a score
// @Description  Returns the intermediate values behind every dimension score.
// @Tags         scoring
// @Accept       json
// @Produce      json
// @Param        request  body      types.ScoreRequest  true  "Feature observations"
// @Success      200      {array}   analysis.Trace
// @Failure      400      {object}  apperrors.ErrorBody
// @Router       /v1/explain [post]
func (a *app) handleExplain(c *gin.Context) {
	req, ok := a.bindScoreRequest(c)
	if !ok {
		return
	}

	traces, err := a.analyzer.Explain(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(scoringError(req.AthleteID, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"athleteId": req.AthleteID,
		"cohort":    a.provider.Canonical(req.Cohort),
		"version":   analysis.Version,
		"traces":    traces,
	})
}

// handleDimensions godoc
// @Summary  List trait dimensions
// @Tags     catalog
// @Produce  json
// @Success  200  {object}  types.DimensionsResponse
// @Router   /v1/dimensions [get]
func (a *app) handleDimensions(c *gin.Context) {
	c.JSON(http.StatusOK, types.DimensionsResponse{
		Version:    analysis.Version,
		Dimensions: analysis.Dimensions(),
	})
}

// handleCohorts godoc
// @Summary  List known cohorts
// @Tags     catalog
// @Produce  json
// @Success  200  {object}  types.CohortsResponse
// @Router   /v1/cohorts [get]
func (a *app) handleCohorts(c *gin.Context) {
	c.JSON(http.StatusOK, types.CohortsResponse{
		Default: cohort.DefaultKey,
		Cohorts: a.provider.Keys(),
	})
}

// handleCohort returns the seed baselines a key resolves to.
func (a *app) handleCohort(c *gin.Context) {
	key := a.provider.Canonical(c.Param("key"))
	entry, ok := a.provider.Cohort(key)
	if !ok {
		_ = c.Error(apperrors.NewInternalError("cohort seed is missing the default cohort", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requested": c.Param("key"),
		"cohort":    entry,
	})
}

// handleCalibration godoc
// @Summary  Calibration metadata
// @Description  Score anchors, squash parameters and tracked reliability metrics.
// @Tags     catalog
// @Produce  json
// @Success  200  {object}  analysis.CalibrationInfo
// @Router   /v1/calibration [get]
func (a *app) handleCalibration(c *gin.Context) {
	c.JSON(http.StatusOK, a.analyzer.Params().Calibration(a.reliability))
}

func (a *app) handleHealth(c *gin.Context) {
	components := map[string]string{"engine": "ok"}
	status := "ok"

	if err := a.provider.Health(c.Request.Context()); err != nil {
		components["cohort_store"] = "degraded: " + err.Error()
		status = "degraded"
	} else {
		components["cohort_store"] = "ok"
	}

	switch {
	case !a.redis.IsEnabled():
		components["redis"] = "disabled"
	case a.redis.HealthCheck(c.Request.Context()) != nil:
		components["redis"] = "unreachable"
		status = "degraded"
	default:
		components["redis"] = "ok"
	}

	// Scoring still works from the seed, so a degraded store is not a 503.
	c.JSON(http.StatusOK, types.HealthResponse{
		Status:     status,
		Version:    analysis.Version,
		Timestamp:  time.Now().UTC(),
		Components: components,
	})
}

func (a *app) handleMetrics(c *gin.Context) {
	stats := a.metrics.GetStats()
	stats["memory"] = a.memory.Last()
	stats["p95_response_ms"] = a.metrics.GetPercentileResponseTime(95).Milliseconds()
	if a.limiter != nil {
		stats["rate_limiter"] = a.limiter.GetStats()
	}
	if a.db != nil {
		stats["sqlite_pool"] = a.db.GetPoolStats()
	}
	stats["redis_pool"] = a.redis.GetPoolStats()
	c.JSON(http.StatusOK, stats)
}

func (a *app) handleCacheStats(c *gin.Context) {
	resp := gin.H{"cohort_cache": a.cohortCache.Stats()}
	if a.responseCache != nil {
		resp["response_cache"] = a.responseCache.Stats()
	}
	if a.compression != nil {
		resp["compression"] = a.compression.GetStats()
	}
	c.JSON(http.StatusOK, resp)
}
