package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/alphaquant/alpha/backend/internal/advisor"
	"github.com/alphaquant/alpha/backend/pkg/logger"
)

const (
	defaultHorizon = advisor.HorizonMedium
	defaultTopN    = 10
)

// RecommendationService ranks the universe for a horizon
type RecommendationService interface {
	Recommend(ctx context.Context, horizon advisor.Horizon, topN int) []advisor.Recommendation
}

// AssessmentService prices and scores a portfolio
type AssessmentService interface {
	Assess(ctx context.Context, holdings []advisor.Holding) *advisor.Assessment
}

// AdvisorHandler handles recommendation and portfolio endpoints
type AdvisorHandler struct {
	recommender RecommendationService
	assessor    AssessmentService
	logger      *logger.Logger
}

// NewAdvisorHandler creates a new advisor handler
func NewAdvisorHandler(recommender RecommendationService, assessor AssessmentService, log *logger.Logger) *AdvisorHandler {
	return &AdvisorHandler{
		recommender: recommender,
		assessor:    assessor,
		logger:      log,
	}
}

// recommendationsResponse is the ranked Top-N payload
type recommendationsResponse struct {
	Horizon         string                   `json:"horizon"`
	TopN            int                      `json:"top_n"`
	GeneratedAt     time.Time                `json:"generated_at"`
	Recommendations []advisor.Recommendation `json:"recommendations"`
}

// GetRecommendations returns the Top-N tickers for a horizon
// GET /api/recommendations?horizon=medium&top_n=10
func (h *AdvisorHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	horizon := defaultHorizon
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		parsed, err := advisor.ParseHorizon(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		horizon = parsed
	}

	topN := defaultTopN
	if raw := r.URL.Query().Get("top_n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "top_n must be a positive integer")
			return
		}
		topN = parsed
	}

	recommendations := h.recommender.Recommend(r.Context(), horizon, topN)

	respondJSON(w, http.StatusOK, recommendationsResponse{
		Horizon:         string(horizon),
		TopN:            topN,
		GeneratedAt:     time.Now().UTC(),
		Recommendations: recommendations,
	})
}

// assessRequest is the portfolio assessment payload
type assessRequest struct {
	Holdings []advisor.Holding `json:"holdings"`
}

// assessResponse pairs the per-holding details with portfolio totals
type assessResponse struct {
	GeneratedAt time.Time                   `json:"generated_at"`
	Summary     assessSummary               `json:"summary"`
	Details     []advisor.HoldingAssessment `json:"details"`
}

type assessSummary struct {
	TotalPurchaseValue     float64 `json:"total_purchase_value"`
	TotalCurrentValue      float64 `json:"total_current_value"`
	TotalProfitLossPercent float64 `json:"total_profit_loss_percent"`
}

// AssessPortfolio evaluates a user-supplied portfolio
// POST /api/assess-portfolio
func (h *AdvisorHandler) AssessPortfolio(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Holdings) == 0 {
		respondError(w, http.StatusBadRequest, "holdings must not be empty")
		return
	}
	for _, holding := range req.Holdings {
		if err := holding.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	assessment := h.assessor.Assess(r.Context(), req.Holdings)

	respondJSON(w, http.StatusOK, assessResponse{
		GeneratedAt: time.Now().UTC(),
		Summary: assessSummary{
			TotalPurchaseValue:     assessment.TotalPurchaseValue,
			TotalCurrentValue:      assessment.TotalCurrentValue,
			TotalProfitLossPercent: assessment.TotalProfitLossPercent,
		},
		Details: assessment.Details,
	})
}
