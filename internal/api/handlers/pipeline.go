package handlers

import (
	"context"
	"net/http"

	"github.com/alphaquant/alpha/backend/pkg/logger"
)

// BatchRunner runs the full-universe background jobs
type BatchRunner interface {
	RefreshAll(ctx context.Context) int
	RetrainAll(ctx context.Context) int
}

// PipelineHandler triggers the background data/model pipelines
type PipelineHandler struct {
	runner BatchRunner
	logger *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(runner BatchRunner, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		runner: runner,
		logger: log,
	}
}

// UpdateData triggers a full-universe data refresh
// POST /api/update-data
//
// Returns 202 immediately; the refresh runs detached from the request
// context so closing the connection cannot cancel it. There is no
// dedup: a second trigger runs concurrently, with per-ticker locks
// keeping same-key writes serialized.
func (h *PipelineHandler) UpdateData(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Data refresh triggered")

	go h.runner.RefreshAll(context.Background())

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"message": "data refresh started in background",
	})
}

// UpdateModels triggers a full-universe model retrain
// POST /api/update-models
func (h *PipelineHandler) UpdateModels(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Model retrain triggered")

	go h.runner.RetrainAll(context.Background())

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"message": "model retraining started in background",
	})
}
