package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studypulse/internal/repository"
	"studypulse/internal/tracker"
)

// InsightsHandler exposes the query APIs over live tracking state and the
// persisted history.
type InsightsHandler struct {
	log     *zap.Logger
	tracker *tracker.Tracker
	store   *repository.Store
}

func NewInsightsHandler(log *zap.Logger, tr *tracker.Tracker, store *repository.Store) *InsightsHandler {
	return &InsightsHandler{log: log, tracker: tr, store: store}
}

// Predict runs one on-demand prediction for a student. Always answers 200;
// a student with no history gets the neutral wait prediction.
func (h *InsightsHandler) Predict(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.Predict(c.Param("userID")))
}

// CurrentMetrics returns the student's latest processed sample.
func (h *InsightsHandler) CurrentMetrics(c *gin.Context) {
	metrics := h.tracker.CurrentMetrics(c.Param("userID"))
	if metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No tracking data for student"})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// SessionHistory returns the student's persisted session digests.
func (h *InsightsHandler) SessionHistory(c *gin.Context) {
	userID := c.Param("userID")
	history, err := h.tracker.SessionHistory(userID)
	if err != nil {
		h.log.Error("Failed to load session history", zap.String("userID", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session history"})
		return
	}
	c.JSON(http.StatusOK, history)
}

// Interventions returns the student's recent intervention audit records.
func (h *InsightsHandler) Interventions(c *gin.Context) {
	userID := c.Param("userID")
	records, err := h.store.LoadInterventions(userID, 50)
	if err != nil {
		h.log.Error("Failed to load interventions", zap.String("userID", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load interventions"})
		return
	}
	c.JSON(http.StatusOK, records)
}
