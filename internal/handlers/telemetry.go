package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studypulse/internal/models"
	"studypulse/internal/tracker"
)

// TelemetryHandler exposes the ingestion APIs for the desktop app and
// browser extension.
type TelemetryHandler struct {
	log     *zap.Logger
	tracker *tracker.Tracker
}

func NewTelemetryHandler(log *zap.Logger, tr *tracker.Tracker) *TelemetryHandler {
	return &TelemetryHandler{log: log, tracker: tr}
}

// IngestSample accepts one telemetry sample for a student. The session ID
// rides in the sample body; a new session ID rolls the student's live state.
func (h *TelemetryHandler) IngestSample(c *gin.Context) {
	userID := c.Param("userID")

	var sample models.TelemetrySample
	if err := c.ShouldBindJSON(&sample); err != nil {
		h.log.Error("Failed to bind telemetry sample", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	h.tracker.RecordSample(userID, sample.SessionID, sample)
	c.Status(http.StatusAccepted)
}

// IngestEvent accepts one raw interaction event for the pattern detector.
func (h *TelemetryHandler) IngestEvent(c *gin.Context) {
	userID := c.Param("userID")

	var ev models.RawEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		h.log.Error("Failed to bind raw event", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	h.tracker.RecordRawEvent(userID, ev)
	c.Status(http.StatusAccepted)
}

// NotifyQuestion passes through a question-detected notice from the OCR
// collaborator.
func (h *TelemetryHandler) NotifyQuestion(c *gin.Context) {
	userID := c.Param("userID")

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Error("Failed to bind question notice", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	h.tracker.NotifyQuestionDetected(userID, payload)
	c.Status(http.StatusAccepted)
}

// StopSession halts tracking for a student and returns the persisted session
// digest, or 204 when the student had no live session.
func (h *TelemetryHandler) StopSession(c *gin.Context) {
	userID := c.Param("userID")

	summary := h.tracker.StopSession(userID)
	if summary == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, summary)
}
