package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studypulse/internal/dispatch"
	"studypulse/internal/models"
	"studypulse/internal/profile"
	"studypulse/internal/tracker"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	tr := tracker.New(
		models.DefaultPatternCatalog(),
		profile.NewStore(nil, nil),
		dispatch.New(nil, nil),
		nil,
		tracker.Options{},
		zap.NewNop(),
	)

	telemetry := NewTelemetryHandler(zap.NewNop(), tr)
	insights := NewInsightsHandler(zap.NewNop(), tr, nil)

	r := gin.New()
	r.POST("/telemetry/:userID/sample", telemetry.IngestSample)
	r.POST("/telemetry/:userID/event", telemetry.IngestEvent)
	r.POST("/telemetry/:userID/stop", telemetry.StopSession)
	r.GET("/insights/:userID/metrics", insights.CurrentMetrics)
	r.GET("/insights/:userID/prediction", insights.Predict)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIngestSampleRoundtrip(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/telemetry/u1/sample",
		`{"sessionId":"s1","timeOnQuestion":400,"questionAttempts":5,"helpRequests":3}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("ingest status = %d, want 202", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/insights/u1/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", w.Code)
	}
	var got models.TelemetrySample
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal metrics: %v", err)
	}
	if got.Indicators == nil {
		t.Fatal("returned sample has no derived indicators")
	}
	if got.Frustration() != 1.0 {
		t.Errorf("frustration = %f, want 1.0", got.Frustration())
	}
}

func TestIngestSampleInvalidBody(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/telemetry/u1/sample", `{"timeOnQuestion":"nope"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestMetricsUnknownStudent(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodGet, "/insights/ghost/metrics", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestPredictionWithoutData(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodGet, "/insights/u1/prediction", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got models.PredictionResult
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal prediction: %v", err)
	}
	if got.NeedsHelp || got.SuggestedAction != models.ActionWait {
		t.Errorf("prediction = %+v, want neutral wait", got)
	}
}

func TestStopSessionLifecycle(t *testing.T) {
	r := newTestRouter()

	doJSON(t, r, http.MethodPost, "/telemetry/u1/sample", `{"sessionId":"s1","questionAttempts":2,"correctAnswers":1}`)

	w := doJSON(t, r, http.MethodPost, "/telemetry/u1/stop", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stop status = %d, want 200", w.Code)
	}
	var summary models.SessionSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if summary.SampleCount != 1 || summary.QuestionAttempts != 2 {
		t.Errorf("summary = %+v, want 1 sample / 2 attempts", summary)
	}

	// Second stop has nothing to flush.
	if w := doJSON(t, r, http.MethodPost, "/telemetry/u1/stop", ""); w.Code != http.StatusNoContent {
		t.Errorf("repeat stop status = %d, want 204", w.Code)
	}

	if w := doJSON(t, r, http.MethodGet, "/insights/u1/metrics", ""); w.Code != http.StatusNotFound {
		t.Errorf("metrics after stop = %d, want 404", w.Code)
	}
}

func TestIngestRawEvent(t *testing.T) {
	r := newTestRouter()

	for i := 0; i < 12; i++ {
		w := doJSON(t, r, http.MethodPost, "/telemetry/u1/event", `{"kind":"click","x":200,"y":200}`)
		if w.Code != http.StatusAccepted {
			t.Fatalf("event status = %d, want 202", w.Code)
		}
	}
}
