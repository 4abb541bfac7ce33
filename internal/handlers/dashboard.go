package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"studypulse/internal/repository"
)

// DashboardHandler renders the operator's per-student indicator timeline.
// The selected student is remembered in the operator's session cookie.
type DashboardHandler struct {
	log   *zap.Logger
	store *repository.Store
}

func NewDashboardHandler(log *zap.Logger, store *repository.Store) *DashboardHandler {
	return &DashboardHandler{log: log, store: store}
}

const timelineLookback = 7 * 24 * time.Hour

// Show renders the indicator timeline chart for the selected student. With
// no selection it renders the student picker form.
func (h *DashboardHandler) Show(c *gin.Context) {
	session := sessions.Default(c)
	studentID, _ := session.Get("studentID").(string)
	if q := c.Query("student"); q != "" {
		studentID = q
	}

	if studentID == "" {
		h.renderPicker(c, "")
		return
	}

	since := time.Now().Add(-timelineLookback)
	data, err := h.store.GetIndicatorTimeline(c.Request.Context(), studentID, since)
	if err != nil {
		h.log.Error("Failed to get indicator timeline", zap.String("studentID", studentID), zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load timeline data")
		return
	}

	chart := generateIndicatorTimeline(studentID, data)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := chart.Render(c.Writer); err != nil {
		h.log.Error("Failed to render timeline chart", zap.Error(err))
	}
}

// Select remembers the operator's chosen student and redirects back to the
// dashboard.
func (h *DashboardHandler) Select(c *gin.Context) {
	studentID := c.PostForm("studentID")
	if studentID == "" {
		h.renderPicker(c, "Enter a student ID")
		return
	}

	session := sessions.Default(c)
	session.Set("studentID", studentID)
	if err := session.Save(); err != nil {
		h.log.Error("Failed to save dashboard session", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to save selection")
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *DashboardHandler) renderPicker(c *gin.Context, notice string) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(c.Writer, `<!DOCTYPE html>
<html><head><title>StudyPulse Dashboard</title></head><body>
<h1>Select a student</h1>
<p>%s</p>
<form method="post" action="/dashboard/select">
<input type="text" name="studentID" placeholder="Student ID">
<button type="submit">View timeline</button>
</form>
</body></html>`, notice)
}

func generateIndicatorTimeline(studentID string, data []repository.TimelineDataPoint) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Behavioral Indicators Over Time",
			Subtitle: "Student " + studentID,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "time",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	frustration := make([]opts.LineData, 0, len(data))
	confidence := make([]opts.LineData, 0, len(data))
	engagement := make([]opts.LineData, 0, len(data))
	for _, point := range data {
		frustration = append(frustration, opts.LineData{Value: []interface{}{point.Date, point.Frustration}})
		confidence = append(confidence, opts.LineData{Value: []interface{}{point.Date, point.Confidence}})
		engagement = append(engagement, opts.LineData{Value: []interface{}{point.Date, point.Engagement}})
	}

	line.AddSeries("Frustration", frustration).
		AddSeries("Confidence", confidence).
		AddSeries("Engagement", engagement).
		SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	return line
}
