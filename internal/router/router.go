package router

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"studypulse/internal/config"
	"studypulse/internal/handlers"
	"studypulse/internal/repository"
	"studypulse/internal/tracker"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}
func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again later.")
}

func Setup(log *zap.Logger, tr *tracker.Tracker, store *repository.Store) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	sessionStore := cookie.NewStore([]byte(config.Conf.Server.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("studypulse-session", sessionStore))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	// Handlers and routes
	telemetryHandler := handlers.NewTelemetryHandler(log, tr)
	insightsHandler := handlers.NewInsightsHandler(log, tr, store)
	dashboardHandler := handlers.NewDashboardHandler(log, store)

	// Samples arrive on a cadence per student; the per-IP limit exists to
	// keep a misbehaving client from flooding the detector.
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 600,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	telemetryRoutes := router.Group("/telemetry")
	telemetryRoutes.Use(limiter)
	{
		telemetryRoutes.POST("/:userID/sample", telemetryHandler.IngestSample)
		telemetryRoutes.POST("/:userID/event", telemetryHandler.IngestEvent)
		telemetryRoutes.POST("/:userID/question", telemetryHandler.NotifyQuestion)
		telemetryRoutes.POST("/:userID/stop", telemetryHandler.StopSession)
	}

	insightRoutes := router.Group("/insights")
	{
		insightRoutes.GET("/:userID/prediction", insightsHandler.Predict)
		insightRoutes.GET("/:userID/metrics", insightsHandler.CurrentMetrics)
		insightRoutes.GET("/:userID/sessions", insightsHandler.SessionHistory)
		insightRoutes.GET("/:userID/interventions", insightsHandler.Interventions)
	}

	router.GET("/dashboard", dashboardHandler.Show)
	router.POST("/dashboard/select", dashboardHandler.Select)

	return router
}
