package restapi

import (
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AustralianCyberSecurityCentre/timing-bloom/dedupe"
	st "github.com/AustralianCyberSecurityCentre/timing-bloom/settings"
)

// sizeStats is implemented by both dedupe.FilterMembership and
// dedupe.ControllerMembership.
type sizeStats interface {
	NonzeroCells() uint32
	SizeEstimate() float64
}

// tierStats is implemented only by dedupe.ControllerMembership; a
// single, non-scaling filter has no tiers to report.
type tierStats interface {
	TierCount() int
	ExpectedError() float64
}

// GetRoot responds to a bare request against the service root.
func GetRoot(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/plain")
	if _, err := c.Writer.Write([]byte("timing-bloom dedupe service")); err != nil {
		st.Logger.Err(err).Msg("get root")
	}
}

// ErrorLoggerMiddleware logs any error gin.Context.Errors accumulated
// while handling the request.
func ErrorLoggerMiddleware(c *gin.Context) {
	c.Next()
	for _, err := range c.Errors {
		if c.Request == nil || c.Request.URL == nil {
			st.Logger.Error().Err(err).Msg("gin error, limited detail as request or request URL was nil")
			continue
		}
		st.Logger.Error().Err(err).Msgf("gin error on route %s %s", c.Request.Method, c.Request.URL)
	}
}

// StatusHandler reports the filter's current fill and, where available
// (a scaling Controller), tier count and compound error rate.
func StatusHandler(membership dedupe.Membership) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{}
		if s, ok := membership.(sizeStats); ok {
			body["nonzero_cells"] = s.NonzeroCells()
			body["size_estimate"] = s.SizeEstimate()
		}
		if t, ok := membership.(tierStats); ok {
			body["tier_count"] = t.TierCount()
			body["expected_error"] = t.ExpectedError()
		}
		c.JSON(http.StatusOK, body)
	}
}

// checkRequest is the body accepted by POST /api/v1/check.
type checkRequest struct {
	Key string `json:"key" binding:"required"`
}

// CheckHandler exposes the filter over HTTP for callers that aren't
// wired into the Kafka topic the consumer reads from: it reports
// whether a key has been seen and adds it if not, exactly like the
// consumer's own dedupe decision.
func CheckHandler(membership dedupe.Membership) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		key := []byte(req.Key)
		duplicate := membership.Contains(key)
		if !duplicate {
			membership.Add(key)
		}
		c.JSON(http.StatusOK, gin.H{"key": req.Key, "duplicate": duplicate})
	}
}

// NewRouter builds the gin engine serving status, membership-check,
// pprof and Prometheus metrics endpoints.
func NewRouter(membership dedupe.Membership) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(ErrorLoggerMiddleware)

	router.GET("/", GetRoot)
	router.GET("/api/v1/status", MetricHandler("/api/v1/status", StatusHandler(membership)))
	router.POST("/api/v1/check", MetricHandler("/api/v1/check", CheckHandler(membership)))

	pprof.Register(router, "debug/pprof")
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
