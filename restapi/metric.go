package restapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/AustralianCyberSecurityCentre/timing-bloom/prom"
	st "github.com/AustralianCyberSecurityCentre/timing-bloom/settings"
)

type loggingResponseWriter struct {
	gin.ResponseWriter
	statusCode   int
	responseBody []byte
}

// NewLoggingResponseWriter wraps c.Writer to capture the eventual
// status code and, for error responses, the response body for logging.
func NewLoggingResponseWriter(c *gin.Context) *loggingResponseWriter {
	return &loggingResponseWriter{c.Writer, http.StatusOK, nil}
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(data []byte) (int, error) {
	outB, err := lrw.ResponseWriter.Write(data)
	if lrw.statusCode >= 400 {
		lrw.responseBody = append(lrw.responseBody, data...)
	}
	return outB, err
}

type RestapiLogLine struct {
	Time                string          `json:"time"`
	DurationS           string          `json:"duration_s"`
	Status              int             `json:"status"`
	Method              string          `json:"method"`
	Route               string          `json:"route"`
	Path                string          `json:"path"`
	Query               string          `json:"query"`
	Remote              string          `json:"remote"`
	Useragent           string          `json:"user_agent"`
	ResponseBodyInvalid bool            `json:"response_body_invalid,omitempty"`
	ResponseBody        json.RawMessage `json:"response_body,omitempty"`
}

// MetricHandler measures time taken to respond, records it against
// Prometheus, and logs error responses to the rotating restapi error
// log; successful requests only go to the structured stderr logger at
// debug level, since they don't need their own rotating file.
func MetricHandler(tpath string, fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		lrw := NewLoggingResponseWriter(c)
		c.Writer = lrw

		start := time.Now()
		fn(c)
		elapsed := time.Since(start).Seconds()
		prom.RestapiTimes.WithLabelValues(c.Request.Method, tpath).Observe(elapsed)
		prom.RestapiCodes.WithLabelValues(c.Request.Method, tpath, fmt.Sprintf("%v", lrw.statusCode)).Add(1)

		if lrw.statusCode < 400 {
			st.Logger.Debug().Str("route", tpath).Int("status", lrw.statusCode).Dur("elapsed", time.Since(start)).Msg("request handled")
			return
		}

		logLineStruct := RestapiLogLine{
			Time:         start.Format(time.RFC3339),
			DurationS:    fmt.Sprintf("%.4f", elapsed),
			Status:       lrw.statusCode,
			Method:       c.Request.Method,
			Route:        tpath,
			Path:         c.Request.URL.Path,
			Query:        c.Request.URL.RawQuery,
			Remote:       c.Request.RemoteAddr,
			Useragent:    c.Request.UserAgent(),
			ResponseBody: lrw.responseBody,
		}

		logline, err := json.Marshal(logLineStruct)
		if err != nil {
			st.Logger.Warn().Err(err).Msg("could not marshal restapi log line, dropping body")
			logLineStruct.ResponseBody = nil
			logLineStruct.ResponseBodyInvalid = true
			logline, err = json.Marshal(logLineStruct)
			if err != nil {
				st.Logger.Error().Err(err).Msg("could not marshal restapi log line, total failure")
				return
			}
		}

		select {
		case st.ChLogRestapiErr <- logline:
		default:
			st.Logger.Warn().Msg("restapi error log channel full, dropping log line")
		}
	}
}
