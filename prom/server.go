package prom

import (
	"net/http"

	st "github.com/AustralianCyberSecurityCentre/timing-bloom/settings"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StartStandalonePromServer starts a HTTP server serving only /metrics on
// addr, for deployments that scrape metrics on a port separate from the
// restapi (e.g. keeping the check endpoint off the internal scrape network).
func StartStandalonePromServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	st.Logger.Info().Str("addr", addr).Msg("launching standalone metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		st.Logger.Fatal().Err(err).Msg("failed to listen for prometheus metrics")
	}
}
