package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AustralianCyberSecurityCentre/timing-bloom/dedupe"
	"github.com/AustralianCyberSecurityCentre/timing-bloom/prom"
	"github.com/AustralianCyberSecurityCentre/timing-bloom/restapi"
	st "github.com/AustralianCyberSecurityCentre/timing-bloom/settings"
	prometheusmetrics "github.com/deathowl/go-metrics-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
)

var (
	extendedKafkaMetrics  bool
	standaloneMetricsAddr string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dedupe consumer and restapi server",
	Long:  `Starts the Kafka consumer group that drives the filter and the HTTP server exposing status and metrics.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := st.Init("DEDUPE_"); err != nil {
			log.Fatalf("failed to load settings: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if extendedKafkaMetrics {
			prometheusClient := prometheusmetrics.NewPrometheusProvider(
				metrics.DefaultRegistry, "dedupe", "sarama", prometheus.DefaultRegisterer, time.Second)
			go prometheusClient.UpdatePrometheusMetrics()
		} else {
			metrics.UseNilMetrics = true
		}

		membership, stop, err := dedupe.NewMembership(st.Settings.Dedupe, st.Logger)
		if err != nil {
			log.Fatalf("failed to construct filter: %v", err)
		}
		defer stop()

		go dedupe.ReportStats(ctx, membership, 10*time.Second)

		if standaloneMetricsAddr != "" {
			go prom.StartStandalonePromServer(standaloneMetricsAddr)
		}

		consumer := dedupe.NewConsumer(membership, st.Settings.Dedupe.KeyPath)
		go func() {
			registry := metrics.DefaultRegistry
			if !extendedKafkaMetrics {
				registry = nil
			}
			if err := dedupe.Run(ctx, []string{st.Settings.Kafka.Endpoint}, st.Settings.Kafka.ConsumerGroup, st.Settings.Kafka.Topics, consumer, registry); err != nil {
				st.Logger.Error().Err(err).Msg("consumer stopped")
			}
		}()

		router := restapi.NewRouter(membership)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			cancel()
		}()

		st.Logger.Info().Str("addr", st.Settings.ListenAddr).Msg("starting restapi server")
		srv := &http.Server{Addr: st.Settings.ListenAddr, Handler: router}
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	},
}

func init() {
	serveCmd.Flags().BoolVar(&extendedKafkaMetrics, "extended-kafka-metrics", false, "bridge the Sarama go-metrics registry into Prometheus")
	serveCmd.Flags().StringVar(&standaloneMetricsAddr, "standalone-metrics-addr", "", "if set, also serve /metrics on this address instead of only via the restapi router")
	rootCmd.AddCommand(serveCmd)
}
