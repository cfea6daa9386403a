package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/davidleathers/normative-engine/internal/infrastructure/config"
)

var buildInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "nce",
		Subsystem: "api",
		Name:      "build_info",
		Help:      "Build metadata of the running binary",
	},
	[]string{"version", "environment"},
)

// serveMetrics exposes the Prometheus scrape endpoint on its own port.
func serveMetrics(cfg *config.Config, logger *zap.Logger) {
	buildInfo.WithLabelValues(cfg.Version, cfg.Environment).Set(1)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
	logger.Info("serving metrics", zap.String("address", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server failed", zap.Error(err))
	}
}
