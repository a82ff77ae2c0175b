package server

import (
	"guildguard/internal/pkg/telemetry"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewRegistry, NewMetrics, NewHTTPServer, NewGRPCServer, NewGatewayServer)

// NewRegistry creates the registry served on /metrics.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewMetrics registers the blocklist metrics on reg.
func NewMetrics(reg *prometheus.Registry) *telemetry.Metrics {
	return telemetry.NewMetrics(reg)
}
