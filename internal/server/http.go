package server

import (
	"guildguard/internal/conf"
	"guildguard/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, admin *service.AdminService, reg *prometheus.Registry,
	logger log.Logger) *http.Server {
	var token string
	if c.HTTP != nil {
		token = c.HTTP.AdminToken
	}
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
			selector.Server(AdminAuth(token)).Prefix(adminOperationPrefix).Build(),
		),
	}
	if c.HTTP != nil {
		if c.HTTP.Network != "" {
			opts = append(opts, http.Network(c.HTTP.Network))
		}
		if c.HTTP.Addr != "" {
			opts = append(opts, http.Address(c.HTTP.Addr))
		}
		if c.HTTP.Timeout != nil {
			opts = append(opts, http.Timeout(c.HTTP.Timeout.AsDuration()))
		}
	}
	srv := http.NewServer(opts...)
	srv.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	service.RegisterAdminHTTPServer(srv, admin)
	return srv
}
