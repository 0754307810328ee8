package server

import (
	"fmt"
	"net/http"

	"github.com/odiseo-io/email-service/internal/config"
	"github.com/odiseo-io/email-service/internal/errorx"
	"github.com/odiseo-io/email-service/internal/handler"
	"github.com/odiseo-io/email-service/internal/svc"
	"github.com/odiseo-io/email-service/pkg/db"
	"github.com/odiseo-io/email-service/pkg/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"
	"github.com/zeromicro/go-zero/core/prometheus"
	"github.com/zeromicro/go-zero/core/service"
	"github.com/zeromicro/go-zero/rest"
)

// Server wraps the REST API and the background delivery worker.
type Server struct {
	config config.Config
	group  *service.ServiceGroup
}

// New wires the full service: templates, database, queue, worker and routes.
func New(c config.Config) (*Server, error) {
	// Register global error handler for proper HTTP status codes
	errorx.RegisterErrorHandler()

	// Enable go-zero prometheus metrics (required for metric.CounterVec/HistogramVec/GaugeVec to record)
	prometheus.Enable()

	// Parallel initialization: template loading and database opening are independent
	var renderer *render.Renderer
	var database *db.DB

	err := mr.Finish(
		func() error {
			renderer = render.NewRenderer(render.WithTemplateDir(c.Templates.Dir))
			return renderer.LoadTemplatesFromDir(c.Templates.Dir)
		},
		func() error {
			var e error
			database, e = db.Open(db.Config{
				DataSource:   c.Database.DataSource,
				Schema:       c.Database.Schema,
				MaxOpenConns: c.Database.MaxOpenConns,
				MaxIdleConns: c.Database.MaxIdleConns,
			})
			return e
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}

	apiServer, err := rest.NewServer(c.RestConf, rest.WithCors("*"))
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create API server: %w", err)
	}

	svcCtx := svc.NewServiceContext(c, database, renderer)
	handler.RegisterHandlers(apiServer, svcCtx)

	// Expose Prometheus metrics endpoint, outside auth and rate limiting
	apiServer.AddRoute(rest.Route{
		Method:  http.MethodGet,
		Path:    "/metrics",
		Handler: promhttp.Handler().ServeHTTP,
	})

	// Services stop in add order: the API stops accepting requests first,
	// the worker drains in-flight deliveries, and the store closes last.
	group := service.NewServiceGroup()
	group.Add(apiServer)

	workerEnabled := c.Worker.Enabled && c.SMTP.Configured()
	switch {
	case !c.Worker.Enabled:
		logx.Info("Background worker disabled by config")
	case !c.SMTP.Configured():
		logx.Info("Background worker disabled: SMTP not configured")
	default:
		group.Add(newWorkerService(svcCtx.Worker))
	}

	group.Add(newStoreCloser(database, svcCtx.Events))

	logx.Infow("email service configured",
		logx.Field("api", fmt.Sprintf("http://%s:%d", c.Host, c.Port)),
		logx.Field("templates", c.Templates.Dir),
		logx.Field("schema", database.Schema()),
		logx.Field("worker", workerEnabled),
	)

	return &Server{config: c, group: group}, nil
}

// Start starts all services. Blocks until shutdown signal.
func (s *Server) Start() {
	s.group.Start()
}

// Stop stops all services.
func (s *Server) Stop() {
	s.group.Stop()
}
