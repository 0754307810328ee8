// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package handler

import (
	"net/http"

	email "github.com/odiseo-io/email-service/internal/handler/email"
	health "github.com/odiseo-io/email-service/internal/handler/health"
	queue "github.com/odiseo-io/email-service/internal/handler/queue"
	"github.com/odiseo-io/email-service/internal/svc"
	"github.com/zeromicro/go-zero/rest"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{serverCtx.RateLimitMiddleware, serverCtx.AuthMiddleware},
			[]rest.Route{
				{
					Method:  http.MethodPost,
					Path:    "/emails",
					Handler: email.SendEmailHandler(serverCtx),
				},
				{
					Method:  http.MethodGet,
					Path:    "/emails",
					Handler: email.ListEmailsHandler(serverCtx),
				},
				{
					Method:  http.MethodGet,
					Path:    "/emails/:id",
					Handler: email.GetEmailStatusHandler(serverCtx),
				},
				{
					Method:  http.MethodGet,
					Path:    "/queue/status",
					Handler: queue.QueueStatusHandler(serverCtx),
				},
				{
					Method:  http.MethodPost,
					Path:    "/queue/process",
					Handler: queue.ProcessQueueHandler(serverCtx),
				},
			}...,
		),
	)

	// Health stays outside auth and rate limiting for load balancer probes.
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/health",
				Handler: health.HealthHandler(serverCtx),
			},
		},
	)
}
