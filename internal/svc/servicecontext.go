// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package svc

import (
	"github.com/odiseo-io/email-service/internal/config"
	"github.com/odiseo-io/email-service/internal/middleware"
	"github.com/odiseo-io/email-service/internal/model"
	"github.com/odiseo-io/email-service/internal/worker"
	"github.com/odiseo-io/email-service/pkg/db"
	"github.com/odiseo-io/email-service/pkg/mail"
	"github.com/odiseo-io/email-service/pkg/queue"
	"github.com/odiseo-io/email-service/pkg/render"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"
)

type ServiceContext struct {
	Config   config.Config
	DB       *db.DB
	Queue    model.EmailQueueModel
	EventLog model.EmailEventsModel
	Events   *queue.EventRecorder
	Renderer *render.Renderer
	Worker   *worker.Worker

	RateLimitMiddleware rest.Middleware
	AuthMiddleware      rest.Middleware
}

func NewServiceContext(c config.Config, d *db.DB, renderer *render.Renderer) *ServiceContext {
	conn := d.SqlConn()

	queueModel := model.NewEmailQueueModel(conn, model.WithLeaseTimeout(c.Worker.LeaseTimeout()))

	events, err := queue.NewEventRecorder(conn)
	logx.Must(err)

	transport := mail.NewTransport(mail.Config{
		Host:      c.SMTP.Host,
		Port:      c.SMTP.Port,
		Username:  c.SMTP.Username,
		Password:  c.SMTP.Password,
		FromEmail: c.SMTP.FromEmail,
		FromName:  c.SMTP.FromName,
		UseTLS:    c.SMTP.UseTLS,
		Timeout:   c.SMTP.Timeout(),
	})

	return &ServiceContext{
		Config:   c,
		DB:       d,
		Queue:    queueModel,
		EventLog: model.NewEmailEventsModel(conn),
		Events:   events,
		Renderer: renderer,
		Worker:   worker.NewWorker(c.Worker, queueModel, renderer, transport, events),

		RateLimitMiddleware: middleware.NewRateLimitMiddleware(c.RateLimit).Handle,
		AuthMiddleware:      middleware.NewAuthMiddleware(c.Auth.APIKey).Handle,
	}
}
