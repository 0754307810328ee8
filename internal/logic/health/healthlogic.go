// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package health

import (
	"context"
	"time"

	"github.com/odiseo-io/email-service/internal/svc"
	"github.com/odiseo-io/email-service/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type HealthLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewHealthLogic(ctx context.Context, svcCtx *svc.ServiceContext) *HealthLogic {
	return &HealthLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Health probes the queue store. An unreachable store degrades the service;
// an unconfigured SMTP transport does not, it is only reported.
func (l *HealthLogic) Health() (resp *types.HealthResponse, healthy bool) {
	db := "ok"
	healthy = true
	if err := l.svcCtx.Queue.Ping(l.ctx); err != nil {
		l.Errorf("Health probe failed: %v", err)
		db = "error"
		healthy = false
	}

	provider := "ok"
	if !l.svcCtx.Config.SMTP.Configured() {
		provider = "not_configured"
	}

	status := "ok"
	if !healthy {
		status = "degraded"
	}

	return &types.HealthResponse{
		Status:        status,
		Db:            db,
		EmailProvider: provider,
		Version:       l.svcCtx.Config.Version,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}, healthy
}
