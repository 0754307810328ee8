// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/odiseo-io/email-service/internal/errorx"
	"github.com/odiseo-io/email-service/internal/svc"
	"github.com/odiseo-io/email-service/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

const (
	defaultBatchSize = 10
	maxBatchSize     = 50
)

type ProcessQueueLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewProcessQueueLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ProcessQueueLogic {
	return &ProcessQueueLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// ProcessQueue drains one batch on demand, without waiting for the next
// poll. It shares the worker's delivery path, so retries, events and
// metrics behave exactly as they do in the loop.
func (l *ProcessQueueLogic) ProcessQueue(req *types.ProcessQueueRequest) (resp *types.ProcessQueueResponse, err error) {
	batch := req.BatchSize
	if batch < 1 {
		batch = defaultBatchSize
	} else if batch > maxBatchSize {
		batch = maxBatchSize
	}

	out, err := l.svcCtx.Worker.ProcessBatch(l.ctx, batch)
	if err != nil {
		l.Errorf("Manual queue processing failed: %v", err)
		return nil, errorx.ErrInternal("Failed to process email queue")
	}

	return &types.ProcessQueueResponse{
		Status:    "completed",
		Processed: out.Sent,
		Retried:   out.Retried,
		Failed:    out.Failed,
		Detail:    fmt.Sprintf("Resolved %d emails", out.Total()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}
