// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package queue

import (
	"context"
	"time"

	"github.com/odiseo-io/email-service/internal/errorx"
	"github.com/odiseo-io/email-service/internal/model"
	"github.com/odiseo-io/email-service/internal/svc"
	"github.com/odiseo-io/email-service/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type QueueStatusLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewQueueStatusLogic(ctx context.Context, svcCtx *svc.ServiceContext) *QueueStatusLogic {
	return &QueueStatusLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// QueueStatus reports a zero-filled count per status: absent statuses show
// as zero, never missing keys.
func (l *QueueStatusLogic) QueueStatus() (resp *types.QueueStatusResponse, err error) {
	stats, err := l.svcCtx.Queue.Stats(l.ctx)
	if err != nil {
		l.Errorf("Failed to read queue stats: %v", err)
		return nil, errorx.ErrInternal("Failed to retrieve queue status")
	}

	return &types.QueueStatusResponse{
		Pending:    stats[model.StatusPending],
		Scheduled:  stats[model.StatusScheduled],
		Processing: stats[model.StatusProcessing],
		Sent:       stats[model.StatusSent],
		Failed:     stats[model.StatusFailed],
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}
