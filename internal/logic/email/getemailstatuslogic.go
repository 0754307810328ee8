// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/odiseo-io/email-service/internal/errorx"
	"github.com/odiseo-io/email-service/internal/model"
	"github.com/odiseo-io/email-service/internal/svc"
	"github.com/odiseo-io/email-service/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type GetEmailStatusLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetEmailStatusLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetEmailStatusLogic {
	return &GetEmailStatusLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetEmailStatusLogic) GetEmailStatus(req *types.GetEmailStatusRequest) (resp *types.GetEmailStatusResponse, err error) {
	email, err := l.svcCtx.Queue.FindOne(l.ctx, req.Id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, errorx.ErrNotFound(fmt.Sprintf("email %d not found", req.Id))
		}
		l.Errorf("Failed to fetch email %d: %v", req.Id, err)
		return nil, errorx.ErrInternal("Failed to retrieve email status")
	}

	// The audit trail is best effort: the row itself still answers when
	// event reads fail.
	events, err := l.svcCtx.EventLog.ListByEmail(l.ctx, req.Id)
	if err != nil {
		l.Errorf("Failed to fetch events for email %d: %v", req.Id, err)
		events = nil
	}

	resp = &types.GetEmailStatusResponse{
		Email:  emailStatusView(email),
		Events: make([]types.EmailEvent, 0, len(events)),
	}
	for _, ev := range events {
		resp.Events = append(resp.Events, types.EmailEvent{
			Id:        ev.Id,
			EventType: ev.EventType,
			Details:   model.NullStringValue(ev.Details),
			CreatedAt: ev.CreatedAt.UTC().Format(timeLayout),
		})
	}
	return resp, nil
}
