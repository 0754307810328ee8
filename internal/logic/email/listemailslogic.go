// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package email

import (
	"context"
	"slices"
	"strings"

	"github.com/odiseo-io/email-service/internal/errorx"
	"github.com/odiseo-io/email-service/internal/model"
	"github.com/odiseo-io/email-service/internal/svc"
	"github.com/odiseo-io/email-service/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type ListEmailsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewListEmailsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListEmailsLogic {
	return &ListEmailsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ListEmailsLogic) ListEmails(req *types.ListEmailsRequest) (resp *types.ListEmailsResponse, err error) {
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status != "" && status != "all" && !slices.Contains(model.Statuses, status) {
		return nil, errorx.ErrUnprocessable("unknown status: " + req.Status)
	}

	emails, err := l.svcCtx.Queue.List(l.ctx, status, req.Limit)
	if err != nil {
		l.Errorf("Failed to list emails: %v", err)
		return nil, errorx.ErrInternal("Failed to retrieve emails")
	}

	resp = &types.ListEmailsResponse{
		Emails: make([]types.EmailStatus, 0, len(emails)),
		Count:  len(emails),
	}
	for _, e := range emails {
		resp.Emails = append(resp.Emails, emailStatusView(e))
	}
	return resp, nil
}
