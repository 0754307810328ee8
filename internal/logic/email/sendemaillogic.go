// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package email

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/odiseo-io/email-service/internal/errorx"
	"github.com/odiseo-io/email-service/internal/model"
	"github.com/odiseo-io/email-service/internal/svc"
	"github.com/odiseo-io/email-service/internal/types"
	"github.com/odiseo-io/email-service/pkg/queue"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
)

var validate = validator.New()

// templateTypes maps a client-facing template_id to a queue email type.
// Anything outside the map coerces to transactional.
var templateTypes = map[string]string{
	"otp_verification":    model.TypeOTPVerification,
	"booking_created":     model.TypeBookingCreated,
	"booking_cancelled":   model.TypeBookingCancelled,
	"booking_rescheduled": model.TypeBookingRescheduled,
	"reminder_24h":        model.TypeReminder24h,
	"reminder_1h":         model.TypeReminder1h,
}

type SendEmailLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSendEmailLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SendEmailLogic {
	return &SendEmailLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// SendEmail validates the request and fans out one queue row per recipient.
// cc and bcc addresses are validated but not queued. The message id is a
// response-level correlation handle, not a stored column.
func (l *SendEmailLogic) SendEmail(req *types.SendEmailRequest) (resp *types.SendEmailResponse, err error) {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, verrs
		}
		return nil, errorx.ErrUnprocessable(err.Error())
	}

	messageID := req.ClientMessageId
	if messageID == "" {
		messageID = uuid.NewString()
	}

	emailType := model.TypeTransactional
	if mapped, ok := templateTypes[req.TemplateId]; ok {
		emailType = mapped
	}

	var recipientName string
	if name, ok := req.TemplateVars["recipient_name"].(string); ok {
		recipientName = name
	}

	// The worker renders from the stored context only when a template was
	// requested; otherwise the body ships as provided.
	var templateContext sql.NullString
	if req.TemplateId != "" {
		templateContext, err = model.MarshalContext(req.TemplateVars)
		if err != nil {
			return nil, errorx.ErrUnprocessable("invalid template_vars: " + err.Error())
		}
	}

	for _, recipient := range req.To {
		id, err := l.svcCtx.Queue.Enqueue(l.ctx, &model.Email{
			EmailType:       emailType,
			RecipientEmail:  recipient,
			RecipientName:   model.NullString(recipientName),
			Subject:         req.Subject,
			BodyHtml:        req.Body,
			TemplateContext: templateContext,
		})
		if err != nil {
			l.Errorf("Failed to enqueue email for %s: %v", recipient, err)
			return nil, errorx.ErrInternal("Failed to process email request")
		}
		l.svcCtx.Events.RecordEvent(id, queue.EventQueued, "message_id "+messageID)
	}

	return &types.SendEmailResponse{
		Status:    "accepted",
		Queued:    true,
		MessageId: messageID,
		Detail:    "Email stored in queue",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}
