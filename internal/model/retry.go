package model

import (
	"context"

	"github.com/odiseo-io/email-service/pkg/db"
	"github.com/zeromicro/go-zero/core/logx"
)

// connRetryAttempts bounds how often an operation is replayed on a fresh
// connection. Non-connection errors fail fast: replaying a constraint
// violation only repeats it.
const connRetryAttempts = 2

func (m *defaultEmailQueueModel) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= connRetryAttempts; attempt++ {
		err = fn()
		if err == nil || !db.IsConnErr(err) {
			return err
		}
		if attempt < connRetryAttempts {
			logx.WithContext(ctx).Infow("queue connection error, retrying",
				logx.Field("attempt", attempt),
				logx.Field("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return err
		default:
		}
	}
	return err
}
