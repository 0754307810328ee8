package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ EmailEventsModel = (*customEmailEventsModel)(nil)

type (
	// EmailEvent is one entry in the delivery audit trail.
	EmailEvent struct {
		Id        int64          `db:"id"`
		EmailId   int64          `db:"email_id"`
		EventType string         `db:"event_type"`
		Details   sql.NullString `db:"details"`
		CreatedAt time.Time      `db:"created_at"`
	}

	emailEventsModel interface {
		Insert(ctx context.Context, data *EmailEvent) error
		ListByEmail(ctx context.Context, emailId int64) ([]*EmailEvent, error)
	}

	// EmailEventsModel is an interface to be customized, add more methods here,
	// and implement the added methods in customEmailEventsModel.
	EmailEventsModel interface {
		emailEventsModel
		withSession(session sqlx.Session) EmailEventsModel
	}

	customEmailEventsModel struct {
		*defaultEmailEventsModel
	}

	defaultEmailEventsModel struct {
		conn  sqlx.SqlConn
		table string
	}
)

// NewEmailEventsModel returns a model for the email_events table.
func NewEmailEventsModel(conn sqlx.SqlConn) EmailEventsModel {
	return &customEmailEventsModel{
		defaultEmailEventsModel: &defaultEmailEventsModel{
			conn:  conn,
			table: "email_events",
		},
	}
}

func (m *customEmailEventsModel) withSession(session sqlx.Session) EmailEventsModel {
	return NewEmailEventsModel(sqlx.NewSqlConnFromSession(session))
}

// Insert records one delivery event.
func (m *defaultEmailEventsModel) Insert(ctx context.Context, data *EmailEvent) error {
	query := fmt.Sprintf("INSERT INTO %s (email_id, event_type, details) VALUES ($1, $2, $3)", m.table)
	_, err := m.conn.ExecCtx(ctx, query, data.EmailId, data.EventType, data.Details)
	return err
}

// ListByEmail returns the audit trail for one queue row, oldest first.
func (m *defaultEmailEventsModel) ListByEmail(ctx context.Context, emailId int64) ([]*EmailEvent, error) {
	var events []*EmailEvent
	query := fmt.Sprintf(
		"SELECT id, email_id, event_type, details, created_at FROM %s WHERE email_id = $1 ORDER BY created_at ASC, id ASC",
		m.table)
	if err := m.conn.QueryRowsCtx(ctx, &events, query, emailId); err != nil {
		return nil, err
	}
	return events, nil
}
