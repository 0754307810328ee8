package email

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/odiseo-io/email-service/internal/errorx"
	"github.com/odiseo-io/email-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEmailStatusReturnsRowWithEvents(t *testing.T) {
	svcCtx, mock := testServiceContext(t)
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	sent := time.Date(2026, 8, 1, 10, 0, 5, 0, time.UTC)

	mock.ExpectQuery("FROM email_queue WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(emailColumns).AddRow(
			42, "transactional", "ana@example.com", nil, "Hola", "<p>Hola</p>", nil,
			"sent", 0, 3, nil, nil, created, sent, 5, nil, nil, created, sent))
	mock.ExpectQuery("FROM email_events WHERE email_id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email_id", "event_type", "details", "created_at"}).
			AddRow(1, 42, "queued", "message_id order-42", created).
			AddRow(2, 42, "sent", nil, sent))

	l := NewGetEmailStatusLogic(context.Background(), svcCtx)
	resp, err := l.GetEmailStatus(&types.GetEmailStatusRequest{Id: 42})

	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.Email.Id)
	assert.Equal(t, "sent", resp.Email.Status)
	assert.Equal(t, "ana@example.com", resp.Email.Recipient)
	assert.Equal(t, "2026-08-01T10:00:05Z", resp.Email.SentAt)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "queued", resp.Events[0].EventType)
	assert.Equal(t, "message_id order-42", resp.Events[0].Details)
	assert.Equal(t, "sent", resp.Events[1].EventType)
	assert.Empty(t, resp.Events[1].Details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEmailStatusNotFound(t *testing.T) {
	svcCtx, mock := testServiceContext(t)
	mock.ExpectQuery("FROM email_queue WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(emailColumns))

	l := NewGetEmailStatusLogic(context.Background(), svcCtx)
	_, err := l.GetEmailStatus(&types.GetEmailStatusRequest{Id: 99})

	var codeErr *errorx.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusNotFound, codeErr.Code)
	assert.Contains(t, codeErr.Msg, "99")
}

func TestGetEmailStatusSurvivesEventReadFailure(t *testing.T) {
	svcCtx, mock := testServiceContext(t)
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM email_queue WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(emailColumns).AddRow(
			7, "transactional", "ana@example.com", nil, "Hola", "<p>Hola</p>", nil,
			"pending", 0, 3, nil, nil, created, nil, 5, nil, nil, created, created))
	mock.ExpectQuery("FROM email_events WHERE email_id").
		WithArgs(int64(7)).
		WillReturnError(assert.AnError)

	l := NewGetEmailStatusLogic(context.Background(), svcCtx)
	resp, err := l.GetEmailStatus(&types.GetEmailStatusRequest{Id: 7})

	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.Email.Id)
	assert.Empty(t, resp.Email.SentAt)
	assert.Empty(t, resp.Events)
}
