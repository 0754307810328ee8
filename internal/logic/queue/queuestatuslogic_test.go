package queue

import (
	"context"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/odiseo-io/email-service/internal/config"
	"github.com/odiseo-io/email-service/internal/errorx"
	"github.com/odiseo-io/email-service/internal/model"
	"github.com/odiseo-io/email-service/internal/svc"
	"github.com/odiseo-io/email-service/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

func testServiceContext(t *testing.T) (*svc.ServiceContext, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conn := sqlx.NewSqlConnFromDB(db)
	store := model.NewEmailQueueModel(conn)
	return &svc.ServiceContext{
		Config: config.Config{Version: "1.0.0"},
		Queue:  store,
		Worker: worker.NewWorker(config.WorkerConf{
			PollIntervalSeconds: 1,
			BatchSize:           10,
			Concurrency:         2,
			MaxRetries:          3,
			BackoffSeconds:      300,
		}, store, nil, nil, nil),
	}, mock
}

func TestQueueStatusZeroFillsCounts(t *testing.T) {
	svcCtx, mock := testServiceContext(t)
	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("sent", 10))

	l := NewQueueStatusLogic(context.Background(), svcCtx)
	resp, err := l.QueueStatus()

	require.NoError(t, err)
	assert.Equal(t, 3, resp.Pending)
	assert.Equal(t, 10, resp.Sent)
	assert.Zero(t, resp.Scheduled)
	assert.Zero(t, resp.Processing)
	assert.Zero(t, resp.Failed)
	assert.NotEmpty(t, resp.Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueStatusSanitizesStoreFailures(t *testing.T) {
	svcCtx, mock := testServiceContext(t)
	mock.ExpectQuery("SELECT status, COUNT").WillReturnError(assert.AnError)

	l := NewQueueStatusLogic(context.Background(), svcCtx)
	_, err := l.QueueStatus()

	var codeErr *errorx.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusInternalServerError, codeErr.Code)
	assert.Equal(t, "Failed to retrieve queue status", codeErr.Msg)
}
