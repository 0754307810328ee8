package server

import (
	"github.com/odiseo-io/email-service/pkg/db"
	"github.com/odiseo-io/email-service/pkg/queue"
	"github.com/zeromicro/go-zero/core/logx"
)

// storeCloser flushes buffered audit events and closes the database. It is
// added to the service group last so it stops after the worker drains.
type storeCloser struct {
	database *db.DB
	events   *queue.EventRecorder
}

func newStoreCloser(database *db.DB, events *queue.EventRecorder) *storeCloser {
	return &storeCloser{database: database, events: events}
}

func (s *storeCloser) Start() {}

func (s *storeCloser) Stop() {
	logx.Info("Flushing email events")
	s.events.Flush()

	logx.Info("Closing database")
	if err := s.database.Close(); err != nil {
		logx.Errorf("Database close failed: %v", err)
	}
}
