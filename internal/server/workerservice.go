package server

import "github.com/odiseo-io/email-service/internal/worker"

// workerService adapts worker.Worker to the service.Service interface.
type workerService struct {
	worker *worker.Worker
}

func newWorkerService(w *worker.Worker) *workerService {
	return &workerService{worker: w}
}

func (s *workerService) Start() {
	s.worker.Start()
}

func (s *workerService) Stop() {
	s.worker.Stop()
}
