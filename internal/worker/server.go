package worker

import (
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"funding-core/internal/worker/tasks"
	"funding-core/pkg/logger"
)

// Server wraps the asynq worker.
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewServer initializes the worker server with the notification handlers.
func NewServer(addr string, password string, db int, concurrency int, handler *tasks.ReceiptHandler) *Server {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     addr,
			Password: password,
			DB:       db,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: logger.NewAsynqLogger(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeDonorReceipt, handler.HandleDonorReceipt)
	mux.HandleFunc(tasks.TypeOrganizerNotify, handler.HandleOrganizerNotify)

	return &Server{
		server: srv,
		mux:    mux,
	}
}

// Run starts the worker and blocks.
func (s *Server) Run() error {
	logger.Info("notification worker starting")
	return s.server.Run(s.mux)
}

// Start runs the worker in the background (for embedding in main).
func (s *Server) Start() {
	go func() {
		if err := s.server.Run(s.mux); err != nil {
			logger.Fatal("notification worker failed", zap.Error(err))
		}
	}()
}

// Stop shuts the worker down.
func (s *Server) Stop() {
	s.server.Stop()
	s.server.Shutdown()
}
