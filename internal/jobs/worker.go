package jobs

import (
	"log"

	"github.com/hibiken/asynq"

	"freightdesk/internal/config"
)

// Worker runs the asynq server processing background tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewWorker(cfg config.QueuingConfig, redisPassword string, processor *Processor) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: redisPassword},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRateConfirmation, processor.RateConfirmationHandler)
	mux.HandleFunc(TypeLoadEvent, processor.LoadEventHandler)

	return &Worker{server: server, mux: mux}
}

// Start runs the worker in its own goroutine.
func (w *Worker) Start() {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			log.Fatalf("asynq worker exited: %v", err)
		}
	}()
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
