package queue

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// NewServer builds the worker that processes tasks from queue.
func NewServer(redis asynq.RedisConnOpt, queue string, concurrency int, logger *slog.Logger) *asynq.Server {
	if queue == "" {
		queue = "default"
	}
	return asynq.NewServer(redis, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("task failed", "type", task.Type(), "error", err)
		}),
	})
}

func NewServeMux(h *Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	h.Register(mux)
	return mux
}
