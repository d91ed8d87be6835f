package game

import (
	"context"

	"github.com/rs/zerolog"
)

const storeQueueSize = 64

type storeJob struct {
	name string
	run  func(ctx context.Context) error
}

// storeWriter runs a room's snapshot and result writes in order on its own
// goroutine so a slow store never stalls the room actor.
type storeWriter struct {
	jobs chan storeJob
	done chan struct{}
	log  zerolog.Logger
}

func newStoreWriter(log zerolog.Logger) *storeWriter {
	return &storeWriter{
		jobs: make(chan storeJob, storeQueueSize),
		done: make(chan struct{}),
		log:  log,
	}
}

func (w *storeWriter) run() {
	defer close(w.done)
	for job := range w.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := job.run(ctx); err != nil {
			w.log.Error().Err(err).Str("write", job.name).Msg("store write failed")
		}
		cancel()
	}
}

// tryEnqueue reports false when the queue is full.
func (w *storeWriter) tryEnqueue(job storeJob) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		return false
	}
}

func (w *storeWriter) enqueue(job storeJob) {
	w.jobs <- job
}

// flush stops accepting jobs and waits for the queued ones to finish.
func (w *storeWriter) flush() {
	close(w.jobs)
	<-w.done
}
