package worker

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edusfera/journal-backend/internal/repository"
	"github.com/edusfera/journal-backend/internal/service"
)

// SummaryCacheWorker listens on the grade change feed and evicts the cached
// summary of every student whose grades moved. The cache is repopulated
// lazily on the next summary request.
type SummaryCacheWorker struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewSummaryCacheWorker(rdb *redis.Client, log zerolog.Logger) *SummaryCacheWorker {
	return &SummaryCacheWorker{
		rdb: rdb,
		log: log.With().Str("component", "summary_cache_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *SummaryCacheWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	pubsub := w.rdb.Subscribe(ctx, repository.GradeChangeChannel)
	defer pubsub.Close()

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() == nil {
					w.log.Warn().Msg("Change feed channel closed")
				}
				return
			}
			w.invalidate(ctx, msg.Payload)
		}
	}
}

func (w *SummaryCacheWorker) invalidate(ctx context.Context, payload string) {
	var change repository.GradeChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	key := service.SummaryCacheKey(change.StudentID)
	if err := w.rdb.Del(ctx, key).Err(); err != nil {
		// TTL still bounds staleness if the eviction is lost.
		w.log.Error().Err(err).Str("key", key).Msg("Cache eviction failed")
		return
	}
	w.log.Debug().Str("student_id", change.StudentID).Msg("Summary cache evicted")
}
