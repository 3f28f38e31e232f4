package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/brightboard/brightboard-backend/internal/config"
	"github.com/brightboard/brightboard-backend/internal/pipeline"
)

const GradingPollTimeout = 1 * time.Second

// GradingWorker consumes the grading job queue and drives each job through
// the pipeline. One job at a time; entity-level concurrency lives inside the
// pipeline itself.
type GradingWorker struct {
	rdb      *redis.Client
	pipeline *pipeline.Pipeline
	log      zerolog.Logger
}

func NewGradingWorker(rdb *redis.Client, pl *pipeline.Pipeline, log zerolog.Logger) *GradingWorker {
	return &GradingWorker{
		rdb:      rdb,
		pipeline: pl,
		log:      log.With().Str("component", "grading_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

func (w *GradingWorker) Start(ctx context.Context) {
	w.log.Info().Msg("GradingWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return

		default:
			item, err := w.rdb.BLPop(ctx, GradingPollTimeout, config.WorkerKey.GradingJobsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			assessmentID, err := uuid.Parse(item[1])
			if err != nil {
				w.log.Error().Err(err).Str("payload", item[1]).Msg("Invalid assessment id on queue")
				continue
			}

			if err := w.pipeline.Process(ctx, assessmentID); err != nil {
				w.log.Error().Err(err).
					Str("assessment_id", assessmentID.String()).
					Msg("Grading job failed")
			}
		}
	}
}
