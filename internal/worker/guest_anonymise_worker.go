package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/brightboard/brightboard-backend/internal/config"
	"github.com/brightboard/brightboard-backend/internal/repository"
)

// AnonymiseHourUTC is the daily hour the retention sweep runs at. Kept in the
// quiet window for the primary deployment region.
const AnonymiseHourUTC = 2

// GuestAnonymiseWorker scrubs guest personal data once sessions fall outside
// the retention window. Scores and responses survive; names and tokens go.
type GuestAnonymiseWorker struct {
	participantRepo *repository.ParticipantRepository
	retentionDays   int
	now             func() time.Time
	log             zerolog.Logger
}

func NewGuestAnonymiseWorker(participantRepo *repository.ParticipantRepository, cfg *config.Config, now func() time.Time, log zerolog.Logger) *GuestAnonymiseWorker {
	return &GuestAnonymiseWorker{
		participantRepo: participantRepo,
		retentionDays:   cfg.GuestDataRetentionDays,
		now:             now,
		log:             log.With().Str("component", "guest_anonymise_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

func (w *GuestAnonymiseWorker) Start(ctx context.Context) {
	w.log.Info().
		Int("retention_days", w.retentionDays).
		Msg("GuestAnonymiseWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return

		case <-time.After(untilNextRun(w.now().UTC())):
			w.sweep(ctx)
		}
	}
}

func (w *GuestAnonymiseWorker) sweep(ctx context.Context) {
	now := w.now().UTC()
	cutoff := now.AddDate(0, 0, -w.retentionDays)

	scrubbed, err := w.participantRepo.AnonymiseGuestsBefore(ctx, cutoff, now)
	if err != nil {
		w.log.Error().Err(err).Msg("Anonymisation sweep failed")
		return
	}
	if scrubbed > 0 {
		w.log.Info().Int64("participants", scrubbed).Msg("Anonymised guest participants")
	}
}

// untilNextRun returns the wait until the next daily run hour.
func untilNextRun(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), AnonymiseHourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
