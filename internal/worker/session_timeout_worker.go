package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/brightboard/brightboard-backend/internal/service"
)

const SessionSweepInterval = 1 * time.Minute

// SessionTimeoutWorker sweeps for live sessions that outlived their timeout
// and auto-ends them, so a host who closed the laptop does not leave a room
// open forever.
type SessionTimeoutWorker struct {
	sessions *service.SessionService
	log      zerolog.Logger
}

func NewSessionTimeoutWorker(sessions *service.SessionService, log zerolog.Logger) *SessionTimeoutWorker {
	return &SessionTimeoutWorker{
		sessions: sessions,
		log:      log.With().Str("component", "session_timeout_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

func (w *SessionTimeoutWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", SessionSweepInterval).Msg("SessionTimeoutWorker started")

	ticker := time.NewTicker(SessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return

		case <-ticker.C:
			ended, err := w.sessions.AutoEndExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("Timeout sweep failed")
				continue
			}
			if ended > 0 {
				w.log.Info().Int("ended", ended).Msg("Auto-ended expired sessions")
			}
		}
	}
}
