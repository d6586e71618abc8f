package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/user-manager/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const sweepTimeout = 30 * time.Second

// SessionSweeper periodically deletes expired sessions.
type SessionSweeper struct {
	sessions services.SessionServiceProvider
	eventSvc services.EventServiceProvider
	cron     *cron.Cron
	now      func() time.Time
}

// NewSessionSweeper creates a sweeper running on the given cron spec,
// e.g. "@every 10m" or "*/15 * * * *". eventSvc may be nil.
func NewSessionSweeper(spec string, sessions services.SessionServiceProvider, eventSvc services.EventServiceProvider) (*SessionSweeper, error) {
	s := &SessionSweeper{
		sessions: sessions,
		eventSvc: eventSvc,
		cron:     cron.New(),
		now:      time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.sweepOnce); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *SessionSweeper) Start() {
	log.Info().Msg("Starting session sweeper...")
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *SessionSweeper) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped session sweeper.")
}

func (s *SessionSweeper) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if _, err := s.Sweep(ctx); err != nil {
		log.Error().Err(err).Msg("SessionSweeper: failed to delete expired sessions")
	}
}

// Sweep deletes expired sessions now and returns how many were removed.
func (s *SessionSweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("SessionSweeper: removed expired sessions")
		if s.eventSvc != nil {
			msg := fmt.Sprintf("Removed %d expired session(s).", n)
			s.eventSvc.CreateEvent(ctx, "session.sweep", "info", msg, nil)
		}
	}
	return n, nil
}
