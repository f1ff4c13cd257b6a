// Package jobs hosts the background schedules. The only job today is the
// reaper that fails entities stuck in "processing", so a crashed completion
// cannot leave a session or video pending forever.
package jobs

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"socialloom.io/internal/asset"
	"socialloom.io/internal/generation"
)

// Reaper sweeps stuck sessions and video assets on a cron schedule.
type Reaper struct {
	cron     *cron.Cron
	log      zerolog.Logger
	sessions *generation.Service
	assets   *asset.Generator
	deadline time.Duration
	schedule string
}

// NewReaper builds the reaper. schedule is a six-field cron spec (with
// seconds); deadline is how long an entity may stay in "processing".
func NewReaper(sessions *generation.Service, assets *asset.Generator, schedule string, deadline time.Duration, log zerolog.Logger) (*Reaper, error) {
	if sessions == nil || assets == nil {
		return nil, errors.New("reaper requires session and asset services")
	}
	if deadline <= 0 {
		return nil, errors.New("reaper deadline must be positive")
	}
	return &Reaper{
		cron:     cron.New(cron.WithSeconds()),
		log:      log,
		sessions: sessions,
		assets:   assets,
		deadline: deadline,
		schedule: schedule,
	}, nil
}

// Start registers the sweep and begins the schedule.
func (r *Reaper) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.sweep); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule, waiting for a running sweep to finish.
func (r *Reaper) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Reaper) sweep() {
	reapedSessions := r.sessions.FailStale(r.deadline)
	reapedAssets := r.assets.FailStale(r.deadline)
	if reapedSessions > 0 || reapedAssets > 0 {
		r.log.Warn().
			Int("sessions", reapedSessions).
			Int("assets", reapedAssets).
			Msg("reaped stuck processing entities")
	}
}
