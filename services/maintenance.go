package services

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

const DefaultSweepSchedule = "@every 10m"

type sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Maintenance periodically drops expired sessions and closed rate-limit
// windows from the in-memory stores.
type Maintenance struct {
	cron     *cron.Cron
	sessions *SessionService
	limiters []*RateLimiter
}

func NewMaintenance(sessions *SessionService, limiters ...*RateLimiter) *Maintenance {
	return &Maintenance{
		cron:     cron.New(),
		sessions: sessions,
		limiters: limiters,
	}
}

func (m *Maintenance) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if _, err := m.cron.AddFunc(schedule, m.RunOnce); err != nil {
		return err
	}
	m.cron.Start()
	log.Printf("Maintenance sweep scheduled (%s)", schedule)
	return nil
}

func (m *Maintenance) Stop() {
	<-m.cron.Stop().Done()
}

// RunOnce performs a single sweep of every registered store.
func (m *Maintenance) RunOnce() {
	ctx := context.Background()

	targets := make(map[string]sweeper, len(m.limiters)+1)
	if m.sessions != nil {
		targets["sessions"] = m.sessions
	}
	for _, l := range m.limiters {
		targets["ratelimit:"+l.Policy().Name] = l
	}

	for name, t := range targets {
		removed, err := t.Sweep(ctx)
		if err != nil {
			log.Printf("Sweep of %s failed: %v", name, err)
			continue
		}
		if removed > 0 {
			log.Printf("Swept %d expired entries from %s", removed, name)
		}
	}
}
