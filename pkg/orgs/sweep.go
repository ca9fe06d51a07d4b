package orgs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crewplane/crewplane/pkg/observability"
)

// Invalidator evicts cached authorization state for an organization's
// users. Wired to the capability cache so a lapsed plan takes effect
// without waiting for cache TTLs.
type Invalidator interface {
	InvalidateOrg(ctx context.Context, orgID int64)
}

// ExpirySweep periodically scans for organizations whose plan has lapsed
// and flushes their cached permissions. The authorization engine itself
// already fails closed on an expired plan at check time; the sweep only
// shortens the window in which cached capability maps outlive the plan.
type ExpirySweep struct {
	service     Service
	invalidator Invalidator
	log         *observability.Logger
	cron        *cron.Cron
	schedule    string
}

// NewExpirySweep creates a sweep running on the given cron schedule
// (e.g. "@hourly").
func NewExpirySweep(service Service, invalidator Invalidator, schedule string, log *observability.Logger) *ExpirySweep {
	if schedule == "" {
		schedule = "@hourly"
	}
	return &ExpirySweep{
		service:     service,
		invalidator: invalidator,
		log:         log,
		cron:        cron.New(),
		schedule:    schedule,
	}
}

// Start registers the job and starts the scheduler.
func (s *ExpirySweep) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.Run(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *ExpirySweep) Stop() {
	<-s.cron.Stop().Done()
}

// Run performs a single sweep.
func (s *ExpirySweep) Run(ctx context.Context) {
	expired, err := s.service.ListExpiredOrganizations(ctx, time.Now())
	if err != nil {
		s.log.WithError(err).Warn("plan expiry sweep failed")
		return
	}
	for _, org := range expired {
		if s.invalidator != nil {
			s.invalidator.InvalidateOrg(ctx, org.ID)
		}
		s.log.WithFields(map[string]interface{}{
			"org_id":  org.ID,
			"plan_id": org.PlanID,
		}).Info("organization plan expired, permissions cache flushed")
	}
}
