package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/async"
)

// updateCheckWorkers bounds how many plugins a sweep probes at once.
const updateCheckWorkers = 4

// Scheduler runs periodic update checks for every installed plugin. It
// only reports availability; applying updates stays an explicit action.
type Scheduler struct {
	service *Service
	cron    *cron.Cron
}

// NewScheduler starts update checks on the given cron schedule
// (e.g. "@every 6h").
func NewScheduler(service *Service, schedule string) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{service: service, cron: c}

	if _, err := c.AddFunc(schedule, s.checkUpdates); err != nil {
		return nil, fmt.Errorf("invalid update check schedule %q: %w", schedule, err)
	}

	c.Start()
	return s, nil
}

func (s *Scheduler) checkUpdates() {
	ids := s.service.store.IDs()
	if len(ids) == 0 {
		return
	}

	errs := async.Batch(context.Background(), ids, updateCheckWorkers, time.Minute,
		func(ctx context.Context, id string) error {
			res := s.service.installer.Update(ctx, id)
			if !res.Success {
				return fmt.Errorf("%s: %s", id, res.Message)
			}
			if available, _ := res.Data["update_available"].(bool); available {
				s.service.log.Infof("Update available for %s: v%v -> v%v",
					id, res.Data["current"], res.Data["offered"])
			}
			return nil
		})

	for _, err := range errs {
		s.service.log.Warnf("Update check failed: %v", err)
	}
}

// Stop halts the schedule, waiting for a running check to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
