package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultCollectSchedule fires every 12 hours, 15 seconds past the hour. The
// offset keeps the fetch off the exact hour boundary, when the upstream feed
// is busiest.
const DefaultCollectSchedule = "15 0 0-23/12 * * *"

// ParseSchedule parses a 6-field cron expression (with seconds).
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return sched, nil
}

// RunOnSchedule blocks, invoking fn at every tick of the schedule until the
// context is cancelled. fn's error is logged, never fatal; the loop keeps
// going. An ErrRunInProgress from an overlapping tick is reported as a skip.
func RunOnSchedule(ctx context.Context, name string, sched cron.Schedule, fn func(context.Context) error) {
	for {
		now := time.Now()
		next := sched.Next(now)
		log.Printf("Scheduler: next %s at %s (in %s)", name,
			next.Format("2006-01-02 15:04:05"), next.Sub(now).Round(time.Second))

		select {
		case <-ctx.Done():
			log.Printf("Scheduler: %s stopping...", name)
			return
		case <-time.After(next.Sub(now)):
		}

		if err := fn(ctx); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				log.Printf("Scheduler: %s tick skipped, previous run still going", name)
				continue
			}
			log.Printf("Scheduler: %s failed: %v", name, err)
		}
	}
}
