package workers

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Purger deletes records that expired and reports how many were removed
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// DefaultSweepSchedule runs the sweep every minute
const DefaultSweepSchedule = "@every 1m"

// StartExpirySweeper schedules a sweep over every purger and starts the cron
// runner. The caller stops it with the returned cron's Stop.
func StartExpirySweeper(schedule string, logger zerolog.Logger, purgers map[string]Purger) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		SweepExpired(context.Background(), logger, purgers)
	}); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// SweepExpired runs each purger once. Failures are logged and do not stop the others.
func SweepExpired(ctx context.Context, logger zerolog.Logger, purgers map[string]Purger) {
	for name, p := range purgers {
		removed, err := p.PurgeExpired(ctx)
		if err != nil {
			logger.Error().Err(err).Str("kind", name).Msg("Failed to purge expired records")
			continue
		}
		if removed > 0 {
			logger.Info().Str("kind", name).Int64("removed", removed).Msg("Purged expired records")
		}
	}
}
