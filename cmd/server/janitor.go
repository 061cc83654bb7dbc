package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// sweep removes entries of one store that are older than maxAge.
type sweep struct {
	name          string
	maxAge        time.Duration
	deleteExpired func(before time.Time) (int, error)
}

// runJanitor runs every sweep once per interval until ctx is done.
func runJanitor(ctx context.Context, interval time.Duration, sweeps ...sweep) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			runSweeps(now, sweeps)
		}
	}
}

func runSweeps(now time.Time, sweeps []sweep) {
	for _, s := range sweeps {
		removed, err := s.deleteExpired(now.Add(-s.maxAge))
		if err != nil {
			log.Err(err).Str("store", s.name).Msg("janitor sweep failed")
			continue
		}
		if removed > 0 {
			log.Debug().Str("store", s.name).Int("removed", removed).Msg("janitor removed expired entries")
		}
	}
}
