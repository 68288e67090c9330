// Package workers runs the background jobs of the service. The only
// job is the sweeper, which periodically reclaims expired shares that
// no read request has self-healed away.
package workers

import (
	"context"
	"time"

	"github.com/linkvault/linkvault/pkg/config"
	"github.com/linkvault/linkvault/pkg/share"
	"github.com/rs/zerolog/log"
)

// RunSweeper sweeps once immediately, then on every interval tick until
// the context is cancelled. It holds nothing but the engine handle and
// the interval; all state lives in the record store.
func RunSweeper(ctx context.Context, conf config.Sweeper, engine *share.Engine) {
	interval := conf.Interval()
	log.Debug().Dur("interval", interval).Msg("Starting sweeper")

	engine.Sweep(ctx, time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Sweeper stopped")
			return
		case now := <-ticker.C:
			engine.Sweep(ctx, now)
		}
	}
}
