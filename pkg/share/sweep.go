package share

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var sharesReclaimed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "shares_reclaimed_total",
	Help: "Share records deleted by reclamation",
})

var blobDeleteFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "blob_delete_failures_total",
	Help: "Blob deletions that failed during reclamation",
})

var sweepFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sweep_failures_total",
	Help: "Expired shares the sweep could not reclaim",
})

type SweepResult struct {
	Found     int
	Reclaimed int
	Failed    int
}

// Sweep reclaims every share expired as of now. One record's failure
// never aborts the batch; failures are counted and the batch carries
// on. Sweep races against read-time reclaims on the same ids, which is
// fine because Reclaim treats missing records as success.
func (e *Engine) Sweep(ctx context.Context, now time.Time) SweepResult {
	expired, err := e.db.GetExpiredShares(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Unable to list expired shares")
		return SweepResult{}
	}

	rc := SweepResult{Found: len(expired)}
	for _, s := range expired {
		if err := e.Reclaim(ctx, s); err != nil {
			rc.Failed++
			sweepFailures.Inc()
			log.Error().Err(err).Str("share_id", s.ShareID).Msg("Unable to reclaim expired share")
			continue
		}
		rc.Reclaimed++
	}

	if rc.Found > 0 {
		log.Info().Int("found", rc.Found).Int("reclaimed", rc.Reclaimed).Int("failed", rc.Failed).Msg("Sweep completed")
	}
	return rc
}
