package dedupe

import (
	"context"
	"time"

	"github.com/AustralianCyberSecurityCentre/timing-bloom/prom"
)

// sizeStats and tierStats mirror the optional interfaces restapi uses to
// report on a Membership; kept as a private duplicate here rather than an
// exported shared type since both packages only need the assertion, not
// the type itself.
type sizeStats interface {
	NonzeroCells() uint32
	SizeEstimate() float64
}

type tierStats interface {
	TierCount() int
	ExpectedError() float64
}

// ReportStats polls membership on interval and republishes its fill and
// (when membership is a scaling Controller) tier stats as Prometheus
// gauges, until ctx is cancelled.
func ReportStats(ctx context.Context, membership Membership, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s, ok := membership.(sizeStats); ok {
				prom.FilterNonzeroCells.Set(float64(s.NonzeroCells()))
				prom.FilterSizeEstimate.Set(s.SizeEstimate())
			}
			if t, ok := membership.(tierStats); ok {
				prom.FilterTierCount.Set(float64(t.TierCount()))
				prom.FilterExpectedError.Set(t.ExpectedError())
			}
		}
	}
}
