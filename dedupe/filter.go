package dedupe

import (
	"fmt"
	"time"

	"github.com/AustralianCyberSecurityCentre/timing-bloom/bloom"
	"github.com/AustralianCyberSecurityCentre/timing-bloom/prom"
	st "github.com/AustralianCyberSecurityCentre/timing-bloom/settings"
	"github.com/rs/zerolog"
)

// recordDecay is shared by both filter kinds to report each completed
// decay sweep to Prometheus.
func recordDecay(d time.Duration) {
	prom.DecaySweeps.Inc()
	prom.DecaySweepDuration.Observe(d.Seconds())
}

// NewMembership builds and starts either a single bloom.Filter or a
// scaling bloom.Controller from settings, per cfg.Scaling.
func NewMembership(cfg st.DPDedupe, log zerolog.Logger) (Membership, func() error, error) {
	decayTime, err := time.ParseDuration(cfg.DecayTime)
	if err != nil {
		return nil, nil, fmt.Errorf("dedupe: parsing decay_time %q: %w", cfg.DecayTime, err)
	}

	if !cfg.Scaling {
		f, err := bloom.New(bloom.Params{
			Capacity:  cfg.Capacity,
			DecayTime: decayTime,
			Error:     cfg.Error,
		}, bloom.WithLogger(log), bloom.WithOnDecay(recordDecay))
		if err != nil {
			return nil, nil, err
		}
		if err := f.Start(); err != nil {
			return nil, nil, err
		}
		return FilterMembership{Filter: f}, f.Stop, nil
	}

	c, err := bloom.NewController(bloom.ScalingParams{
		Capacity:             cfg.Capacity,
		DecayTime:            decayTime,
		Error:                cfg.Error,
		ErrorTighteningRatio: cfg.ErrorTightening,
		GrowthFactor:         cfg.GrowthFactor,
		MaxFillFactor:        cfg.MaxFillFactor,
		MinFillFactor:        cfg.MinFillFactor,
	}, bloom.WithControllerLogger(log), bloom.WithControllerOnDecay(recordDecay))
	if err != nil {
		return nil, nil, err
	}
	if err := c.Start(); err != nil {
		return nil, nil, err
	}
	return ControllerMembership{Controller: c}, c.Stop, nil
}
