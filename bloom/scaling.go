package bloom

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Default geometric parameters for a Controller's tiers, per the
// "Scaling-specific additions" table.
const (
	DefaultGrowthFactor         = 2 * math.Sqrt2
	DefaultErrorTighteningRatio = 0.9
	DefaultMaxFillFactor        = 0.9
	DefaultMinFillFactor        = 0.2
)

// ScalingParams are the construction arguments for a Controller.
type ScalingParams struct {
	Capacity             int
	DecayTime            time.Duration
	Error                float64
	ErrorTighteningRatio float64
	GrowthFactor         float64
	MaxFillFactor        float64
	MinFillFactor        float64
}

func (p ScalingParams) withDefaults() ScalingParams {
	if p.Error == 0 {
		p.Error = DefaultError
	}
	if p.ErrorTighteningRatio == 0 {
		p.ErrorTighteningRatio = DefaultErrorTighteningRatio
	}
	if p.GrowthFactor == 0 {
		p.GrowthFactor = DefaultGrowthFactor
	}
	if p.MaxFillFactor == 0 {
		p.MaxFillFactor = DefaultMaxFillFactor
	}
	if p.MinFillFactor == 0 {
		p.MinFillFactor = DefaultMinFillFactor
	}
	return p
}

func (p ScalingParams) validate() error {
	if p.Capacity <= 0 {
		return &ParameterError{Field: "Capacity", Value: p.Capacity, Reason: "must be > 0"}
	}
	if p.DecayTime <= 0 {
		return &ParameterError{Field: "DecayTime", Value: p.DecayTime, Reason: "must be > 0"}
	}
	if !(p.Error > 0 && p.Error < 1) {
		return &ParameterError{Field: "Error", Value: p.Error, Reason: "must be 0 < error < 1"}
	}
	if !(p.GrowthFactor > 1) {
		return &ParameterError{Field: "GrowthFactor", Value: p.GrowthFactor, Reason: "must be > 1"}
	}
	if !(p.ErrorTighteningRatio > 0 && p.ErrorTighteningRatio < 1) {
		return &ParameterError{Field: "ErrorTighteningRatio", Value: p.ErrorTighteningRatio, Reason: "must be 0 < r < 1"}
	}
	if !(p.MinFillFactor > 0 && p.MinFillFactor < p.MaxFillFactor && p.MaxFillFactor < 1) {
		return &ParameterError{Field: "MinFillFactor", Value: p.MinFillFactor, Reason: "must satisfy 0 < min_fill < max_fill < 1"}
	}
	// Sigma_{i=0}^inf eps_0 * r^i <= eps_target requires eps_0 <= eps_target*(1-r);
	// this implementation always sets eps_0 exactly to that bound, so the
	// constraint reduces to checking the inputs that derive it are sane,
	// already covered above.
	return nil
}

// tier is one Controller-owned Filter plus the bookkeeping the
// Controller needs that the Filter itself doesn't track: a stable id
// that survives reclamation, the capacity/error budget it was sized
// for (for fill-ratio and compound-error accounting).
type tier struct {
	id          uuid.UUID
	filter      *Filter
	capacity    int
	errorBudget float64
}

// Controller is the scaling composite: an ordered collection of
// Filters with geometrically tightening error rates, managing growth,
// shrinkage and reclamation behind the same Add/Contains/Decay
// contract as a single Filter.
type Controller struct {
	mu     sync.RWMutex
	params ScalingParams
	tiers  []*tier
	target *tier

	// nextTierIdx is the tier index handed to the next newTier call. It
	// counts monotonically upward and never rewinds when reclaim drops
	// tiers, so capacity/error-budget sizing for a freshly allocated
	// tier always continues the geometric sequence a live sibling left
	// off, instead of reusing an index (and therefore a size and error
	// budget) already held by another tier.
	nextTierIdx int

	scheduler Scheduler
	handle    Handle
	started   bool

	log     zerolog.Logger
	onDecay func(time.Duration)
}

// ControllerOption configures a Controller at construction time.
type ControllerOption func(*Controller)

// WithControllerScheduler overrides the default real-clock Scheduler.
func WithControllerScheduler(s Scheduler) ControllerOption {
	return func(c *Controller) { c.scheduler = s }
}

// WithControllerLogger attaches a logger for tier lifecycle events.
func WithControllerLogger(l zerolog.Logger) ControllerOption {
	return func(c *Controller) { c.log = l }
}

// WithControllerOnDecay registers a callback invoked with the wall-clock
// duration of each combined per-tier Decay sweep.
func WithControllerOnDecay(fn func(time.Duration)) ControllerOption {
	return func(c *Controller) { c.onDecay = fn }
}

// NewController constructs a Controller with one initial tier sized
// to Capacity and the first tier's error budget, Error*(1-ErrorTighteningRatio).
func NewController(params ScalingParams, opts ...ControllerOption) (*Controller, error) {
	params = params.withDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		params:    params,
		scheduler: NewRealScheduler(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	t, err := c.newTier()
	if err != nil {
		return nil, err
	}
	c.tiers = []*tier{t}
	c.target = t
	return c, nil
}

// capacityForTier returns N_i = N_0 * g^i.
func (c *Controller) capacityForTier(i int) int {
	return int(math.Round(float64(c.params.Capacity) * math.Pow(c.params.GrowthFactor, float64(i))))
}

// errorBudgetForTier returns eps_i = eps_0 * r^i, with
// eps_0 = eps_target*(1-r) enforced per the error-budget accounting rule.
func (c *Controller) errorBudgetForTier(i int) float64 {
	epsInitial := c.params.Error * (1 - c.params.ErrorTighteningRatio)
	return epsInitial * math.Pow(c.params.ErrorTighteningRatio, float64(i))
}

// newTier allocates the next tier in the geometric sequence, keyed off
// c.nextTierIdx rather than the current tier count so that reclaiming
// earlier tiers never causes a later tier to reuse a smaller capacity
// or looser error budget than a tier already live.
func (c *Controller) newTier() (*tier, error) {
	i := c.nextTierIdx
	capacity := c.capacityForTier(i)
	if capacity < 1 {
		capacity = 1
	}
	errorBudget := c.errorBudgetForTier(i)
	f, err := New(Params{
		Capacity:  capacity,
		DecayTime: c.params.DecayTime,
		Error:     errorBudget,
	}, WithScheduler(c.scheduler), WithLogger(c.log))
	if err != nil {
		return nil, err
	}
	c.nextTierIdx++
	return &tier{id: uuid.New(), filter: f, capacity: capacity, errorBudget: errorBudget}, nil
}

func (c *Controller) fillRatio(t *tier) float64 {
	return t.filter.SizeEstimate() / float64(t.capacity)
}

// Add writes key to the last non-full tier, allocating a new tier
// first if the current insertion target is at or above max_fill_factor.
func (c *Controller) Add(key []byte) *Controller {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.target == nil || c.fillRatio(c.target) >= c.params.MaxFillFactor {
		t, err := c.newTier()
		if err != nil {
			c.log.Error().Err(err).Msg("failed to allocate scaling tier, reusing current target")
		} else {
			c.tiers = append(c.tiers, t)
			c.target = t
			c.log.Debug().Str("tier", t.id.String()).Int("capacity", t.capacity).Float64("error_budget", t.errorBudget).Msg("scaling up")
		}
	}

	c.target.filter.Add(key)
	return c
}

// Contains is true iff any current tier reports Contains true,
// short-circuiting on the first hit in insertion order.
func (c *Controller) Contains(key []byte) bool {
	c.mu.RLock()
	tiers := c.tiers
	c.mu.RUnlock()

	for _, t := range tiers {
		if t.filter.Contains(key) {
			return true
		}
	}
	return false
}

// Decay sweeps every tier, reclaims any tier that emptied out and
// isn't the insertion target, and considers shrinking the insertion
// target if it's the sole remaining tier and underfilled.
func (c *Controller) Decay() *Controller {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.scheduler.Now()
	for _, t := range c.tiers {
		t.filter.Decay()
	}
	c.reclaim()
	c.maybeShrink()
	if c.onDecay != nil {
		c.onDecay(c.scheduler.Now().Sub(start))
	}
	return c
}

// reclaim drops any tier with zero nonzero cells that isn't the
// insertion target.
func (c *Controller) reclaim() {
	kept := c.tiers[:0:0]
	for _, t := range c.tiers {
		if t != c.target && t.filter.NonzeroCells() == 0 {
			c.log.Debug().Str("tier", t.id.String()).Msg("reclaiming empty tier")
			continue
		}
		kept = append(kept, t)
	}
	c.tiers = kept
}

// maybeShrink installs a smaller-capacity replacement target when the
// controller is down to one tier and that tier's fill has dropped
// below min_fill_factor. The old tier is reclaimed once it empties in
// a subsequent Decay; shrinking is heuristic and never required for
// correctness.
func (c *Controller) maybeShrink() {
	if len(c.tiers) != 1 {
		return
	}
	t := c.tiers[0]
	if t.capacity <= c.params.Capacity {
		return
	}
	fill := c.fillRatio(t)
	if fill >= c.params.MinFillFactor {
		return
	}

	newCapacity := int(math.Max(float64(c.params.Capacity), float64(t.capacity)/c.params.GrowthFactor))
	if newCapacity >= t.capacity {
		return
	}
	nt, err := New(Params{
		Capacity:  newCapacity,
		DecayTime: c.params.DecayTime,
		Error:     t.errorBudget,
	}, WithScheduler(c.scheduler), WithLogger(c.log))
	if err != nil {
		c.log.Error().Err(err).Msg("failed to allocate shrink replacement tier")
		return
	}

	c.tiers = append(c.tiers, &tier{id: uuid.New(), filter: nt, capacity: newCapacity, errorBudget: t.errorBudget})
	c.target = c.tiers[len(c.tiers)-1]
	c.log.Debug().Int("capacity", newCapacity).Msg("shrinking insertion target")
}

// NonzeroCells sums nonzero_cells across all current tiers.
func (c *Controller) NonzeroCells() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total uint32
	for _, t := range c.tiers {
		total += t.filter.NonzeroCells()
	}
	return total
}

// SizeEstimate sums the per-tier estimated population.
func (c *Controller) SizeEstimate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total float64
	for _, t := range c.tiers {
		total += t.filter.SizeEstimate()
	}
	return total
}

// TierCount returns the number of tiers currently held.
func (c *Controller) TierCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tiers)
}

// ExpectedError returns 1 - prod(1 - eps_i) across current tiers, the
// compound false-positive rate the tiers jointly bound. Always <= the
// eps_target the Controller was constructed with.
func (c *Controller) ExpectedError() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.tiers) == 0 {
		return 0
	}
	product := 1.0
	for _, t := range c.tiers {
		product *= 1 - t.errorBudget
	}
	return 1 - product
}

// Start registers a single combined decay callback covering all
// current and future tiers; individual tiers never register their own.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return &StateError{Op: "start", Msg: "controller decay timer already running"}
	}
	c.handle = c.scheduler.SchedulePeriodic(func() { c.Decay() }, c.params.DecayTime/2)
	c.started = true
	return nil
}

// Stop deregisters the combined decay callback.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return &StateError{Op: "stop", Msg: "controller decay timer not running"}
	}
	c.scheduler.Cancel(c.handle)
	c.handle = nil
	c.started = false
	return nil
}
