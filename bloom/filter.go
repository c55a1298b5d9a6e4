package bloom

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Filter is a single time-decaying Bloom filter: the Timing Bloom
// Filter of the design. Add, Contains and Decay share one mutex so a
// background decay callback registered via Start can safely run
// concurrently with caller-issued operations; the packed cell array
// itself has no atomicity below that.
type Filter struct {
	mu sync.Mutex

	params Params
	m      uint32
	k      uint8
	cells  *packedCells
	clock  *tickClock

	nonzero uint32
	idxBuf  []uint32

	scheduler Scheduler
	handle    Handle
	started   bool

	log     zerolog.Logger
	onDecay func(time.Duration)
}

// Option configures a Filter at construction time.
type Option func(*Filter)

// WithScheduler overrides the default real-clock Scheduler, primarily
// for tests and for a Controller that wants its tiers on a shared clock.
func WithScheduler(s Scheduler) Option {
	return func(f *Filter) { f.scheduler = s }
}

// WithLogger attaches a logger; the default is a disabled logger so
// the package never forces output on a caller that hasn't asked for it.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Filter) { f.log = l }
}

// WithOnDecay registers a callback invoked with the wall-clock duration
// of each completed Decay sweep, for callers that want to export it
// (e.g. as a metric) without this package depending on how.
func WithOnDecay(fn func(time.Duration)) Option {
	return func(f *Filter) { f.onDecay = fn }
}

// New constructs a Filter, sizing the cell array per the standard
// Bloom formula M = ceil(-capacity*ln(error)/(ln 2)^2),
// K = ceil((M/capacity)*ln 2). Returns a *ParameterError if capacity,
// decay_time or error are out of range.
func New(params Params, opts ...Option) (*Filter, error) {
	params = params.withDefaults()
	if err := validateParams(params); err != nil {
		return nil, err
	}

	m := computeM(params.Capacity, params.Error)
	k := computeK(m, params.Capacity)

	f := &Filter{
		params:    params,
		m:         m,
		k:         k,
		cells:     newPackedCells(m),
		clock:     newTickClock(params.DecayTime),
		scheduler: NewRealScheduler(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Capacity is the capacity this filter was constructed with.
func (f *Filter) Capacity() int { return f.params.Capacity }

// M is the number of cells backing this filter.
func (f *Filter) M() uint32 { return f.m }

// K is the number of hash positions touched per Add/Contains.
func (f *Filter) K() uint8 { return f.k }

// ErrorRate is the target false-positive rate this filter was sized for.
func (f *Filter) ErrorRate() float64 { return f.params.Error }

// Add records key as seen at the current tick, touching exactly K
// cells, and returns f for chaining.
func (f *Filter) Add(key []byte) *Filter {
	f.mu.Lock()
	defer f.mu.Unlock()

	tick := f.clock.current(f.scheduler.Now())
	f.idxBuf = indexes(key, f.m, f.k, f.idxBuf)
	for _, idx := range f.idxBuf {
		if f.cells.set(idx, tick) == 0 {
			f.nonzero++
		}
	}
	return f
}

// Contains reports whether key was added within the last decay_time,
// per the last value observed at each of its K cells against the
// current valid window. A stale cell reads as empty here until the
// cyclic tick counter comes back round to its value; Decay clears it
// before then when run at the cadence Start registers.
func (f *Filter) Contains(key []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	tickMin, tickMax := f.clock.window(f.scheduler.Now())
	f.idxBuf = indexes(key, f.m, f.k, f.idxBuf)
	for _, idx := range f.idxBuf {
		if !windowContains(tickMin, tickMax, f.cells.get(idx)) {
			return false
		}
	}
	return true
}

// Decay sweeps every cell once, clearing any tick that has fallen
// outside the current valid window, and recomputes nonzero_cells from
// the sweep. The filter's mutex is held for the whole sweep, so
// concurrent Add/Contains calls run before or after it, not during it.
func (f *Filter) Decay() *Filter {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := f.scheduler.Now()
	tickMin, tickMax := f.clock.window(start)
	var nonzero uint32
	for i := uint32(0); i < f.m; i++ {
		v := f.cells.get(i)
		if v == 0 {
			continue
		}
		if !windowContains(tickMin, tickMax, v) {
			f.cells.clear(i)
			continue
		}
		nonzero++
	}
	f.nonzero = nonzero
	if f.onDecay != nil {
		f.onDecay(f.scheduler.Now().Sub(start))
	}
	return f
}

// NonzeroCells returns the cached count of cells with value != 0.
func (f *Filter) NonzeroCells() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonzero
}

// SizeEstimate returns n_hat = -(M/K)*ln(1 - nonzero_cells/M), clamping
// the logarithm's argument away from zero.
func (f *Filter) SizeEstimate() float64 {
	f.mu.Lock()
	nonzero := f.nonzero
	f.mu.Unlock()
	return sizeEstimate(nonzero, f.m, f.k)
}

func sizeEstimate(nonzero, m uint32, k uint8) float64 {
	ratio := 1 - float64(nonzero)/float64(m)
	if ratio <= 0 {
		ratio = 1 / (float64(m)*float64(m) + 1)
	}
	return -(float64(m) / float64(k)) * math.Log(ratio)
}

// Start registers the decay sweep with the scheduler at interval
// decay_time/2 (3.5 ticks), often enough that a cell which goes stale
// is cleared before the cyclic tick counter can bring its value back
// into the valid window.
func (f *Filter) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return &StateError{Op: "start", Msg: "decay timer already running"}
	}
	f.handle = f.scheduler.SchedulePeriodic(func() { f.Decay() }, f.params.DecayTime/2)
	f.started = true
	return nil
}

// Stop deregisters the decay sweep. The filter remains queryable and
// mutable; it simply stops auto-decaying.
func (f *Filter) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started {
		return &StateError{Op: "stop", Msg: "decay timer not running"}
	}
	f.scheduler.Cancel(f.handle)
	f.handle = nil
	f.started = false
	return nil
}
