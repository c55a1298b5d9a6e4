/*
Package bloom implements a time-decaying Bloom filter and a
self-scaling composite built on top of it.

A Filter answers "was key K observed in the last decay_time seconds?"
with a tunable false-positive rate. Time is tracked in ticks of
decay_time/7, so a key reads as present for at least decay_time minus
one tick after its last Add and for at most decay_time. Unlike a plain
counting Bloom filter, a Filter never needs an explicit remove: each
cell records the tick it was last touched at, and a cell reads as
empty once that tick falls outside the current valid window.

The tick counter is cyclic (15 values), so a stale cell that no Decay
sweep has cleared reads as fresh again once the counter comes back
round to its tick. Decay clears stale cells and recomputes
nonzero_cells (so SizeEstimate drops); run at the decay_time/2 cadence
that Start registers, it clears every stale cell before its tick can
come round again.

A Controller owns an ordered set of Filters with geometrically
tightening error budgets, in the style of Almeida's scalable Bloom
filters, and adds/removes tiers as the insertion rate exceeds a single
tier's comfortable capacity.

Both types are single-writer: Add, Contains and Decay share no
internal suspension points and are safe to call from one goroutine at
a time per instance, guarded by an internal mutex so a background
decay callback (registered via Start) can run concurrently with
caller-issued Add/Contains without corrupting the packed cell array.
*/
package bloom
