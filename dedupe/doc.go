/*
Package dedupe wires a bloom.Controller into a Kafka consumer group,
suppressing events whose configured key has already been seen within
the configured decay window.

It uses a time-decaying, self-scaling filter in place of a fixed-size
antibloom lookup: instead of evicting the oldest entries once a
fixed byte budget is exhausted, keys simply age out once decay_time
has elapsed, and capacity grows automatically as sustained throughput
increases.
*/
package dedupe
