// Package poller implements the periodic button sampler: every tick it
// reads the stop and start lines (stop wins), arms or tears down the
// countdown, and re-arms itself for the next period.
package poller
