// Package chans provides the inter-task channels of the cooperative kernel.
package chans

// Two kinds of channels are provided. A Share holds the latest value of a
// signal and is overwritten on every write. A Queue is a bounded FIFO with an
// overflow policy fixed at construction.
//
// Neither kind is safe for use from multiple goroutines. All tasks of a
// Scheduler run on the same goroutine and only ever observe a channel
// between two steps, so no locking is needed or done.
