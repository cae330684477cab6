// Package mono is a monotonic clock source, grounded on the teacher's
// cmn/mono package (imported by xact/xs/tcb.go for xaction timing). It
// suits elapsed-time comparisons only, since a monotonic reading can never
// observe a backward jump from a concurrent OS_SetLocalTime call. No other
// package in this module imports it.
package mono

import "time"

// start anchors NanoTime to the monotonic clock reading taken at init.
var start = time.Now()

// NanoTime returns an opaque, non-decreasing tick count suitable only for
// computing deltas via Since.
func NanoTime() int64 {
	return int64(time.Since(start))
}

// Since returns the elapsed duration since a NanoTime() reading.
func Since(start int64) time.Duration {
	return time.Duration(NanoTime() - start)
}
