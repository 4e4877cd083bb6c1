package relay

import (
	"sync/atomic"

	"github.com/1ureka/rxrelay/internal/util"
)

// Stats counts what happened to every frame that crossed the relay.
// All fields are updated atomically and may be read at any time.
type Stats struct {
	Queued         atomic.Int64 // frames accepted from the driver
	Delivered      atomic.Int64 // frames copied into a consumer buffer
	DroppedTooBig  atomic.Int64 // frames rejected at ingestion for size
	DroppedNoMem   atomic.Int64 // frames rejected because the pool budget was exhausted
	DroppedReceive atomic.Int64 // packets discarded because the consumer buffer was too small
	BytesIn        atomic.Int64
	BytesOut       atomic.Int64
	Sent           atomic.Int64 // frames handed to the driver's transmit path
	TxErrors       atomic.Int64
}

// Snapshot is a plain copy of Stats.
type Snapshot struct {
	Queued         int64
	Delivered      int64
	DroppedTooBig  int64
	DroppedNoMem   int64
	DroppedReceive int64
	BytesIn        int64
	BytesOut       int64
	Sent           int64
	TxErrors       int64
}

// Snapshot copies the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Queued:         s.Queued.Load(),
		Delivered:      s.Delivered.Load(),
		DroppedTooBig:  s.DroppedTooBig.Load(),
		DroppedNoMem:   s.DroppedNoMem.Load(),
		DroppedReceive: s.DroppedReceive.Load(),
		BytesIn:        s.BytesIn.Load(),
		BytesOut:       s.BytesOut.Load(),
		Sent:           s.Sent.Load(),
		TxErrors:       s.TxErrors.Load(),
	}
}

// Dropped is the total number of frames lost inside the relay.
func (s Snapshot) Dropped() int64 {
	return s.DroppedTooBig + s.DroppedNoMem + s.DroppedReceive
}

// Traffic adapts the counters for util.StartStatsReporter.
func (s *Stats) Traffic() util.Traffic {
	snap := s.Snapshot()
	return util.Traffic{
		BytesIn:   snap.BytesIn,
		BytesOut:  snap.BytesOut,
		Queued:    snap.Queued,
		Delivered: snap.Delivered,
		Dropped:   snap.Dropped(),
	}
}
