package util

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
)

// Traffic is a point-in-time copy of the cumulative counters a reporter
// turns into rates.
type Traffic struct {
	BytesIn   int64 // bytes accepted from the driver
	BytesOut  int64 // bytes handed to the consumer
	Queued    int64 // frames enqueued
	Delivered int64 // frames delivered to the consumer
	Dropped   int64 // frames dropped for any reason
}

// StartStatsReporter launches a goroutine that logs relay traffic every
// interval, skipping quiet intervals. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context, interval time.Duration, snapshot func() Traffic) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var prev Traffic
		for {
			select {
			case <-ticker.C:
				cur := snapshot()
				secs := interval.Seconds()

				inS := float64(cur.BytesIn-prev.BytesIn) / secs
				outS := float64(cur.BytesOut-prev.BytesOut) / secs
				queued := cur.Queued - prev.Queued
				delivered := cur.Delivered - prev.Delivered
				dropped := cur.Dropped - prev.Dropped

				if queued > 0 || delivered > 0 || dropped > 0 {
					pterm.DefaultLogger.Info(formatStats(inS, outS, queued, delivered, dropped))
				}

				prev = cur

			case <-ctx.Done():
				return
			}
		}
	}()
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a fixed-width (8 chars) string,
// for example: "99.0   B", " 1.5 KiB", " 0.1 MiB".
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < len(byteUnits)-1 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}

// formatStats renders one reporter line.
func formatStats(inS, outS float64, queued, delivered, dropped int64) string {
	return fmt.Sprintf("In: %s/s | Out: %s/s | Frames: %3d↓ %3d↑ %3d✗",
		formatBytes(inS),
		formatBytes(outS),
		queued,
		delivered,
		dropped,
	)
}
