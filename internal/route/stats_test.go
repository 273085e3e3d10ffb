package route

import (
	"testing"
	"time"
)

func TestLatencyStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	for _, ms := range []int64{300, 100, 500, 200, 400} {
		stats.Record(ms)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got %d %d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestLatencyStatsPrunesExpiredSamples(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := NewLatencyStats(time.Minute)
	stats.now = func() time.Time { return now }

	stats.Record(100)
	stats.RecordError(50)
	now = now.Add(2 * time.Minute)

	if snap := stats.Snapshot(); snap.Count != 0 || snap.Errors != 0 {
		t.Fatalf("expected empty snapshot after prune, got %+v", snap)
	}

	stats.Record(200)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected single fresh sample, got %+v", snap)
	}
}

func TestLatencyStatsClampsNegativeDuration(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	stats.Record(-10)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", snap)
	}
}

func TestPercentileEdges(t *testing.T) {
	if percentile(nil, 50) != 0 {
		t.Error("expected 0 for empty input")
	}
	if percentile([]int64{7}, 99) != 7 {
		t.Error("expected single value for one sample")
	}
	if percentile([]int64{1, 2}, 0) != 1 || percentile([]int64{1, 2}, 100) != 2 {
		t.Error("expected bounds at 0 and 100")
	}
}
