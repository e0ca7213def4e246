package game

import (
	"log/slog"
	"path/filepath"

	"github.com/pthm-cable/evosoup/telemetry"
)

// flushTelemetry closes the stats window when it is due, writes the CSV
// rows and saves a snapshot for every bookmark.
func (w *World) flushTelemetry() {
	if !w.collector.ShouldFlush(w.tick) {
		return
	}

	stats := w.collector.Flush(w.tick, w.sample())
	perfStats := w.perf.Stats()

	if w.onStats != nil {
		w.onStats(stats)
	}
	if w.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if w.output != nil {
		if err := w.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := w.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := w.output.WritePools(stats.WindowEndTick, w.manager.PoolStats()); err != nil {
			slog.Error("failed to write pool stats", "error", err)
		}
		if err := w.output.WriteReproduction(stats.WindowEndTick, w.manager.Stats().Summary()); err != nil {
			slog.Error("failed to write reproduction stats", "error", err)
		}
	}

	for _, bm := range w.bookmarks.Check(stats) {
		if w.logStats {
			bm.LogBookmark()
		}
		if w.output == nil {
			continue
		}
		if err := w.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		path, err := telemetry.SaveSnapshot(w.Checkpoint(&bm), filepath.Join(w.output.Dir(), "snapshots"))
		if err != nil {
			slog.Error("failed to save snapshot", "error", err)
			continue
		}
		slog.Info("snapshot saved", "path", path, "bookmark", bm.Type)
	}
}

// sample measures the end-of-window state the collector cannot count.
func (w *World) sample() telemetry.Sample {
	s := telemetry.Sample{Food: w.foodCount}

	query := w.orgFilter.Query()
	for query.Next() {
		_, _, _, energy, _, org, _ := query.Get()
		s.Energies = append(s.Energies, energy.Value)
		s.Ages = append(s.Ages, float64(org.Age))
	}
	s.Population = len(s.Energies)

	entries := w.manager.Graveyard().Entries()
	s.GraveyardSize = len(entries)
	if len(entries) > 0 {
		var sum float64
		best := entries[0].Fitness
		for _, e := range entries {
			sum += e.Fitness
			best = max(best, e.Fitness)
		}
		s.MeanFitness = sum / float64(len(entries))
		s.BestFitness = best
	}
	return s
}
