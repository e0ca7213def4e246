package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/evosoup/config"
	"github.com/pthm-cable/evosoup/evolution"
	"github.com/pthm-cable/evosoup/neural"
)

// PoolRow is one pool's summary at the end of a window.
type PoolRow struct {
	WindowEnd int `csv:"window_end"`
	evolution.PoolStats
}

// ReproductionRow is one reproduction method's summary at the end of a window.
type ReproductionRow struct {
	WindowEnd int `csv:"window_end"`
	evolution.MethodSummary
}

// csvFile is an append-only CSV file that writes its header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	if c.headerWritten {
		return gocsv.MarshalWithoutHeaders(records, c.f)
	}
	if err := gocsv.Marshal(records, c.f); err != nil {
		return err
	}
	c.headerWritten = true
	return nil
}

// OutputManager handles structured experiment output with CSV logging.
// A nil *OutputManager is valid and discards everything.
type OutputManager struct {
	dir          string
	telemetry    csvFile
	perf         csvFile
	bookmarks    csvFile
	pools        csvFile
	reproduction csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	files := []struct {
		name string
		dst  *csvFile
	}{
		{"telemetry.csv", &om.telemetry},
		{"perf.csv", &om.perf},
		{"bookmarks.csv", &om.bookmarks},
		{"pools.csv", &om.pools},
		{"reproduction.csv", &om.reproduction},
	}
	for _, file := range files {
		f, err := os.Create(filepath.Join(dir, file.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", file.name, err)
		}
		file.dst.f = f
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.telemetry.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := om.bookmarks.write([]Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// WritePools appends one row per pool to pools.csv.
func (om *OutputManager) WritePools(windowEnd int, stats []evolution.PoolStats) error {
	if om == nil || len(stats) == 0 {
		return nil
	}
	rows := make([]PoolRow, len(stats))
	for i, s := range stats {
		rows[i] = PoolRow{WindowEnd: windowEnd, PoolStats: s}
	}
	if err := om.pools.write(rows); err != nil {
		return fmt.Errorf("writing pools: %w", err)
	}
	return nil
}

// WriteReproduction appends one row per reproduction method to reproduction.csv.
func (om *OutputManager) WriteReproduction(windowEnd int, summary []evolution.MethodSummary) error {
	if om == nil || len(summary) == 0 {
		return nil
	}
	rows := make([]ReproductionRow, len(summary))
	for i, s := range summary {
		rows[i] = ReproductionRow{WindowEnd: windowEnd, MethodSummary: s}
	}
	if err := om.reproduction.write(rows); err != nil {
		return fmt.Errorf("writing reproduction: %w", err)
	}
	return nil
}

// WriteGenomes saves genomes to name inside the output directory.
func (om *OutputManager) WriteGenomes(name string, genomes []*neural.Genome) error {
	if om == nil {
		return nil
	}
	return neural.SaveGenomes(filepath.Join(om.dir, name), genomes)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var errs []error
	for _, c := range []*csvFile{&om.telemetry, &om.perf, &om.bookmarks, &om.pools, &om.reproduction} {
		if c.f != nil {
			errs = append(errs, c.f.Close())
			c.f = nil
		}
	}
	return errors.Join(errs...)
}
