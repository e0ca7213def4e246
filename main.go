package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/evosoup/config"
	"github.com/pthm-cable/evosoup/game"
	"github.com/pthm-cable/evosoup/neural"
	"github.com/pthm-cable/evosoup/telemetry"
	"github.com/pthm-cable/evosoup/ui"
)

type flags struct {
	configPath     string
	headless       bool
	logStats       bool
	outputDir      string
	seed           uint64
	maxTicks       int
	stepsPerUpdate int
	resume         string
	exportGenomes  string
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	flag.BoolVar(&f.headless, "headless", false, "Run without graphics")
	flag.BoolVar(&f.logStats, "log-stats", false, "Output stats via slog")
	flag.StringVar(&f.outputDir, "output-dir", "", "Output directory for CSV logs, config and snapshots")
	flag.Uint64Var(&f.seed, "seed", 0, "RNG seed (0 = time-based)")
	flag.IntVar(&f.maxTicks, "max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	flag.IntVar(&f.stepsPerUpdate, "steps-per-update", 1, "Simulation ticks per frame in graphical mode")
	flag.StringVar(&f.resume, "resume", "", "Population snapshot to resume from")
	flag.StringVar(&f.exportGenomes, "export-genomes", "", "Write the living genomes to this file on exit")
	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(f); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}

	seed := f.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	output, err := telemetry.NewOutputManager(f.outputDir)
	if err != nil {
		return err
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		return err
	}

	w, err := game.New(cfg, game.Options{
		Seed:       seed,
		ResumeFrom: f.resume,
		Output:     output,
		LogStats:   f.logStats,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if f.headless {
		slog.Info("starting headless simulation",
			"seed", seed,
			"stats_window", cfg.Telemetry.StatsWindow,
			"max_ticks", f.maxTicks,
			"resume", f.resume,
		)
		for f.maxTicks == 0 || w.Tick() < f.maxTicks {
			w.Advance(cfg.Sim.DT)
		}
		slog.Info("max ticks reached", "tick", w.Tick(), "population", w.Population())
	} else {
		ui.NewApp(w, ui.AppOptions{Speed: f.stepsPerUpdate, MaxTicks: f.maxTicks}).Run()
	}

	return exportGenomes(f.exportGenomes, output, w.Genomes())
}

// exportGenomes saves the final population to path and, when output is
// enabled, to the output directory.
func exportGenomes(path string, output *telemetry.OutputManager, genomes []*neural.Genome) error {
	if err := output.WriteGenomes("final_genomes.json", genomes); err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	if err := neural.SaveGenomes(path, genomes); err != nil {
		return err
	}
	slog.Info("genomes exported", "path", path, "count", len(genomes))
	return nil
}
