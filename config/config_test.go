package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	p := cfg.Perception
	if cfg.Brain.SignalSize != 3 {
		t.Errorf("signal_size = %d, want default 3", cfg.Brain.SignalSize)
	}
	want := p.Rays*(ValuesPerRay+cfg.Brain.SignalSize) + ProprioSize + len(p.ScentRadii)*ValuesPerScent + GradientSize
	if cfg.Derived.NumSensors != want {
		t.Errorf("NumSensors = %d, want %d", cfg.Derived.NumSensors, want)
	}
	if cfg.Derived.NumInputs != want+cfg.Brain.MemorySize {
		t.Errorf("NumInputs = %d, want %d", cfg.Derived.NumInputs, want+cfg.Brain.MemorySize)
	}
	if outputs := NumActions + cfg.Brain.SignalSize + cfg.Brain.MemorySize; cfg.Derived.NumOutputs != outputs {
		t.Errorf("NumOutputs = %d, want %d", cfg.Derived.NumOutputs, outputs)
	}
	if cfg.Derived.TotalTarget != cfg.Population.Pools*cfg.Population.PoolSize {
		t.Errorf("TotalTarget = %d", cfg.Derived.TotalTarget)
	}

	var sum float64
	for _, v := range cfg.Derived.StrategyP {
		sum += v
	}
	if sum < 0.999999 || sum > 1.000001 {
		t.Errorf("strategy probabilities sum to %v, want 1", sum)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	overlay := []byte("population:\n  pools: 2\nbrain:\n  kind: transformer\n")
	if err := os.WriteFile(path, overlay, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load overlay: %v", err)
	}
	if cfg.Population.Pools != 2 {
		t.Errorf("pools = %d, want 2", cfg.Population.Pools)
	}
	if cfg.Brain.Kind != BrainTransformer {
		t.Errorf("brain kind = %q, want %q", cfg.Brain.Kind, BrainTransformer)
	}
	// Keys absent from the overlay keep their defaults.
	if cfg.Population.PoolSize != 50 {
		t.Errorf("pool_size = %d, want default 50", cfg.Population.PoolSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero pools", func(c *Config) { c.Population.Pools = 0 }},
		{"negative upkeep", func(c *Config) { c.Energy.Upkeep = -1 }},
		{"negative move cost", func(c *Config) { c.Movement.MoveCost = -0.1 }},
		{"top fraction zero", func(c *Config) { c.Reproduction.TopFraction = 0 }},
		{"top fraction above one", func(c *Config) { c.Reproduction.TopFraction = 1.5 }},
		{"all strategies zero", func(c *Config) {
			c.Reproduction.Asexual, c.Reproduction.Sexual, c.Reproduction.InterPool = 0, 0, 0
		}},
		{"unknown brain", func(c *Config) { c.Brain.Kind = "lstm" }},
		{"unknown fitness", func(c *Config) { c.Fitness.Policy = "kills" }},
		{"unknown crossover", func(c *Config) { c.Crossover.Policy = "spliced" }},
		{"unsorted scent radii", func(c *Config) { c.Perception.ScentRadii = []float64{50, 20} }},
		{"vision beyond half arena", func(c *Config) { c.Perception.VisionRange = c.World.Height }},
		{"zero graveyard", func(c *Config) { c.Graveyard.Capacity = 0 }},
		{"sigma inverted", func(c *Config) { c.Mutation.SigmaMin, c.Mutation.SigmaMax = 0.5, 0.1 }},
		{"initial above max energy", func(c *Config) { c.Organism.InitialEnergy = c.Organism.MaxEnergy * 2 }},
		{"negative signal size", func(c *Config) { c.Brain.SignalSize = -1 }},
		{"negative event log", func(c *Config) { c.Telemetry.EventLogSize = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			err = cfg.Finalize()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Population.Pools = 0
	cfg.Graveyard.Capacity = 0

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		t.Fatalf("expected joined error, got %T", err)
	}
	if n := len(joined.Unwrap()); n != 2 {
		t.Errorf("got %d problems, want 2: %v", n, err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := MustDefault()
	cfg.Population.PoolSize = 7

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if loaded.Population.PoolSize != 7 {
		t.Errorf("pool_size = %d, want 7", loaded.Population.PoolSize)
	}
}
