package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/evosoup/config"
	"github.com/pthm-cable/evosoup/telemetry"
)

func TestDefaultsMatchConfig(t *testing.T) {
	pv := NewParamVector()
	got := pv.ExtractFromConfig(config.MustDefault())
	for i, spec := range pv.Specs {
		if got[i] != spec.Default {
			t.Errorf("%s: config default %v, spec default %v", spec.Path, got[i], spec.Default)
		}
		if spec.Default < spec.Min || spec.Default > spec.Max {
			t.Errorf("%s: default %v outside [%v, %v]", spec.Path, spec.Default, spec.Min, spec.Max)
		}
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestApplyClamps(t *testing.T) {
	pv := NewParamVector()
	cfg := config.MustDefault()
	values := make([]float64, pv.Dim())
	for i := range values {
		values[i] = 1e6
	}
	pv.ApplyToConfig(cfg, values)
	for i, v := range pv.ExtractFromConfig(cfg) {
		if v != pv.Specs[i].Max {
			t.Errorf("%s = %v, want max %v", pv.Specs[i].Name, v, pv.Specs[i].Max)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("clamped config invalid: %v", err)
	}
}

func TestQuality(t *testing.T) {
	rising := make([]telemetry.WindowStats, 8)
	flat := make([]telemetry.WindowStats, 8)
	for i := range rising {
		rising[i] = telemetry.WindowStats{MeanFitness: float64(i), BestFitness: float64(i) + 1}
		flat[i] = telemetry.WindowStats{MeanFitness: 0.1, BestFitness: 0.2, Deferred: 100}
	}

	if q := Quality(rising[:2]); q != 0 {
		t.Errorf("warmup-only quality = %v, want 0", q)
	}
	qr, qf := Quality(rising), Quality(flat)
	if qr <= qf {
		t.Errorf("rising run %v not above flat run %v", qr, qf)
	}
	if qr < 0 || qr > 1 || qf < 0 || qf > 1 {
		t.Errorf("quality outside [0, 1]: %v, %v", qr, qf)
	}
}
