package telemetry

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int     `csv:"-"`
	WindowEndTick   int     `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Counts at window end
	Population int `csv:"population"`
	Food       int `csv:"food"`

	// Events during window
	Births       int `csv:"births"`
	Deaths       int `csv:"deaths"`
	CombatDeaths int `csv:"combat_deaths"`
	Deferred     int `csv:"deferred"`

	// Interactions
	Attacks      int     `csv:"attacks"`
	DamageDealt  float64 `csv:"damage_dealt"`
	Shares       int     `csv:"shares"`
	EnergyShared float64 `csv:"energy_shared"`
	FoodEaten    int     `csv:"food_eaten"`
	FoodEnergy   float64 `csv:"food_energy"`

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Age distribution in ticks
	AgeMean float64 `csv:"age_mean"`
	AgeP90  float64 `csv:"age_p90"`

	// Graveyard
	GraveyardSize int     `csv:"graveyard_size"`
	MeanFitness   float64 `csv:"mean_fitness"`
	BestFitness   float64 `csv:"best_fitness"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarises a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// Describe computes mean, population standard deviation and percentiles.
// values is not modified.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return Distribution{
		Mean: mean,
		Std:  math.Sqrt(variance),
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("population", s.Population),
		slog.Int("food", s.Food),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("combat_deaths", s.CombatDeaths),
		slog.Int("deferred", s.Deferred),
		slog.Int("attacks", s.Attacks),
		slog.Float64("damage_dealt", s.DamageDealt),
		slog.Int("shares", s.Shares),
		slog.Float64("energy_shared", s.EnergyShared),
		slog.Int("food_eaten", s.FoodEaten),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("age_mean", s.AgeMean),
		slog.Int("graveyard_size", s.GraveyardSize),
		slog.Float64("mean_fitness", s.MeanFitness),
		slog.Float64("best_fitness", s.BestFitness),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"population", s.Population,
		"food", s.Food,
		"births", s.Births,
		"deaths", s.Deaths,
		"combat_deaths", s.CombatDeaths,
		"deferred", s.Deferred,
		"attacks", s.Attacks,
		"damage_dealt", s.DamageDealt,
		"shares", s.Shares,
		"energy_shared", s.EnergyShared,
		"food_eaten", s.FoodEaten,
		"food_energy", s.FoodEnergy,
		"energy_mean", s.EnergyMean,
		"energy_std", s.EnergyStd,
		"energy_p10", s.EnergyP10,
		"energy_p50", s.EnergyP50,
		"energy_p90", s.EnergyP90,
		"age_mean", s.AgeMean,
		"age_p90", s.AgeP90,
		"graveyard_size", s.GraveyardSize,
		"mean_fitness", s.MeanFitness,
		"best_fitness", s.BestFitness,
	)
}
