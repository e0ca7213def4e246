// Package config provides configuration loading and validation for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
// A Config is immutable once a World has been created from it.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Sim          SimConfig          `yaml:"sim"`
	Population   PopulationConfig   `yaml:"population"`
	Organism     OrganismConfig     `yaml:"organism"`
	Energy       EnergyConfig       `yaml:"energy"`
	Movement     MovementConfig     `yaml:"movement"`
	Attack       AttackConfig       `yaml:"attack"`
	Share        ShareConfig        `yaml:"share"`
	Food         FoodConfig         `yaml:"food"`
	Perception   PerceptionConfig   `yaml:"perception"`
	Brain        BrainConfig        `yaml:"brain"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Graveyard    GraveyardConfig    `yaml:"graveyard"`
	Fitness      FitnessConfig      `yaml:"fitness"`
	Crossover    CrossoverConfig    `yaml:"crossover"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Screen       ScreenConfig       `yaml:"screen"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the arena dimensions. The arena wraps toroidally on both axes.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// SimConfig holds tick loop settings.
type SimConfig struct {
	DT                float64 `yaml:"dt"`                 // Seconds per tick used by the runners
	Workers           int     `yaml:"workers"`            // Phase-1 workers (0 = GOMAXPROCS)
	ParallelThreshold int     `yaml:"parallel_threshold"` // Below this many organisms phase 1 runs inline
}

// PopulationConfig holds genetic pool sizing.
type PopulationConfig struct {
	Pools    int `yaml:"pools"`     // Number of genetic pools
	PoolSize int `yaml:"pool_size"` // Target live organisms per pool
}

// OrganismConfig holds per-organism body parameters.
type OrganismConfig struct {
	BodyRadius    float64 `yaml:"body_radius"`
	InitialEnergy float64 `yaml:"initial_energy"` // Energy of every newborn
	MaxEnergy     float64 `yaml:"max_energy"`     // Gains are capped here
	AgeScale      float64 `yaml:"age_scale"`      // Ticks at which normalized age reaches 0.5
}

// EnergyConfig holds the flat metabolic cost.
type EnergyConfig struct {
	Upkeep float64 `yaml:"upkeep"` // Energy lost per second of simulated time
}

// MovementConfig holds locomotion limits and costs.
type MovementConfig struct {
	MaxSpeed    float64 `yaml:"max_speed"`     // Units per second at full move output
	MaxTurnRate float64 `yaml:"max_turn_rate"` // Radians per second at full turn output
	MoveCost    float64 `yaml:"move_cost"`     // Energy per unit distance moved
	TurnCost    float64 `yaml:"turn_cost"`     // Energy per radian turned
}

// AttackConfig holds combat parameters.
type AttackConfig struct {
	Range         float64 `yaml:"range"`          // Max center distance to a target
	Damage        float64 `yaml:"damage"`         // Energy removed at full attack output
	Cost          float64 `yaml:"cost"`           // Attacker pays Cost * amount
	StealFraction float64 `yaml:"steal_fraction"` // Fraction of dealt damage gained by the attacker
	Cooldown      int     `yaml:"cooldown"`       // Ticks between attacks
	Threshold     float64 `yaml:"threshold"`      // Attack output must exceed this
}

// ShareConfig holds energy sharing parameters.
type ShareConfig struct {
	Radius      float64 `yaml:"radius"`
	Amount      float64 `yaml:"amount"`       // Energy offered at full share output
	MaxFraction float64 `yaml:"max_fraction"` // Giver never transfers more than this fraction of its energy
	Threshold   float64 `yaml:"threshold"`
}

// FoodConfig holds food spawning parameters.
type FoodConfig struct {
	Initial      int     `yaml:"initial"`
	Max          int     `yaml:"max"`
	Energy       float64 `yaml:"energy"`
	Radius       float64 `yaml:"radius"`
	SpawnRate    float64 `yaml:"spawn_rate"`    // Expected new items per second
	Lifetime     float64 `yaml:"lifetime"`      // Seconds before an item rots (0 = never)
	CorpseEnergy float64 `yaml:"corpse_energy"` // Energy of a corpse left by a combat death (0 = none)
	NoiseScale   float64 `yaml:"noise_scale"`   // Fertility field frequency in 1/units
	NoiseBias    float64 `yaml:"noise_bias"`    // Floor acceptance probability in barren areas
	NoiseOctaves int     `yaml:"noise_octaves"` // Fractal octaves of the fertility field
}

// PerceptionConfig holds sensor parameters.
type PerceptionConfig struct {
	Rays              int       `yaml:"rays"`
	VisionRange       float64   `yaml:"vision_range"`
	FOV               float64   `yaml:"fov"`                 // Radians
	ScentRadii        []float64 `yaml:"scent_radii"`         // Strictly increasing
	ScentDensityScale float64   `yaml:"scent_density_scale"` // Multiplies count/area before squashing
}

// BrainConfig holds network shape parameters.
type BrainConfig struct {
	Kind        string            `yaml:"kind"` // "mlp" or "transformer"
	Hidden      []int             `yaml:"hidden"`
	MemorySize  int               `yaml:"memory_size"`
	SignalSize  int               `yaml:"signal_size"` // colour channels each organism broadcasts
	InitScale   float64           `yaml:"init_scale"`
	Transformer TransformerConfig `yaml:"transformer"`
}

// TransformerConfig holds transformer brain dimensions.
type TransformerConfig struct {
	ModelDim int `yaml:"model_dim"`
	Blocks   int `yaml:"blocks"`
	Heads    int `yaml:"heads"`
	HeadDim  int `yaml:"head_dim"`
	FFDim    int `yaml:"ff_dim"`
}

// MutationConfig holds weight mutation parameters.
type MutationConfig struct {
	Rate                float64 `yaml:"rate"`      // Per-weight mutation probability of new genomes
	SigmaMin            float64 `yaml:"sigma_min"` // Per-child sigma is log-uniform in [min, max]
	SigmaMax            float64 `yaml:"sigma_max"`
	BigRate             float64 `yaml:"big_rate"`  // Chance a mutated weight takes a big jump
	BigSigma            float64 `yaml:"big_sigma"` // Std dev of big jumps
	RateDrift           float64 `yaml:"rate_drift"`
	InterPoolSigmaScale float64 `yaml:"inter_pool_sigma_scale"`
}

// ReproductionConfig holds parent selection and strategy parameters.
type ReproductionConfig struct {
	TopFraction    float64 `yaml:"top_fraction"`
	Asexual        float64 `yaml:"asexual"` // Strategy weights, normalized at load
	Sexual         float64 `yaml:"sexual"`
	InterPool      float64 `yaml:"inter_pool"`
	MaxPairRetries int     `yaml:"max_pair_retries"`
	Placement      string  `yaml:"placement"` // "near_pool" or "random"
	SpawnJitter    float64 `yaml:"spawn_jitter"`
}

// GraveyardConfig holds graveyard parameters.
type GraveyardConfig struct {
	Capacity    int `yaml:"capacity"`
	MinAgeTicks int `yaml:"min_age_ticks"` // Younger deaths are not archived
}

// FitnessConfig selects the fitness formula.
type FitnessConfig struct {
	Policy       string  `yaml:"policy"` // "weighted" or "product"
	EnergyWeight float64 `yaml:"energy_weight"`
	AgeWeight    float64 `yaml:"age_weight"`
}

// CrossoverConfig selects how two parent genomes are combined.
type CrossoverConfig struct {
	Policy         string  `yaml:"policy"` // "uniform" or "interpolate"
	InterpolateMin float64 `yaml:"interpolate_min"`
	InterpolateMax float64 `yaml:"interpolate_max"`
}

// TelemetryConfig holds stats collection parameters.
type TelemetryConfig struct {
	StatsWindow     float64 `yaml:"stats_window"`     // Seconds of simulated time per window
	DiversitySample int     `yaml:"diversity_sample"` // Genomes sampled per pool for diversity
	EventLogSize    int     `yaml:"event_log_size"`   // Recent events kept for the viewer
}

// ScreenConfig holds viewer settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// Sensor layout sizes.
const (
	ValuesPerRay   = 4 // proximity, is-organism, same-pool, energy; the hit organism's signal follows
	ProprioSize    = 4 // energy, age, sin(heading), cos(heading)
	ValuesPerScent = 2 // food density, organism density
	GradientSize   = 2 // food gradient (forward, lateral)
	NumActions     = 4 // turn, move, attack, share
)

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	NumSensors  int        // Length of the perception vector
	NumInputs   int        // NumSensors + memory
	NumOutputs  int        // NumActions + signal + memory
	TotalTarget int        // Pools * PoolSize
	StrategyP   [3]float64 // Normalized asexual, sexual, inter-pool probabilities
	MaxRadius   float64    // Largest query radius used in phase 1
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The result is validated.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the embedded defaults without validation. Callers that
// modify the result must call Finalize before use.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// MustDefault is like Default followed by Finalize but panics on error.
func MustDefault() *Config {
	cfg, err := Default()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	if err := cfg.Finalize(); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// Finalize validates the config and computes derived values.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	p := c.Perception
	c.Derived.NumSensors = p.Rays*(ValuesPerRay+c.Brain.SignalSize) + ProprioSize + len(p.ScentRadii)*ValuesPerScent + GradientSize
	c.Derived.NumInputs = c.Derived.NumSensors + c.Brain.MemorySize
	c.Derived.NumOutputs = NumActions + c.Brain.SignalSize + c.Brain.MemorySize
	c.Derived.TotalTarget = c.Population.Pools * c.Population.PoolSize

	r := c.Reproduction
	sum := r.Asexual + r.Sexual + r.InterPool
	c.Derived.StrategyP = [3]float64{r.Asexual / sum, r.Sexual / sum, r.InterPool / sum}

	maxR := p.VisionRange
	if n := len(p.ScentRadii); n > 0 {
		maxR = max(maxR, p.ScentRadii[n-1])
	}
	maxR = max(maxR, c.Attack.Range, c.Share.Radius, c.Organism.BodyRadius+c.Food.Radius)
	c.Derived.MaxRadius = maxR
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
