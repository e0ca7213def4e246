// Command optimize tunes the evolution parameters with CMA-ES. Each
// candidate is scored by running headless worlds on several seeds and
// measuring how well fitness improves over the run.
//
// Usage:
//
//	go run ./cmd/optimize -output runs/opt1 [-config base.yaml] [-max-evals 200]
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/evosoup/config"
	"github.com/pthm-cable/evosoup/neural"
)

type options struct {
	configPath string
	maxTicks   int
	seeds      int
	maxEvals   int
	population int
	outputDir  string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.IntVar(&o.maxTicks, "max-ticks", 20000, "Simulation length per run in ticks")
	flag.IntVar(&o.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&o.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&o.population, "population", 0, "CMA-ES population size (0 = 4 + 1.5*dim)")
	flag.StringVar(&o.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	if err := run(o); err != nil {
		log.Fatal(err)
	}
}

func run(o options) error {
	if o.outputDir == "" {
		return errors.New("-output is required")
	}
	if err := os.MkdirAll(o.outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	base, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	params := NewParamVector()
	seeds := make([]uint64, o.seeds)
	for i := range seeds {
		seeds[i] = uint64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, o.maxTicks, seeds, base)

	evalLog, err := newEvalLog(filepath.Join(o.outputDir, "optimize_log.csv"), params)
	if err != nil {
		return err
	}
	defer evalLog.Close()

	pop := o.population
	if pop == 0 {
		pop = 4 + 3*params.Dim()/2
	}
	prog := &progress{total: o.maxEvals, start: time.Now(), bestScore: 1e9}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			values := params.Clamp(params.Denormalize(x))
			score := evaluator.Evaluate(values)
			quality := evaluator.LastQuality()
			n := prog.record(score, values)
			if err := evalLog.Append(n, score, quality, values); err != nil {
				log.Printf("optimize log: %v", err)
			}
			prog.print(quality)
			return score
		},
	}

	fmt.Printf("CMA-ES over %d parameters, population %d, %d evaluations\n", params.Dim(), pop, o.maxEvals)
	fmt.Printf("%d seeds per evaluation, %d ticks per run\n", o.seeds, o.maxTicks)

	result, err := optimize.Minimize(
		problem,
		params.Normalize(params.ExtractFromConfig(base)),
		&optimize.Settings{FuncEvaluations: o.maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: pop},
	)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	best := prog.best
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		return errors.New("no evaluation completed")
	}

	fmt.Printf("\nDone: %d evaluations in %s, best quality %.3f\n",
		prog.evals, formatDuration(time.Since(prog.start)), -prog.bestScore)
	for i, spec := range params.Specs {
		fmt.Printf("  %-24s %.6f\n", spec.Path, best[i])
	}
	return saveBest(o, params, best, evaluator.BestGenomes())
}

// saveBest writes the winning parameters as a full config and, when the
// best run produced any, its surviving genomes.
func saveBest(o options, params *ParamVector, best []float64, genomes []*neural.Genome) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	params.ApplyToConfig(cfg, best)
	path := filepath.Join(o.outputDir, "best_config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		return fmt.Errorf("write best config: %w", err)
	}
	fmt.Printf("best config: %s\n", path)

	if len(genomes) == 0 {
		return nil
	}
	path = filepath.Join(o.outputDir, "best_genomes.json")
	if err := neural.SaveGenomes(path, genomes); err != nil {
		return err
	}
	fmt.Printf("best genomes: %s\n", path)
	return nil
}

// evalLog is optimize_log.csv. Its columns follow the parameter list, so
// rows are written with encoding/csv rather than struct tags.
type evalLog struct {
	f *os.File
	w *csv.Writer
}

func newEvalLog(path string, params *ParamVector) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create log: %w", err)
	}
	l := &evalLog{f: f, w: csv.NewWriter(f)}
	header := []string{"eval", "score", "quality"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// Append writes one evaluation and flushes so a killed run keeps its log.
func (l *evalLog) Append(eval int, score, quality float64, values []float64) error {
	row := make([]string, 0, 3+len(values))
	row = append(row,
		strconv.Itoa(eval),
		strconv.FormatFloat(score, 'f', 6, 64),
		strconv.FormatFloat(quality, 'f', 4, 64),
	)
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *evalLog) Close() error {
	l.w.Flush()
	return l.f.Close()
}

// progress tracks the best candidate and prints an ETA line per evaluation.
// CMA-ES calls the objective from a single goroutine.
type progress struct {
	total     int
	start     time.Time
	evals     int
	bestScore float64
	best      []float64
}

func (p *progress) record(score float64, values []float64) int {
	p.evals++
	if score < p.bestScore {
		p.bestScore = score
		p.best = append(p.best[:0], values...)
	}
	return p.evals
}

func (p *progress) print(quality float64) {
	elapsed := time.Since(p.start)
	eta := time.Duration(p.total-p.evals) * (elapsed / time.Duration(p.evals))
	fmt.Printf("eval %d/%d: quality %.3f (best %.3f) | %s elapsed, ETA %s\n",
		p.evals, p.total, quality, -p.bestScore, formatDuration(elapsed), formatDuration(eta))
}

// formatDuration renders d as 1h02m03s, or 2m03s under an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h, m, s := d/time.Hour, (d%time.Hour)/time.Minute, (d%time.Minute)/time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
