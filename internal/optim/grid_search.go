// Package optim tunes the dosing controller by exhaustive search over a
// parameter grid, scoring each candidate with a headless run.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/config"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/experiment"
)

// Candidate is one evaluated grid point.
type Candidate struct {
	Params map[string]float64
	Score  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

// NewGridSearch takes controller parameter names (see control.Dosing.SetParam)
// and the values to try for each.
func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d params but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs base with every combination applied to its controller and
// returns the candidates ordered by ascending metricName. Combinations the
// controller rejects are skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	base experiment.Config,
	metricName string,
) ([]Candidate, error) {
	var results []Candidate
	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, metricName, &results)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("optim: no valid parameter combination")
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score < results[j].Score })
	return results, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base experiment.Config,
	metricName string,
	results *[]Candidate,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		score, ok, err := evaluate(ctx, base, current, metricName)
		if err != nil || !ok {
			return err
		}
		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}
		*results = append(*results, Candidate{Params: params, Score: score})
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		if err := g.searchRecursive(ctx, depth+1, current, base, metricName, results); err != nil {
			return err
		}
	}
	delete(current, name)
	return nil
}

// evaluate reports ok=false for parameter sets the controller rejects.
func evaluate(ctx context.Context, base experiment.Config, params map[string]float64, metricName string) (float64, bool, error) {
	cfg := *config.DefaultConfig()
	if base.Sim != nil {
		cfg = *base.Sim
	}
	dosing := cfg.DosingController()
	for k, v := range params {
		if err := dosing.SetParam(k, v); err != nil {
			return 0, false, nil
		}
	}
	if dosing.Validate() != nil {
		return 0, false, nil
	}
	cfg.Dosing.LoadDivisor = dosing.LoadDivisor
	cfg.Dosing.Deadband = dosing.Deadband
	cfg.Dosing.Gain = dosing.Gain

	run := base
	run.Sim = &cfg
	res, err := experiment.New(run).Run(ctx)
	if err != nil {
		return 0, false, err
	}
	score, ok := res.Metrics[metricName]
	if !ok {
		return 0, false, fmt.Errorf("optim: unknown metric %q", metricName)
	}
	if math.IsNaN(score) {
		return 0, false, nil
	}
	return score, true, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
