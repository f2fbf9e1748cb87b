// Package optim sweeps scene parameters over a grid and ranks the runs by a
// metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Trial runs one grid point and returns its metrics.
type Trial func(ctx context.Context, params map[string]float64) (map[string]float64, error)

// Point is one evaluated grid point.
type Point struct {
	Params  map[string]float64
	Metrics map[string]float64
	Err     error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// ParseParam reads "name=v1,v2,..." as used on the command line.
func ParseParam(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("optim: parameter %q: want name=v1,v2,...", s)
	}
	var vals []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("optim: parameter %q: %w", s, err)
		}
		vals = append(vals, v)
	}
	return name, vals, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every grid point in order, the last parameter varying
// fastest. Points whose trial failed keep their error and never win.
// Search stops early only when ctx is done. The best point minimises
// metricName.
func (g *GridSearch) Search(ctx context.Context, trial Trial, metricName string) (Point, []Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Point{}, nil, fmt.Errorf("optim: %d names for %d ranges", len(g.paramNames), len(g.ranges))
	}

	points := make([]Point, 0, g.Size())
	if err := g.searchRecursive(ctx, 0, map[string]float64{}, trial, &points); err != nil {
		return Point{}, points, err
	}

	best := Point{}
	bestVal := math.Inf(1)
	for _, p := range points {
		if p.Err != nil {
			continue
		}
		val, ok := p.Metrics[metricName]
		if ok && val < bestVal {
			best, bestVal = p, val
		}
	}
	if best.Params == nil {
		return best, points, fmt.Errorf("optim: no successful run reported %q", metricName)
	}
	return best, points, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	trial Trial,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		metrics, err := trial(ctx, current)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		*points = append(*points, Point{Params: current, Metrics: metrics, Err: err})
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, trial, points); err != nil {
			return err
		}
	}
	return nil
}

// Ranked returns the successful points sorted by metricName, ascending.
func Ranked(points []Point, metricName string) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Err == nil {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Metrics[metricName] < out[j].Metrics[metricName]
	})
	return out
}
