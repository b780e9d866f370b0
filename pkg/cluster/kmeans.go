// Package cluster partitions the rows of a term matrix into k groups with restarted k-means.
package cluster

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/xhad/topics/internal/models"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RestartSummary describes the outcome of one restart.
type RestartSummary struct {
	Restart    int
	Seed       uint64
	Objective  float64
	Iterations int
	State      State
}

// Result is the best restart of a clustering run.
type Result struct {
	Centroids   [][]float64
	Assignments []int
	// Distances holds the squared distance of every document to its centroid.
	Distances  []float64
	Objective  float64
	Iterations int
	State      State
	// History is the objective after each assignment step of the winning restart.
	History []float64
	Restart int
	// Seed is the random seed drawn when Config.Source was nil.
	Seed     uint64
	Restarts []RestartSummary
}

func (r *Result) Converged() bool { return r.State == Converged }

func (r *Result) K() int { return len(r.Centroids) }

func (r *Result) ClusterSizes() []int {
	sizes := make([]int, len(r.Centroids))
	for _, c := range r.Assignments {
		sizes[c]++
	}
	return sizes
}

// Members returns the documents of cluster c, closest to the centroid first.
func (r *Result) Members(c int) []int {
	var members []int
	for i, a := range r.Assignments {
		if a == c {
			members = append(members, i)
		}
	}
	sort.SliceStable(members, func(a, b int) bool {
		return r.Distances[members[a]] < r.Distances[members[b]]
	})
	return members
}

type sparseRow struct {
	idx []int
	val []float64
	sq  float64
}

func (s sparseRow) dot(dense []float64) float64 {
	var sum float64
	for k, j := range s.idx {
		sum += s.val[k] * dense[j]
	}
	return sum
}

func (s sparseRow) addTo(dst []float64) {
	for k, j := range s.idx {
		dst[j] += s.val[k]
	}
}

type dataset struct {
	rows []sparseRow
	cols int
}

// ingest copies m into sparse rows, rejecting non-finite entries. Matrices
// implementing mat.RowNonZeroDoer are read without visiting zero cells.
func ingest(m mat.Matrix) (*dataset, error) {
	n, cols := m.Dims()
	if n == 0 || cols == 0 {
		return nil, &models.EmptyCorpusError{Reason: fmt.Sprintf("cannot cluster a %dx%d matrix", n, cols)}
	}

	doRow := func(i int, fn func(i, j int, v float64)) {
		for j := 0; j < cols; j++ {
			if v := m.At(i, j); v != 0 {
				fn(i, j, v)
			}
		}
	}
	if nz, ok := m.(mat.RowNonZeroDoer); ok {
		doRow = nz.DoRowNonZero
	}

	data := &dataset{rows: make([]sparseRow, n), cols: cols}
	var bad error
	for i := 0; i < n; i++ {
		var row sparseRow
		doRow(i, func(i, j int, v float64) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				if bad == nil {
					bad = &models.NumericError{Stage: "ingest", Detail: fmt.Sprintf("entry (%d, %d) is %v", i, j, v)}
				}
				return
			}
			row.idx = append(row.idx, j)
			row.val = append(row.val, v)
			row.sq += v * v
		})
		if bad != nil {
			return nil, bad
		}
		data.rows[i] = row
	}
	return data, nil
}

// Cluster runs k-means on the rows of m, one document per row, and returns the best of cfg.Restarts runs.
// Hitting MaxIterations is not an error: the result carries State MaxIterationsReached.
func Cluster(ctx context.Context, m mat.Matrix, cfg Config) (*Result, error) {
	data, err := ingest(m)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(len(data.rows)); err != nil {
		return nil, err
	}

	var seed uint64
	src := cfg.Source
	if src == nil {
		seed = rand.Uint64()
		src = NewSource(seed)
	}
	// Seeds are drawn in restart order so parallel runs stay reproducible.
	seeds := make([]uint64, cfg.Restarts)
	for i := range seeds {
		seeds[i] = src.Uint64()
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = 1
	}

	runs := make([]*run, cfg.Restarts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Restarts; i++ {
		g.Go(func() error {
			r := newRun(data, cfg, rand.New(rand.NewPCG(seeds[i], uint64(i))))
			if err := r.execute(gctx); err != nil {
				return fmt.Errorf("restart %d: %w", i, err)
			}
			runs[i] = r

			summary := RestartSummary{
				Restart:    i,
				Seed:       seeds[i],
				Objective:  r.objective,
				Iterations: r.iterations,
				State:      r.state,
			}
			log.Debug().
				Int("restart", i).
				Float64("objective", r.objective).
				Int("iterations", r.iterations).
				Str("state", r.state.String()).
				Msg("Restart finished")
			if cfg.OnRestart != nil {
				cfg.OnRestart(summary)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := 0
	summaries := make([]RestartSummary, len(runs))
	for i, r := range runs {
		summaries[i] = RestartSummary{
			Restart:    i,
			Seed:       seeds[i],
			Objective:  r.objective,
			Iterations: r.iterations,
			State:      r.state,
		}
		if r.objective < runs[best].objective {
			best = i
		}
	}

	w := runs[best]
	return &Result{
		Centroids:   w.centroids,
		Assignments: w.assign,
		Distances:   w.dist,
		Objective:   w.objective,
		Iterations:  w.iterations,
		State:       w.state,
		History:     w.history,
		Restart:     best,
		Seed:        seed,
		Restarts:    summaries,
	}, nil
}

// run holds the private state of one restart.
type run struct {
	data *dataset
	cfg  Config
	rng  *rand.Rand

	state      State
	centroids  [][]float64
	norms      []float64
	assign     []int
	dist       []float64
	history    []float64
	iterations int
	objective  float64
}

func newRun(data *dataset, cfg Config, rng *rand.Rand) *run {
	assign := make([]int, len(data.rows))
	for i := range assign {
		assign[i] = -1
	}
	return &run{
		data:   data,
		cfg:    cfg,
		rng:    rng,
		state:  Uninitialized,
		assign: assign,
		dist:   make([]float64, len(data.rows)),
	}
}

func (r *run) execute(ctx context.Context) error {
	if err := r.initialize(); err != nil {
		return err
	}

	r.state = Iterating
	for r.iterations < r.cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.iterations++

		changed, objective, err := r.assignStep()
		if err != nil {
			return err
		}
		r.history = append(r.history, objective)
		if !changed {
			r.state = Converged
			break
		}

		if r.updateStep() < r.cfg.Tolerance {
			r.state = Converged
			break
		}
	}
	if r.state == Iterating {
		r.state = MaxIterationsReached
	}

	return r.finalize()
}

// distance is the squared Euclidean distance between row i and centroid c,
// expanded as |x|² - 2x·c + |c|² so sparse rows never densify.
func (r *run) distance(i, c int) float64 {
	row := r.data.rows[i]
	d := row.sq - 2*row.dot(r.centroids[c]) + r.norms[c]
	if d < 0 {
		return 0
	}
	return d
}

func (r *run) addCentroid(doc int) {
	centroid := make([]float64, r.data.cols)
	r.data.rows[doc].addTo(centroid)
	r.centroids = append(r.centroids, centroid)
	r.norms = append(r.norms, floats.Dot(centroid, centroid))
}

func (r *run) initialize() error {
	n := len(r.data.rows)
	k := r.cfg.K
	r.centroids = make([][]float64, 0, k)
	r.norms = make([]float64, 0, k)

	switch r.cfg.Init {
	case Random:
		for _, doc := range r.rng.Perm(n)[:k] {
			r.addCentroid(doc)
		}

	default:
		r.addCentroid(r.rng.IntN(n))
		nearest := make([]float64, n)
		for i := range nearest {
			nearest[i] = r.distance(i, 0)
		}

		for c := 1; c < k; c++ {
			total := floats.Sum(nearest)
			if math.IsNaN(total) || math.IsInf(total, 0) {
				return &models.NumericError{Stage: "initialization", Detail: fmt.Sprintf("distance total is %v", total)}
			}

			next := -1
			if total > 0 {
				target := r.rng.Float64() * total
				var cumulative float64
				for i, d := range nearest {
					if d == 0 {
						continue
					}
					cumulative += d
					next = i
					if cumulative > target {
						break
					}
				}
			}
			if next < 0 {
				// Every document sits on a chosen centroid.
				next = r.rng.IntN(n)
			}

			r.addCentroid(next)
			for i := range nearest {
				if d := r.distance(i, c); d < nearest[i] {
					nearest[i] = d
				}
			}
		}
	}

	r.state = Initialized
	return nil
}

func (r *run) assignStep() (changed bool, objective float64, err error) {
	for i := range r.data.rows {
		best, bestDist := 0, r.distance(i, 0)
		for c := 1; c < len(r.centroids); c++ {
			if d := r.distance(i, c); d < bestDist {
				best, bestDist = c, d
			}
		}
		if math.IsNaN(bestDist) || math.IsInf(bestDist, 0) {
			return false, 0, &models.NumericError{
				Stage:  "assignment",
				Detail: fmt.Sprintf("distance of document %d is %v", i, bestDist),
			}
		}
		if r.assign[i] != best {
			changed = true
			r.assign[i] = best
		}
		r.dist[i] = bestDist
		objective += bestDist
	}
	return changed, objective, nil
}

// updateStep moves every non-empty centroid to the mean of its members and
// returns the summed movement. Empty clusters keep their previous position.
func (r *run) updateStep() float64 {
	k := len(r.centroids)
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, r.data.cols)
	}
	for i, row := range r.data.rows {
		row.addTo(sums[r.assign[i]])
		counts[r.assign[i]]++
	}

	var movement float64
	for c := range sums {
		if counts[c] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		movement += floats.Distance(r.centroids[c], sums[c], 2)
		r.centroids[c] = sums[c]
		r.norms[c] = floats.Dot(sums[c], sums[c])
	}
	return movement
}

// finalize measures the final assignment against the final centroids.
func (r *run) finalize() error {
	r.objective = 0
	for i, c := range r.assign {
		d := r.distance(i, c)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return &models.NumericError{Stage: "assignment", Detail: fmt.Sprintf("distance of document %d is %v", i, d)}
		}
		r.dist[i] = d
		r.objective += d
	}
	return nil
}
