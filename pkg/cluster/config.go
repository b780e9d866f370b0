package cluster

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/xhad/topics/internal/models"
)

// Strategy selects how the starting centroids of a restart are chosen.
type Strategy string

const (
	// KMeansPlusPlus samples each new centroid with probability proportional
	// to its squared distance from the nearest centroid chosen so far.
	KMeansPlusPlus Strategy = "k-means++"
	// Random picks k distinct documents uniformly.
	Random Strategy = "random"
)

// Config controls a clustering run.
type Config struct {
	K             int
	MaxIterations int
	Restarts      int
	Tolerance     float64
	Init          Strategy

	// Source seeds the restarts. A nil Source draws a random seed, reported in Result.Seed.
	Source rand.Source

	// Workers bounds how many restarts run at once. Zero means one.
	Workers int

	// OnRestart is called after every finished restart. With more than one
	// worker it may be called concurrently.
	OnRestart func(RestartSummary)
}

func DefaultConfig() Config {
	return Config{
		K:             8,
		MaxIterations: 300,
		Restarts:      10,
		Tolerance:     1e-4,
		Init:          KMeansPlusPlus,
		Workers:       1,
	}
}

// NewSource returns a deterministic source for seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

func (c Config) validate(n int) error {
	switch {
	case c.K <= 0:
		return &models.ConfigurationError{Field: "k", Message: fmt.Sprintf("must be positive, got %d", c.K)}
	case c.K > n:
		return &models.ConfigurationError{Field: "k", Message: fmt.Sprintf("%d exceeds the number of documents (%d)", c.K, n)}
	case c.MaxIterations < 1:
		return &models.ConfigurationError{Field: "max_iterations", Message: fmt.Sprintf("must be at least 1, got %d", c.MaxIterations)}
	case c.Restarts < 1:
		return &models.ConfigurationError{Field: "restarts", Message: fmt.Sprintf("must be at least 1, got %d", c.Restarts)}
	case math.IsNaN(c.Tolerance) || math.IsInf(c.Tolerance, 0) || c.Tolerance < 0:
		return &models.ConfigurationError{Field: "tolerance", Message: fmt.Sprintf("must be a finite non-negative number, got %v", c.Tolerance)}
	case c.Init != KMeansPlusPlus && c.Init != Random:
		return &models.ConfigurationError{Field: "init", Message: fmt.Sprintf("unknown strategy %q", c.Init)}
	case c.Workers < 0:
		return &models.ConfigurationError{Field: "workers", Message: "must not be negative"}
	}
	return nil
}
