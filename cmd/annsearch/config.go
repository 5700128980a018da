package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gasparian/ann-search-go/index"
)

// Config holds the tool params
type Config struct {
	Input   string
	Query   string
	Output  string
	Kind    index.Kind
	K       int
	Radius  float64
	Queries int
	Index   index.Options
}

// ParseEnv forms the tool config by parsing the environment variables,
// unset variables keep their defaults
func ParseEnv() (*Config, error) {
	config := &Config{
		Kind:  index.LSH,
		K:     1,
		Index: index.DefaultOptions(),
	}
	config.Input = os.Getenv("ANN_INPUT")
	if len(config.Input) == 0 {
		return nil, fmt.Errorf("Env value can't be empty: %s", "ANN_INPUT")
	}
	config.Query = os.Getenv("ANN_QUERY")
	config.Output = os.Getenv("ANN_OUTPUT")
	if kind := os.Getenv("ANN_KIND"); len(kind) > 0 {
		k, err := index.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		config.Kind = k
	}

	opts := &config.Index
	intVars := map[string]*int{
		"ANN_K":               &config.K,
		"ANN_QUERIES":         &config.Queries,
		"ANN_LSH_K":           &opts.LSH.NFunctions,
		"ANN_LSH_L":           &opts.LSH.NTables,
		"ANN_CUBE_D":          &opts.Hypercube.Bits,
		"ANN_CUBE_M":          &opts.Hypercube.MaxCandidates,
		"ANN_CUBE_PROBES":     &opts.Hypercube.Probes,
		"ANN_GNNS_NEIGHBORS":  &opts.GNNS.Neighbors,
		"ANN_GNNS_E":          &opts.GNNS.Search.Expansions,
		"ANN_GNNS_R":          &opts.GNNS.Search.Restarts,
		"ANN_GNNS_STEPS":      &opts.GNNS.Search.MaxSteps,
		"ANN_MRNG_NEIGHBORS":  &opts.MRNG.Neighbors,
		"ANN_MRNG_CANDIDATES": &opts.MRNG.Search.Candidates,
	}
	for key, dst := range intVars {
		raw := os.Getenv(key)
		if len(raw) == 0 {
			continue
		}
		val, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		*dst = val
	}

	if raw := os.Getenv("ANN_WORKERS"); len(raw) > 0 {
		workers, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("ANN_WORKERS: %w", err)
		}
		opts.LSH.Workers = workers
		opts.GraphLSH.Workers = workers
		opts.Hypercube.Workers = workers
		opts.GNNS.Workers = workers
		opts.MRNG.Workers = workers
	}

	floatVars := map[string]func(v float64){
		"ANN_RADIUS": func(v float64) { config.Radius = v },
		"ANN_WINDOW": func(v float64) {
			opts.LSH.Window = v
			opts.GraphLSH.Window = v
			opts.Hypercube.Window = v
		},
	}
	for key, set := range floatVars {
		raw := os.Getenv(key)
		if len(raw) == 0 {
			continue
		}
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		set(val)
	}

	if raw := os.Getenv("ANN_SEED"); len(raw) > 0 {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ANN_SEED: %w", err)
		}
		config.Index = config.Index.WithSeed(seed)
	}
	return config, nil
}
