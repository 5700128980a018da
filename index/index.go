package index

import (
	"context"
	"strings"

	"github.com/gasparian/ann-search-go/brute"
	cm "github.com/gasparian/ann-search-go/common"
	"github.com/gasparian/ann-search-go/graph"
	"github.com/gasparian/ann-search-go/hypercube"
	"github.com/gasparian/ann-search-go/lsh"
	"github.com/gasparian/ann-search-go/result"
	vc "github.com/gasparian/ann-search-go/vector"
)

// Index is the contract shared by all nearest neighbor indexes.
// Build must finish before the first query; after that the index
// serves concurrent queries.
type Index interface {
	Build(ctx context.Context, data *vc.Dataset) error
	Query(ctx context.Context, k int, q []float64) ([]result.SearchResult, error)
	RadiusQuery(ctx context.Context, q []float64, r float64) ([]result.SearchResult, error)
}

// Kind names an index implementation
type Kind string

const (
	Brute     Kind = brute.Name
	LSH       Kind = lsh.Name
	Hypercube Kind = hypercube.Name
	GNNS      Kind = "gnns"
	MRNG      Kind = "mrng"
)

// Kinds lists all known index kinds
func Kinds() []Kind {
	return []Kind{Brute, LSH, Hypercube, GNNS, MRNG}
}

// ParseKind maps a case-insensitive name to the Kind
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", &cm.ConfigError{Param: "kind", Value: s, Reason: "unknown index kind"}
}

// Options holds params of every kind, New picks the relevant ones
type Options struct {
	LSH       lsh.Config
	Hypercube hypercube.Config
	GNNS      graph.Config
	MRNG      graph.Config
	// GraphLSH configures the LSH index used to link graph nodes
	GraphLSH lsh.Config
	// Logger and Progress replace unset ones of the selected config
	Logger   *cm.Logger
	Progress cm.ProgressFunc
}

// DefaultOptions returns defaults of every kind
func DefaultOptions() Options {
	return Options{
		LSH:       lsh.DefaultConfig(),
		Hypercube: hypercube.DefaultConfig(),
		GNNS:      graph.DefaultConfig(graph.GNNS),
		MRNG:      graph.DefaultConfig(graph.MRNG),
		GraphLSH:  lsh.DefaultConfig(),
	}
}

// WithSeed sets the same seed for every randomized index
func (o Options) WithSeed(seed uint64) Options {
	o.LSH.Seed = seed
	o.Hypercube.Seed = seed
	o.GNNS.Seed = seed
	o.MRNG.Seed = seed
	o.GraphLSH.Seed = seed
	return o
}

func (o Options) logger(l *cm.Logger) *cm.Logger {
	if l == nil {
		return o.Logger
	}
	return l
}

func (o Options) progress(p cm.ProgressFunc) cm.ProgressFunc {
	if p == nil {
		return o.Progress
	}
	return p
}

// New creates an unbuilt index of the kind
func New(kind Kind, opts Options) (Index, error) {
	switch kind {
	case Brute:
		return brute.New(brute.Config{Logger: opts.Logger}), nil
	case LSH:
		config := opts.LSH
		config.Logger = opts.logger(config.Logger)
		config.Progress = opts.progress(config.Progress)
		idx, err := lsh.New(config, nil)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case Hypercube:
		config := opts.Hypercube
		config.Logger = opts.logger(config.Logger)
		config.Progress = opts.progress(config.Progress)
		idx, err := hypercube.New(config, nil)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case GNNS, MRNG:
		lshConfig := opts.GraphLSH
		lshConfig.Logger = opts.logger(lshConfig.Logger)
		lshConfig.Progress = opts.progress(lshConfig.Progress)
		l, err := lsh.New(lshConfig, nil)
		if err != nil {
			return nil, err
		}
		config := opts.GNNS
		config.Strategy = graph.GNNS
		if kind == MRNG {
			config = opts.MRNG
			config.Strategy = graph.MRNG
		}
		config.Logger = opts.logger(config.Logger)
		config.Progress = opts.progress(config.Progress)
		idx, err := graph.New(config, l)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, &cm.ConfigError{Param: "kind", Value: string(kind), Reason: "unknown index kind"}
	}
}
