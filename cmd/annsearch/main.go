package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/cheggaaa/pb/v3"

	"github.com/gasparian/ann-search-go/annbench"
	cm "github.com/gasparian/ann-search-go/common"
	"github.com/gasparian/ann-search-go/index"
	vc "github.com/gasparian/ann-search-go/vector"
)

func main() {
	logger := cm.GetNewLogger()
	config, err := ParseEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("Parsing env")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, logger, config); err != nil {
		logger.Fatal().Err(err).Msg("Search failed")
	}
}

func run(ctx context.Context, logger *cm.Logger, config *Config) error {
	data, queries, neighbors, err := load(config)
	if err != nil {
		return err
	}
	if config.Queries > 0 && config.Queries < len(queries) {
		queries = queries[:config.Queries]
	}
	logger.Info().
		Str("input", config.Input).
		Int("size", data.Len()).
		Int("dim", data.Dim()).
		Int("queries", len(queries)).
		Str("kind", string(config.Kind)).
		Msg("Dataset loaded")

	bars := newProgress()
	opts := config.Index
	opts.Logger = logger
	opts.Progress = bars.Report
	idx, err := index.New(config.Kind, opts)
	if err != nil {
		return err
	}
	if err := idx.Build(ctx, data); err != nil {
		return err
	}
	truth, err := groundTruth(ctx, logger, data, neighbors)
	if err != nil {
		return err
	}

	summary, reports, err := annbench.Evaluate(ctx, idx, truth, queries, annbench.Config{
		K:        config.K,
		Radius:   config.Radius,
		Logger:   logger,
		Progress: bars.Report,
	})
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if len(config.Output) > 0 {
		f, err := os.Create(config.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return annbench.WriteReport(out, reports, summary)
}

// load reads the dataset and the queries; ann-benchmarks files carry both
// and the true neighbors of every query
func load(config *Config) (*vc.Dataset, [][]float64, [][]uint32, error) {
	if strings.HasSuffix(config.Input, ".hdf5") {
		b, err := annbench.LoadHDF5(config.Input)
		if err != nil {
			return nil, nil, nil, err
		}
		return b.Train, b.Test, b.Neighbors, nil
	}
	data, err := vc.LoadDataset(config.Input)
	if err != nil {
		return nil, nil, nil, err
	}
	qs := data
	if len(config.Query) > 0 {
		qs, err = vc.LoadDataset(config.Query)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	queries := make([][]float64, qs.Len())
	for i, v := range qs.Vectors() {
		queries[i] = v.Components()
	}
	return data, queries, nil, nil
}

// groundTruth serves listed neighbors when the input has them, brute force otherwise
func groundTruth(ctx context.Context, logger *cm.Logger, data *vc.Dataset, neighbors [][]uint32) (annbench.Truth, error) {
	if len(neighbors) > 0 {
		logger.Info().Int("queries", len(neighbors)).Msg("Using precomputed neighbors")
		return annbench.NewPrecomputed(data, neighbors), nil
	}
	truth, err := index.New(index.Brute, index.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	if err := truth.Build(ctx, data); err != nil {
		return nil, err
	}
	return annbench.Oracle(truth), nil
}

// progress keeps one bar per build or query stage
type progress struct {
	mx   sync.Mutex
	bars map[string]*pb.ProgressBar
}

func newProgress() *progress {
	return &progress{bars: make(map[string]*pb.ProgressBar)}
}

// Report moves the stage bar, builders may call it from several goroutines
func (p *progress) Report(stage string, current, total int) {
	p.mx.Lock()
	defer p.mx.Unlock()
	bar, ok := p.bars[stage]
	if !ok {
		bar = pb.StartNew(total)
		p.bars[stage] = bar
	}
	bar.SetCurrent(int64(current))
	if current >= total {
		bar.Finish()
		delete(p.bars, stage)
	}
}
