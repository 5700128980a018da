package annbench

import (
	"context"
	"time"

	cm "github.com/gasparian/ann-search-go/common"
	"github.com/gasparian/ann-search-go/index"
	"github.com/gasparian/ann-search-go/result"
)

// Stage is reported to Config.Progress while queries are evaluated
const Stage = "queries"

// Config holds evaluation params
type Config struct {
	// K is the number of neighbors asked for every query
	K int
	// Radius enables range queries when positive
	Radius   float64
	Logger   *cm.Logger
	Progress cm.ProgressFunc
}

// QueryReport compares one approximate answer with the exact one
type QueryReport struct {
	QueryID    int
	Approx     []result.SearchResult
	True       []result.SearchResult
	InRadius   []result.SearchResult
	ApproxTime time.Duration
	TrueTime   time.Duration
}

// Summary averages quality and timings over all queries
type Summary struct {
	Queries       int
	K             int
	Precision     float64
	Recall        float64
	ApproxRatio   float64
	AvgApproxTime time.Duration
	AvgTrueTime   time.Duration
}

// PrecisionRecall compares approximate and exact ids
func (r QueryReport) PrecisionRecall() (float64, float64) {
	return PrecisionRecall(result.IDs(r.Approx), sortedIDs(result.IDs(r.True)))
}

// ApproxRatio returns mean of distanceApprox/distanceTrue over the ranks answered by both;
// ranks with zero true distance count as exact
func (r QueryReport) ApproxRatio() float64 {
	n := min(len(r.Approx), len(r.True))
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		if r.True[i].Distance == 0 {
			if r.Approx[i].Distance == 0 {
				sum++
			} else {
				n--
			}
			continue
		}
		sum += r.Approx[i].Distance / r.True[i].Distance
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Evaluate runs every query against idx and compares the answers with truth
func Evaluate(ctx context.Context, idx index.Index, truth Truth, queries [][]float64, config Config) (*Summary, []QueryReport, error) {
	if len(queries) == 0 {
		return nil, nil, &cm.EmptyDatasetError{Source: Stage}
	}
	if err := cm.PositiveInt("k", config.K); err != nil {
		return nil, nil, err
	}
	logger := config.Logger.OrNop()

	reports := make([]QueryReport, 0, len(queries))
	summary := &Summary{Queries: len(queries), K: config.K}
	var approxTotal, trueTotal time.Duration
	for i, q := range queries {
		report := QueryReport{QueryID: i}

		start := time.Now()
		approx, err := idx.Query(ctx, config.K, q)
		if err != nil {
			return nil, nil, err
		}
		report.ApproxTime = time.Since(start)
		report.Approx = approx

		start = time.Now()
		exact, err := truth.Nearest(ctx, i, config.K, q)
		if err != nil {
			return nil, nil, err
		}
		report.TrueTime = time.Since(start)
		report.True = exact

		if config.Radius > 0 {
			report.InRadius, err = idx.RadiusQuery(ctx, q, config.Radius)
			if err != nil {
				return nil, nil, err
			}
		}

		p, r := report.PrecisionRecall()
		summary.Precision += p
		summary.Recall += r
		summary.ApproxRatio += report.ApproxRatio()
		approxTotal += report.ApproxTime
		trueTotal += report.TrueTime
		reports = append(reports, report)
		config.Progress.Report(Stage, i+1, len(queries))
	}
	n := float64(len(queries))
	summary.Precision /= n
	summary.Recall /= n
	summary.ApproxRatio /= n
	summary.AvgApproxTime = approxTotal / time.Duration(len(queries))
	summary.AvgTrueTime = trueTotal / time.Duration(len(queries))

	logger.Info().
		Int("queries", summary.Queries).
		Int("k", summary.K).
		Float64("precision", summary.Precision).
		Float64("recall", summary.Recall).
		Float64("approxRatio", summary.ApproxRatio).
		Dur("avgApprox", summary.AvgApproxTime).
		Dur("avgTrue", summary.AvgTrueTime).
		Msg("Evaluation finished")
	return summary, reports, nil
}
