package annbench

import (
	"bufio"
	"fmt"
	"io"
)

// WriteReport prints every query report followed by the summary
func WriteReport(w io.Writer, reports []QueryReport, summary *Summary) error {
	bw := bufio.NewWriter(w)
	for _, r := range reports {
		fmt.Fprintf(bw, "Query: %d\n", r.QueryID)
		for i := range r.Approx {
			fmt.Fprintf(bw, "Nearest neighbor-%d: %d\n", i+1, r.Approx[i].ID)
			fmt.Fprintf(bw, "distanceApprox: %.4f\n", r.Approx[i].Distance)
			if i < len(r.True) {
				fmt.Fprintf(bw, "distanceTrue: %.4f\n", r.True[i].Distance)
			}
		}
		fmt.Fprintf(bw, "tApprox: %v\n", r.ApproxTime)
		fmt.Fprintf(bw, "tTrue: %v\n", r.TrueTime)
		if r.InRadius != nil {
			fmt.Fprintln(bw, "R-near neighbors:")
			for _, s := range r.InRadius {
				fmt.Fprintln(bw, s.ID)
			}
		}
		fmt.Fprintln(bw)
	}
	if summary != nil {
		fmt.Fprintf(bw, "Queries: %d\n", summary.Queries)
		fmt.Fprintf(bw, "Precision@%d: %.4f\n", summary.K, summary.Precision)
		fmt.Fprintf(bw, "Recall@%d: %.4f\n", summary.K, summary.Recall)
		fmt.Fprintf(bw, "Approximation ratio: %.4f\n", summary.ApproxRatio)
		fmt.Fprintf(bw, "Average tApprox: %v\n", summary.AvgApproxTime)
		fmt.Fprintf(bw, "Average tTrue: %v\n", summary.AvgTrueTime)
	}
	return bw.Flush()
}
