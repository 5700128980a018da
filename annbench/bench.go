package annbench

import (
	"sort"
)

// PrecisionRecall returns share of predictions found in groundTruth
// and share of groundTruth found in predictions; groundTruth MUST BE SORTED
func PrecisionRecall(prediction, groundTruth []uint32) (float64, float64) {
	valid := 0
	for _, val := range prediction {
		idx := sort.Search(len(groundTruth), func(i int) bool { return groundTruth[i] >= val })
		if idx < len(groundTruth) && groundTruth[idx] == val {
			valid++
		}
	}
	precision, recall := 0.0, 0.0
	if len(prediction) > 0 {
		precision = float64(valid) / float64(len(prediction))
	}
	if len(groundTruth) > 0 {
		recall = float64(valid) / float64(len(groundTruth))
	}
	return precision, recall
}

// sortedIDs returns sorted copy of ids
func sortedIDs(ids []uint32) []uint32 {
	out := make([]uint32, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
