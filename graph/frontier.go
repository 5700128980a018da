package graph

import (
	"container/heap"

	"github.com/gasparian/ann-search-go/result"
)

// frontier is a min-heap of scored nodes
type frontier []result.SearchResult

func (f frontier) Len() int           { return len(f) }
func (f frontier) Less(i, j int) bool { return result.Less(f[i], f[j]) }
func (f frontier) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x interface{}) {
	*f = append(*f, x.(result.SearchResult))
}

func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	x := old[n-1]
	*f = old[:n-1]
	return x
}

func (f *frontier) push(s result.SearchResult) {
	heap.Push(f, s)
}

func (f *frontier) pop() result.SearchResult {
	return heap.Pop(f).(result.SearchResult)
}
