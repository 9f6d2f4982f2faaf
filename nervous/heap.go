package nervous

import (
	"container/heap"

	"github.com/mortalsim/mortalsim/idgen"
	"github.com/mortalsim/mortalsim/simtime"
)

// signalEntry is one slot in the pending-signal min-heap, ordered by
// send time.
type signalEntry[N comparable] struct {
	time   simtime.SimTime
	id     idgen.Id
	signal *NerveSignal[N]
	seq    int64
	index  int
}

type signalHeap[N comparable] []*signalEntry[N]

func (h signalHeap[N]) Len() int { return len(h) }
func (h signalHeap[N]) Less(i, j int) bool {
	if h[i].time == h[j].time {
		return h[i].seq < h[j].seq
	}
	return h[i].time < h[j].time
}
func (h signalHeap[N]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *signalHeap[N]) Push(x any) {
	e := x.(*signalEntry[N])
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *signalHeap[N]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

var _ heap.Interface = (*signalHeap[int])(nil)
