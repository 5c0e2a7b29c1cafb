// Package query implements §4.E: the addressable priority queue, the
// unidirectional and parallel bidirectional CRP searches, and path
// unpacking. The heap itself follows the container/heap pattern used
// by dijkstra.go in the retrieval pack's graph library, extended with
// an id->heap-index map for pushOrDecrease/contains, which plain
// container/heap does not provide.
package query

import "container/heap"

type idQueueItem struct {
	id  int32
	key uint32
}

// idHeap is the container/heap.Interface implementation backing
// IDQueue. Index bookkeeping lives in IDQueue, not here, mirroring the
// pack's nodePQ/nodeItem split.
type idHeap []idQueueItem

func (h idHeap) Len() int            { return len(h) }
func (h idHeap) Less(i, j int) bool  { return h[i].key < h[j].key }
func (h idHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x interface{}) { *h = append(*h, x.(idQueueItem)) }
func (h *idHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// IDQueue is the §4.E addressable min-priority queue: entries are
// addressed by an integer id (a base-graph entry/exit point id or an
// overlay id), supporting pushOrDecrease and containment tests so the
// same id can be relaxed repeatedly without duplicate queue entries.
type IDQueue struct {
	h   idHeap
	pos map[int32]int
}

func NewIDQueue(capacityHint int) *IDQueue {
	return &IDQueue{
		h:   make(idHeap, 0, capacityHint),
		pos: make(map[int32]int, capacityHint),
	}
}

func (q *IDQueue) Len() int { return len(q.h) }

func (q *IDQueue) Contains(id int32) bool {
	_, ok := q.pos[id]
	return ok
}

// PushOrDecrease inserts id with key, or, if id is already queued,
// decreases its key (a no-op if the existing key is already <= key).
func (q *IDQueue) PushOrDecrease(id int32, key uint32) {
	if i, ok := q.pos[id]; ok {
		if key >= q.h[i].key {
			return
		}
		q.h[i].key = key
		heap.Fix(&q.h, i)
		q.resync()
		return
	}
	heap.Push(&q.h, idQueueItem{id: id, key: key})
	q.pos[id] = len(q.h) - 1
	// heap.Push may have moved elements; resync affected positions.
	q.resync()
}

// Pop removes and returns the minimum-key id.
func (q *IDQueue) Pop() (id int32, key uint32, ok bool) {
	if len(q.h) == 0 {
		return 0, 0, false
	}
	top := q.h[0]
	heap.Remove(&q.h, 0)
	delete(q.pos, top.id)
	q.resync()
	return top.id, top.key, true
}

// PeekKey returns the minimum key without removing it.
func (q *IDQueue) PeekKey() (uint32, bool) {
	if len(q.h) == 0 {
		return 0, false
	}
	return q.h[0].key, true
}

func (q *IDQueue) Reset() {
	q.h = q.h[:0]
	q.pos = make(map[int32]int, len(q.pos))
}

// resync rebuilds the id->index map. container/heap's Push/Remove/Fix
// can move arbitrary elements; a map walk after each call keeps
// pos correct without hand-tracking heap internals. Queues in this
// package are sized by maxEdgesInCell/overlay vertex count (at most a
// few thousand), so this is not on the hot inner loop of customization.
func (q *IDQueue) resync() {
	for i, it := range q.h {
		q.pos[it.id] = i
	}
}
