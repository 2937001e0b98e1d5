package sequence

import "container/heap"

// Order selects which end of the priority range is served first.
type Order uint8

const (
	HighestFirst Order = iota
	LowestFirst
)

type PriorityItem[T any] struct {
	Value    T
	Priority float64
	seq      uint64
	index    int
}

// Queued reports whether the item is still inside a queue.
func (it *PriorityItem[T]) Queued() bool {
	return it != nil && it.index >= 0
}

type priorityQueue[T any] struct {
	items []*PriorityItem[T]
	order Order
}

func (pq *priorityQueue[T]) Len() int {
	return len(pq.items)
}

// Less orders by priority, then by insertion so equal priorities are FIFO.
func (pq *priorityQueue[T]) Less(i, j int) bool {
	a, b := pq.items[i], pq.items[j]
	if a.Priority != b.Priority {
		if pq.order == LowestFirst {
			return a.Priority < b.Priority
		}
		return a.Priority > b.Priority
	}
	return a.seq < b.seq
}

func (pq *priorityQueue[T]) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
	pq.items[i].index = i
	pq.items[j].index = j
}

func (pq *priorityQueue[T]) Push(x any) {
	item := x.(*PriorityItem[T])
	item.index = len(pq.items)
	pq.items = append(pq.items, item)
}

func (pq *priorityQueue[T]) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // avoid memory leak
	item.index = -1 // for safety
	pq.items = old[0 : n-1]
	return item
}

type PriorityQueue[T any] struct {
	pq  priorityQueue[T]
	seq uint64
}

func NewPriorityQueue[T any](order Order) *PriorityQueue[T] {
	pq := &PriorityQueue[T]{pq: priorityQueue[T]{order: order}}
	heap.Init(&pq.pq)
	return pq
}

func (pq *PriorityQueue[T]) Enqueue(value T, priority float64) *PriorityItem[T] {
	pq.seq++
	item := &PriorityItem[T]{
		Value:    value,
		Priority: priority,
		seq:      pq.seq,
	}
	heap.Push(&pq.pq, item)
	return item
}

func (pq *PriorityQueue[T]) Dequeue() (T, bool) {
	if pq.pq.Len() == 0 {
		var zero T
		return zero, false
	}
	item := heap.Pop(&pq.pq).(*PriorityItem[T])
	return item.Value, true
}

func (pq *PriorityQueue[T]) Peek() (T, bool) {
	if pq.pq.Len() == 0 {
		var zero T
		return zero, false
	}
	return pq.pq.items[0].Value, true
}

// Update changes an item's priority in place. The item keeps its FIFO slot.
func (pq *PriorityQueue[T]) Update(item *PriorityItem[T], priority float64) {
	if !item.Queued() {
		return
	}
	item.Priority = priority
	heap.Fix(&pq.pq, item.index)
}

// Remove takes item out of the queue. It reports false if it was not queued.
func (pq *PriorityQueue[T]) Remove(item *PriorityItem[T]) bool {
	if !item.Queued() || item.index >= pq.pq.Len() || pq.pq.items[item.index] != item {
		return false
	}
	heap.Remove(&pq.pq, item.index)
	return true
}

// Values returns the queued values in service order without draining the queue.
func (pq *PriorityQueue[T]) Values() []T {
	tmp := priorityQueue[T]{order: pq.pq.order, items: make([]*PriorityItem[T], len(pq.pq.items))}
	for i, it := range pq.pq.items {
		cp := *it
		cp.index = i
		tmp.items[i] = &cp
	}
	out := make([]T, 0, len(tmp.items))
	for tmp.Len() > 0 {
		out = append(out, heap.Pop(&tmp).(*PriorityItem[T]).Value)
	}
	return out
}

func (pq *PriorityQueue[T]) Len() int {
	return pq.pq.Len()
}

func (pq *PriorityQueue[T]) IsEmpty() bool {
	return pq.pq.Len() == 0
}
