package job

import (
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/pkg/sequence"
)

// Queue is the global pool of unclaimed jobs. Higher priority first, FIFO
// within a priority. Stopped jobs are dropped on the way out.
type Queue struct {
	pq    *sequence.PriorityQueue[*Job]
	items map[*Job]*sequence.PriorityItem[*Job]
	log   log.Log
}

func NewQueue(logger log.Log) *Queue {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Queue{
		pq:    sequence.NewPriorityQueue[*Job](sequence.HighestFirst),
		items: make(map[*Job]*sequence.PriorityItem[*Job]),
		log:   logger.Named("jobs"),
	}
}

// Enqueue adds j. A job already queued has its priority refreshed instead.
func (q *Queue) Enqueue(j *Job) {
	if j == nil || j.IsStopped() {
		return
	}
	if item, ok := q.items[j]; ok {
		q.pq.Update(item, float64(j.Priority()))
		return
	}
	q.items[j] = q.pq.Enqueue(j, float64(j.Priority()))
	q.log.Debug("job queued", log.Stringer("job", j), log.Stringer("priority", j.Priority()))
}

// Dequeue pops the most urgent live job.
func (q *Queue) Dequeue() (*Job, bool) {
	for {
		j, ok := q.pq.Dequeue()
		if !ok {
			return nil, false
		}
		delete(q.items, j)
		if !j.IsStopped() {
			return j, true
		}
	}
}

func (q *Queue) Remove(j *Job) bool {
	item, ok := q.items[j]
	if !ok {
		return false
	}
	delete(q.items, j)
	return q.pq.Remove(item)
}

func (q *Queue) Contains(j *Job) bool {
	_, ok := q.items[j]
	return ok
}

func (q *Queue) Len() int {
	return q.pq.Len()
}

// Jobs lists the queued jobs in service order.
func (q *Queue) Jobs() []*Job {
	return q.pq.Values()
}
