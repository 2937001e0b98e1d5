package job

import (
	"github.com/zeusync/spacelife/internal/core/events/bus"
	"github.com/zeusync/spacelife/pkg/sequence"
)

// List tracks the jobs a buildable spawned. Jobs added here are also put on
// the global queue and leave the list once stopped.
type List struct {
	owner string
	queue *Queue
	jobs  []*Job
	subs  map[*Job]bus.Subscription
}

func NewList(owner string, queue *Queue) *List {
	return &List{owner: owner, queue: queue, subs: make(map[*Job]bus.Subscription)}
}

func (l *List) Add(j *Job) error {
	sub, err := j.On(KindStopped, l.remove)
	if err != nil {
		return err
	}
	j.owner = l.owner
	l.jobs = append(l.jobs, j)
	l.subs[j] = sub
	if l.queue != nil {
		l.queue.Enqueue(j)
	}
	return nil
}

func (l *List) remove(j *Job) {
	for i, c := range l.jobs {
		if c == j {
			l.jobs = append(l.jobs[:i], l.jobs[i+1:]...)
			break
		}
	}
	if sub, ok := l.subs[j]; ok {
		_ = sub.Cancel()
		delete(l.subs, j)
	}
	if l.queue != nil {
		l.queue.Remove(j)
	}
}

// HasJobWithPredicate returns the first job matching pred.
func (l *List) HasJobWithPredicate(pred func(*Job) bool) (*Job, bool) {
	return sequence.From(l.jobs).Find(pred)
}

// CancelAll stops every job in the list.
func (l *List) CancelAll() {
	for _, j := range append([]*Job(nil), l.jobs...) {
		j.Stop()
	}
}

func (l *List) Len() int {
	return len(l.jobs)
}

func (l *List) Jobs() []*Job {
	return append([]*Job(nil), l.jobs...)
}
