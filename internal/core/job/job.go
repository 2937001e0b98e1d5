// Package job models assignable units of work: building, hauling and the
// restore jobs characters take to satisfy a need.
package job

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zeusync/spacelife/internal/core/events/bus"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/prototype"
	"github.com/zeusync/spacelife/internal/core/world"
)

// Lifecycle event kinds, published with the job id as topic.
const (
	KindWorked    = "worked"
	KindCompleted = "completed"
	KindStopped   = "stopped"
	KindCancelled = "cancelled"
)

// FallbackWorkTime is used when a job type has no prototype.
const FallbackWorkTime = 100.0

type Priority int

const (
	Low Priority = iota
	Medium
	High
)

func (p Priority) String() string {
	switch p {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// Requirement asks for between Min and Max items of Type. The job's material
// needs are met once Min is held; haulers keep bringing up to Max.
type Requirement struct {
	Type string
	Min  int
	Max  int
}

// Locator answers how many unlocked items of a type lie in the world.
type Locator interface {
	CountInventory(itemType string) int
}

// Prototypes resolves job templates by type.
type Prototypes interface {
	Job(t string) (prototype.Job, bool)
}

type Job struct {
	id           string
	tile         *world.Tile
	jobType      string
	workTime     float64
	remaining    float64
	requirements []Requirement
	held         map[string]int
	priority     Priority
	adjacent     bool
	isNeed       bool
	critical     bool
	beingWorked  bool
	stopped      bool
	description  string
	owner        string

	bus bus.EventBus
	log log.Log
}

type Option func(*Job)

func WithRequirements(reqs ...Requirement) Option {
	return func(j *Job) {
		j.requirements = append(j.requirements, reqs...)
	}
}

func WithPriority(p Priority) Option {
	return func(j *Job) { j.priority = p }
}

// Adjacent lets the job be worked from any tile touching its tile.
func Adjacent() Option {
	return func(j *Job) { j.adjacent = true }
}

// AsNeed marks a job that restores a character need. Need jobs are never
// returned to the global queue and never lose priority.
func AsNeed() Option {
	return func(j *Job) { j.isNeed = true }
}

// Critical marks a need job started because the need ran out.
func Critical() Option {
	return func(j *Job) { j.critical = true }
}

func WithDescription(d string) Option {
	return func(j *Job) { j.description = d }
}

func WithOwner(id string) Option {
	return func(j *Job) { j.owner = id }
}

func WithLogger(l log.Log) Option {
	return func(j *Job) {
		if l != nil {
			j.log = l
		}
	}
}

// New creates a job at tile. Tile may be nil for jobs that only consume time.
func New(b bus.EventBus, tile *world.Tile, jobType string, workTime float64, opts ...Option) *Job {
	j := &Job{
		id:        uuid.NewString(),
		tile:      tile,
		jobType:   jobType,
		workTime:  workTime,
		remaining: workTime,
		held:      make(map[string]int),
		priority:  Medium,
		bus:       b,
		log:       log.NewNop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	j.log = j.log.Named("job").With(log.String("job", j.id), log.String("type", jobType))
	return j
}

// FromPrototype builds a job from the prototype of jobType. A missing
// prototype is logged and degrades to FallbackWorkTime.
func FromPrototype(b bus.EventBus, protos Prototypes, jobType string, tile *world.Tile, opts ...Option) *Job {
	workTime := FallbackWorkTime
	proto, ok := protos.Job(jobType)
	if ok {
		workTime = proto.WorkTime
		reqs := make([]Requirement, 0, len(proto.Inventory))
		for _, it := range proto.Inventory {
			reqs = append(reqs, Requirement{Type: it.Type, Min: it.Amount, Max: it.Amount})
		}
		opts = append([]Option{WithRequirements(reqs...)}, opts...)
	}
	j := New(b, tile, jobType, workTime, opts...)
	if !ok {
		j.log.Warn("no job prototype, using fallback work time", log.Float64("work_time", workTime))
	}
	return j
}

func (j *Job) ID() string                  { return j.id }
func (j *Job) Tile() *world.Tile           { return j.tile }
func (j *Job) Type() string                { return j.jobType }
func (j *Job) WorkTime() float64           { return j.workTime }
func (j *Job) Remaining() float64          { return j.remaining }
func (j *Job) Priority() Priority          { return j.priority }
func (j *Job) IsAdjacent() bool            { return j.adjacent }
func (j *Job) IsNeed() bool                { return j.isNeed }
func (j *Job) IsCritical() bool            { return j.critical }
func (j *Job) IsBeingWorked() bool         { return j.beingWorked }
func (j *Job) SetBeingWorked(v bool)       { j.beingWorked = v }
func (j *Job) IsStopped() bool             { return j.stopped }
func (j *Job) Description() string         { return j.description }
func (j *Job) Owner() string               { return j.owner }
func (j *Job) Requirements() []Requirement { return append([]Requirement(nil), j.requirements...) }

// DropPriority lowers the priority one level. Need jobs and Low jobs keep
// theirs.
func (j *Job) DropPriority() {
	if j.isNeed || j.priority == Low {
		return
	}
	j.priority--
}

// Held reports how many items of itemType were delivered.
func (j *Job) Held(itemType string) int {
	return j.held[itemType]
}

// Requests reports whether the job wants items of itemType.
func (j *Job) Requests(itemType string) bool {
	for _, r := range j.requirements {
		if r.Type == itemType {
			return true
		}
	}
	return false
}

// AmountDesired is how many more items of itemType the job accepts.
func (j *Job) AmountDesired(itemType string) int {
	for _, r := range j.requirements {
		if r.Type == itemType {
			return max(r.Max-j.held[itemType], 0)
		}
	}
	return 0
}

// UnmetRequirement returns the first requirement, in declaration order,
// whose minimum is not yet held.
func (j *Job) UnmetRequirement() (Requirement, bool) {
	for _, r := range j.requirements {
		if j.held[r.Type] < r.Min {
			return r, true
		}
	}
	return Requirement{}, false
}

func (j *Job) MaterialNeedsMet() bool {
	_, unmet := j.UnmetRequirement()
	return !unmet
}

// IsRequiredInventoriesAvailable reports whether the world holds enough
// unlocked items to cover every unmet requirement.
func (j *Job) IsRequiredInventoriesAvailable(loc Locator) bool {
	for _, r := range j.requirements {
		missing := r.Min - j.held[r.Type]
		if missing > 0 && loc.CountInventory(r.Type) < missing {
			return false
		}
	}
	return true
}

// Deliver moves as much of inv into the job as it desires and returns the
// amount taken.
func (j *Job) Deliver(inv *world.Inventory) int {
	if inv == nil {
		return 0
	}
	n := min(j.AmountDesired(inv.Type), inv.StackSize)
	if n <= 0 {
		return 0
	}
	inv.StackSize -= n
	j.held[inv.Type] += n
	return n
}

// TakeHeld empties the delivered items, in requirement order.
func (j *Job) TakeHeld() []*world.Inventory {
	var out []*world.Inventory
	for _, r := range j.requirements {
		if n := j.held[r.Type]; n > 0 {
			out = append(out, &world.Inventory{Type: r.Type, StackSize: n})
			delete(j.held, r.Type)
		}
	}
	return out
}

// IsTileAtJobSite reports whether standing on t lets the job be worked.
func (j *Job) IsTileAtJobSite(t *world.Tile) bool {
	if j.tile == nil || t == j.tile {
		return true
	}
	return j.adjacent && t.IsNeighbour(j.tile, true)
}

// DoWork advances the job by dt. Work only counts once material needs are
// met; completion publishes completed followed by stopped.
func (j *Job) DoWork(dt float64) {
	if j.stopped {
		return
	}
	if !j.MaterialNeedsMet() {
		j.publish(KindWorked)
		return
	}
	j.remaining -= dt
	j.publish(KindWorked)
	if j.stopped || j.remaining > 0 {
		return
	}
	j.log.Debug("job completed")
	j.publish(KindCompleted)
	j.Stop()
}

// Cancel announces that the current worker gave up. The job stays alive
// and may be queued again.
func (j *Job) Cancel() {
	j.beingWorked = false
	j.publish(KindCancelled)
}

// Stop ends the job for good and drops every handler bound to it. Further
// calls are no-ops.
func (j *Job) Stop() {
	if j.stopped {
		return
	}
	j.stopped = true
	j.beingWorked = false
	j.publish(KindStopped)
	if j.bus != nil {
		j.bus.DropTopic(j.id)
	}
}

// On subscribes h to one lifecycle kind of this job.
func (j *Job) On(kind string, h func(*Job)) (bus.Subscription, error) {
	if j.bus == nil {
		return nil, fmt.Errorf("job %s: no event bus", j.id)
	}
	return j.bus.Subscribe(j.id, kind, func(e bus.Event) error {
		if jj, ok := e.Data().(*Job); ok {
			h(jj)
		}
		return nil
	})
}

func (j *Job) publish(kind string) {
	if j.bus == nil {
		return
	}
	if err := j.bus.Publish(j.id, bus.NewEvent(kind, j.id, j)); err != nil {
		j.log.Error("job event handler failed", log.String("kind", kind), log.Error(err))
	}
}

func (j *Job) String() string {
	if j.description != "" {
		return j.description
	}
	return fmt.Sprintf("%s job at %v (%s)", j.jobType, j.tile, j.priority)
}
