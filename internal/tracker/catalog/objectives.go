package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the read surface an objective needs to answer "who completed
// me, and when". The progress package's WorldState implements it.
type Snapshot interface {
	PlayersWithAdvancement(id string) map[uuid.UUID]time.Time
	PlayersWithCriterion(advID, critID string) []uuid.UUID
	PlayersWithBlock(id string) []uuid.UUID
	DeathObserved(id string) bool
	MainPlayer() uuid.UUID
}

// Objective is one trackable goal. Each variant answers its own completion
// query so the per-kind precision differences stay next to the kind that
// causes them: advancements carry real per-player timestamps, criteria and
// blocks substitute the objective's first-observed time, and deaths are a
// log-derived boolean attributed to the main player.
type Objective interface {
	ObjectiveID() string
	DisplayName() string
	Status() string
	Completions(s Snapshot) map[uuid.UUID]time.Time
}

// Advancement is a top-level milestone, optionally with sub-criteria.
type Advancement struct {
	id   string
	name string

	Criteria []*Criterion

	complete       bool
	completedBy    int
	firstCompleted time.Time
	status         string
}

func (a *Advancement) ObjectiveID() string { return a.id }
func (a *Advancement) DisplayName() string { return a.name }
func (a *Advancement) Status() string      { return a.status }

func (a *Advancement) HasCriteria() bool { return len(a.Criteria) > 0 }
func (a *Advancement) IsComplete() bool  { return a.complete }

// WhenFirstCompleted reports the earliest completion timestamp seen for
// this advancement, or the zero time when nobody has it.
func (a *Advancement) WhenFirstCompleted() time.Time { return a.firstCompleted }

func (a *Advancement) Completions(s Snapshot) map[uuid.UUID]time.Time {
	return s.PlayersWithAdvancement(a.id)
}

func (a *Advancement) Refresh(s Snapshot) {
	done := s.PlayersWithAdvancement(a.id)
	a.complete = len(done) > 0
	a.completedBy = len(done)
	a.firstCompleted = time.Time{}
	for _, at := range done {
		if a.firstCompleted.IsZero() || at.Before(a.firstCompleted) {
			a.firstCompleted = at
		}
	}
	if a.complete {
		a.status = fmt.Sprintf("%s (done)", a.name)
	} else {
		a.status = a.name
	}
	for _, crit := range a.Criteria {
		crit.Refresh(s)
	}
}

// Criterion is a sub-condition of an advancement.
type Criterion struct {
	id    string
	name  string
	owner *Advancement

	complete       bool
	firstCompleted time.Time
	status         string
}

func (c *Criterion) ObjectiveID() string  { return c.id }
func (c *Criterion) DisplayName() string  { return c.name }
func (c *Criterion) Status() string       { return c.status }
func (c *Criterion) Owner() *Advancement  { return c.owner }
func (c *Criterion) IsComplete() bool     { return c.complete }

// WhenFirstCompleted reports when this tracker session first observed the
// criterion complete. Save data stores no per-player criterion timestamps,
// so this observation time stands in for all holders.
func (c *Criterion) WhenFirstCompleted() time.Time { return c.firstCompleted }

func (c *Criterion) Completions(s Snapshot) map[uuid.UUID]time.Time {
	out := map[uuid.UUID]time.Time{}
	for _, id := range s.PlayersWithCriterion(c.owner.id, c.id) {
		out[id] = c.firstCompleted
	}
	return out
}

func (c *Criterion) Refresh(s Snapshot) {
	holders := s.PlayersWithCriterion(c.owner.id, c.id)
	was := c.complete
	c.complete = len(holders) > 0
	if c.complete && !was {
		c.firstCompleted = time.Now()
	}
	if !c.complete {
		c.firstCompleted = time.Time{}
	}
	if c.complete {
		c.status = fmt.Sprintf("%s (done)", c.name)
	} else {
		c.status = c.name
	}
}

// Block is a placeable block objective (block-collection ruleset).
type Block struct {
	id   string
	name string

	placed         bool
	firstCompleted time.Time
	status         string
}

func (b *Block) ObjectiveID() string { return b.id }
func (b *Block) DisplayName() string { return b.name }
func (b *Block) Status() string      { return b.status }
func (b *Block) IsPlaced() bool      { return b.placed }

func (b *Block) WhenFirstCompleted() time.Time { return b.firstCompleted }

func (b *Block) Completions(s Snapshot) map[uuid.UUID]time.Time {
	out := map[uuid.UUID]time.Time{}
	for _, id := range s.PlayersWithBlock(b.id) {
		out[id] = b.firstCompleted
	}
	return out
}

func (b *Block) Refresh(s Snapshot) {
	was := b.placed
	b.placed = len(s.PlayersWithBlock(b.id)) > 0
	if b.placed && !was {
		b.firstCompleted = time.Now()
	}
	if !b.placed {
		b.firstCompleted = time.Time{}
	}
	if b.placed {
		b.status = fmt.Sprintf("%s (placed)", b.name)
	} else {
		b.status = b.name
	}
}

// Death is a death-message objective, detected by scanning the game log.
// Messages are candidate substrings, checked in order.
type Death struct {
	id   string
	name string

	Messages []string

	observed bool
	status   string
}

func (d *Death) ObjectiveID() string { return d.id }
func (d *Death) DisplayName() string { return d.name }
func (d *Death) Status() string      { return d.status }
func (d *Death) IsObserved() bool    { return d.observed }

// Completions attributes an observed death to the main tracked player at
// the current wall-clock time: the log records neither who died nor when.
func (d *Death) Completions(s Snapshot) map[uuid.UUID]time.Time {
	if !s.DeathObserved(d.id) {
		return map[uuid.UUID]time.Time{}
	}
	return map[uuid.UUID]time.Time{s.MainPlayer(): time.Now()}
}

func (d *Death) Refresh(s Snapshot) {
	d.observed = s.DeathObserved(d.id)
	if d.observed {
		d.status = fmt.Sprintf("%s (died)", d.name)
	} else {
		d.status = d.name
	}
}

// Pickup is an item whose pickup/drop counters the statistics pass tracks.
// Pickups have no completion notion of their own, so their completion query
// is empty; presentation layers read the counters off the snapshot instead.
type Pickup struct {
	id   string
	name string
}

func (p *Pickup) ObjectiveID() string { return p.id }
func (p *Pickup) DisplayName() string { return p.name }
func (p *Pickup) Status() string      { return p.name }

func (p *Pickup) Completions(Snapshot) map[uuid.UUID]time.Time {
	return map[uuid.UUID]time.Time{}
}
