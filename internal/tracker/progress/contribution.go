package progress

import (
	"time"

	"github.com/google/uuid"
)

// Contribution is one player's accumulated progress within a run. The sync
// routine is the only writer and only calls these with ids it has already
// validated against the catalogue, so no validation happens here.
type Contribution struct {
	PlayerID uuid.UUID `json:"uuid"`

	Advancements map[string]time.Time `json:"advancements"`
	Criteria     Set                  `json:"criteria"`
	Blocks       Set                  `json:"blocks"`

	ItemCounts map[string]int `json:"item_counts"`
	DropCounts map[string]int `json:"drop_counts"`

	HasGodApple bool `json:"has_god_apple"`
}

func NewContribution(id uuid.UUID) *Contribution {
	return &Contribution{
		PlayerID:     id,
		Advancements: map[string]time.Time{},
		Criteria:     Set{},
		Blocks:       Set{},
		ItemCounts:   map[string]int{},
		DropCounts:   map[string]int{},
	}
}

func (c *Contribution) AddAdvancement(id string, completed time.Time) {
	c.Advancements[id] = completed
}

func (c *Contribution) AddCriterion(advID, critID string) {
	c.Criteria.Add(CritKey(advID, critID))
}

func (c *Contribution) AddBlock(id string) {
	c.Blocks.Add(id)
}

func (c *Contribution) AddItemCount(item string, n int) {
	c.ItemCounts[item] += n
}

func (c *Contribution) AddDropCount(item string, n int) {
	c.DropCounts[item] += n
}

func (c *Contribution) IncludesBlock(id string) bool {
	return c.Blocks.Contains(id)
}
