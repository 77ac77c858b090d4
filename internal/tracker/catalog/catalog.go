package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Category selects which objective set is authoritative for a run.
type Category string

const (
	AllAdvancements Category = "all_advancements"
	AllAchievements Category = "all_achievements"
	AllBlocks       Category = "all_blocks"
)

// Catalog holds the version-specific objective definitions. The definitions
// themselves are loaded once at startup and never change, but each
// objective carries derived display state that the tracker refreshes after
// every publish; readers of that state must not race RefreshStates.
type Catalog struct {
	Category Category
	Version  string

	Advancements map[string]*Advancement
	Blocks       map[string]*Block
	Deaths       map[string]*Death
	Pickups      map[string]*Pickup

	// Stable iteration orders (sorted by id).
	AdvancementOrder []string
	BlockOrder       []string
	DeathOrder       []string
	PickupOrder      []string

	// sha256 of the raw definition files, kept for provenance.
	Digests map[string]string
}

type advancementDef struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Criteria []criterionDef `json:"criteria,omitempty"`
}

type criterionDef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type blockDef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type deathDef struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Messages []string `json:"messages"`
}

type pickupDef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Load reads the objective definitions for one category/version pair from
// configDir/<version>/. Advancement-shaped definitions come from
// advancements.json, or achievements.json for the legacy ruleset. Blocks,
// deaths and pickups are optional per version; a missing file just yields an
// empty set, matching game versions that predate those objective kinds.
func Load(configDir string, category Category, version string) (*Catalog, error) {
	c := &Catalog{
		Category:     category,
		Version:      version,
		Advancements: map[string]*Advancement{},
		Blocks:       map[string]*Block{},
		Deaths:       map[string]*Death{},
		Pickups:      map[string]*Pickup{},
		Digests:      map[string]string{},
	}

	dir := filepath.Join(configDir, version)

	advFile := "advancements.json"
	if category == AllAchievements {
		advFile = "achievements.json"
	}
	if err := c.loadAdvancements(filepath.Join(dir, advFile)); err != nil {
		return nil, err
	}
	if err := c.loadBlocks(filepath.Join(dir, "blocks.json")); err != nil {
		return nil, err
	}
	if err := c.loadDeaths(filepath.Join(dir, "deaths.json")); err != nil {
		return nil, err
	}
	if err := c.loadPickups(filepath.Join(dir, "pickups.json")); err != nil {
		return nil, err
	}

	c.AdvancementOrder = sortedKeys(c.Advancements)
	c.BlockOrder = sortedKeys(c.Blocks)
	c.DeathOrder = sortedKeys(c.Deaths)
	c.PickupOrder = sortedKeys(c.Pickups)
	return c, nil
}

func (c *Catalog) loadAdvancements(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.Digests[filepath.Base(path)] = sha256Hex(raw)

	var defs []advancementDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("%s: empty id", filepath.Base(path))
		}
		adv := &Advancement{id: d.ID, name: d.Name}
		for _, cd := range d.Criteria {
			if cd.ID == "" {
				return fmt.Errorf("%s: advancement %s: empty criterion id", filepath.Base(path), d.ID)
			}
			adv.Criteria = append(adv.Criteria, &Criterion{id: cd.ID, name: cd.Name, owner: adv})
		}
		c.Advancements[d.ID] = adv
	}
	return nil
}

func (c *Catalog) loadBlocks(path string) error {
	var defs []blockDef
	ok, err := c.loadOptional(path, &defs)
	if err != nil || !ok {
		return err
	}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("blocks.json: empty id")
		}
		c.Blocks[d.ID] = &Block{id: d.ID, name: d.Name}
	}
	return nil
}

func (c *Catalog) loadDeaths(path string) error {
	var defs []deathDef
	ok, err := c.loadOptional(path, &defs)
	if err != nil || !ok {
		return err
	}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("deaths.json: empty id")
		}
		if len(d.Messages) == 0 {
			return fmt.Errorf("deaths.json: death %s has no messages", d.ID)
		}
		c.Deaths[d.ID] = &Death{id: d.ID, name: d.Name, Messages: d.Messages}
	}
	return nil
}

func (c *Catalog) loadPickups(path string) error {
	var defs []pickupDef
	ok, err := c.loadOptional(path, &defs)
	if err != nil || !ok {
		return err
	}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("pickups.json: empty id")
		}
		c.Pickups[d.ID] = &Pickup{id: d.ID, name: d.Name}
	}
	return nil
}

// loadOptional reads and unmarshals path into out. A missing file is not an
// error; it reports ok=false and leaves out untouched.
func (c *Catalog) loadOptional(path string, out any) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	c.Digests[filepath.Base(path)] = sha256Hex(raw)
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// TrackedItems returns the item ids whose pickup/drop counters the
// statistics pass follows: every pickup objective, extended with the block
// set when the block-collection ruleset is active.
func (c *Catalog) TrackedItems() []string {
	ids := append([]string(nil), c.PickupOrder...)
	if c.Category == AllBlocks {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			seen[id] = true
		}
		for _, id := range c.BlockOrder {
			if !seen[id] {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
	}
	return ids
}

// Advancement looks up a top-level advancement by id.
func (c *Catalog) Advancement(id string) (*Advancement, bool) {
	a, ok := c.Advancements[id]
	return a, ok
}

// Criterion looks up a criterion by owning advancement id and criterion id.
func (c *Catalog) Criterion(advID, critID string) (*Criterion, bool) {
	a, ok := c.Advancements[advID]
	if !ok {
		return nil, false
	}
	for _, crit := range a.Criteria {
		if crit.id == critID {
			return crit, true
		}
	}
	return nil, false
}

// RefreshStates updates every objective's derived display state from a
// freshly published snapshot. Called by the tracker after each sync pass.
func (c *Catalog) RefreshStates(s Snapshot) {
	for _, id := range c.AdvancementOrder {
		c.Advancements[id].Refresh(s)
	}
	for _, id := range c.BlockOrder {
		c.Blocks[id].Refresh(s)
	}
	for _, id := range c.DeathOrder {
		c.Deaths[id].Refresh(s)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
