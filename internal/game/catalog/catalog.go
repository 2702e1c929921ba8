package catalog

import (
	"fmt"
	"sort"
)

// Catalog holds all loaded content indexed by ID.
//
// A Catalog is immutable once loading completes and is safe for concurrent reads.
type Catalog struct {
	items     map[string]Item
	materials map[string]Material
	spells    map[string]Spell
	locations map[string]Location
	enemies   map[string]EnemyDefinition
	pools     map[string]EncounterPool
	levels    map[string]LevelTable
	recipes   map[string]Recipe
	party     []PartyMember
}

// New returns an empty Catalog.
//
// Postcondition: all internal maps are initialised.
func New() *Catalog {
	return &Catalog{
		items:     make(map[string]Item),
		materials: make(map[string]Material),
		spells:    make(map[string]Spell),
		locations: make(map[string]Location),
		enemies:   make(map[string]EnemyDefinition),
		pools:     make(map[string]EncounterPool),
		levels:    make(map[string]LevelTable),
		recipes:   make(map[string]Recipe),
	}
}

func duplicate(kind, id string) error {
	return fmt.Errorf("catalog: %s ID %q already registered", kind, id)
}

// RegisterItem adds it to the catalog.
//
// Postcondition: Item(it.ID) returns it; returns error if it.ID already registered.
func (c *Catalog) RegisterItem(it Item) error {
	if _, exists := c.items[it.ID]; exists {
		return duplicate(KindItem, it.ID)
	}
	c.items[it.ID] = it
	return nil
}

// RegisterMaterial adds m to the catalog.
func (c *Catalog) RegisterMaterial(m Material) error {
	if _, exists := c.materials[m.ID]; exists {
		return duplicate(KindMaterial, m.ID)
	}
	c.materials[m.ID] = m
	return nil
}

// RegisterSpell adds s to the catalog.
func (c *Catalog) RegisterSpell(s Spell) error {
	if _, exists := c.spells[s.ID]; exists {
		return duplicate(KindSpell, s.ID)
	}
	c.spells[s.ID] = s
	return nil
}

// RegisterLocation adds l to the catalog.
func (c *Catalog) RegisterLocation(l Location) error {
	if _, exists := c.locations[l.ID]; exists {
		return duplicate(KindLocation, l.ID)
	}
	c.locations[l.ID] = l
	return nil
}

// RegisterEnemy adds d to the catalog.
func (c *Catalog) RegisterEnemy(d EnemyDefinition) error {
	if _, exists := c.enemies[d.ID]; exists {
		return duplicate(KindEnemy, d.ID)
	}
	c.enemies[d.ID] = d
	return nil
}

// RegisterPool adds p to the catalog.
func (c *Catalog) RegisterPool(p EncounterPool) error {
	if _, exists := c.pools[p.ID]; exists {
		return duplicate(KindPool, p.ID)
	}
	c.pools[p.ID] = p
	return nil
}

// RegisterLevelTable adds t to the catalog.
func (c *Catalog) RegisterLevelTable(t LevelTable) error {
	if _, exists := c.levels[t.ItemID]; exists {
		return duplicate(KindLevels, t.ItemID)
	}
	sort.Slice(t.Requirements, func(i, j int) bool {
		return t.Requirements[i].Level < t.Requirements[j].Level
	})
	c.levels[t.ItemID] = t
	return nil
}

// RegisterRecipe adds r to the catalog.
func (c *Catalog) RegisterRecipe(r Recipe) error {
	if _, exists := c.recipes[r.ID]; exists {
		return duplicate(KindRecipe, r.ID)
	}
	c.recipes[r.ID] = r
	return nil
}

// AddPartyMember appends m to the starting party. Order is significant.
func (c *Catalog) AddPartyMember(m PartyMember) {
	c.party = append(c.party, m)
}

// Item returns the item definition for id.
//
// Postcondition: err is a *LookupError iff id is not registered.
func (c *Catalog) Item(id string) (Item, error) {
	it, ok := c.items[id]
	if !ok {
		return Item{}, &LookupError{Kind: KindItem, ID: id}
	}
	return it, nil
}

// Material returns the material definition for id.
func (c *Catalog) Material(id string) (Material, error) {
	m, ok := c.materials[id]
	if !ok {
		return Material{}, &LookupError{Kind: KindMaterial, ID: id}
	}
	return m, nil
}

// Spell returns the spell definition for id.
func (c *Catalog) Spell(id string) (Spell, error) {
	s, ok := c.spells[id]
	if !ok {
		return Spell{}, &LookupError{Kind: KindSpell, ID: id}
	}
	return s, nil
}

// Location returns the location for id.
func (c *Catalog) Location(id string) (Location, error) {
	l, ok := c.locations[id]
	if !ok {
		return Location{}, &LookupError{Kind: KindLocation, ID: id}
	}
	return l, nil
}

// Enemy returns the enemy definition for id.
func (c *Catalog) Enemy(id string) (EnemyDefinition, error) {
	d, ok := c.enemies[id]
	if !ok {
		return EnemyDefinition{}, &LookupError{Kind: KindEnemy, ID: id}
	}
	return d, nil
}

// Pool returns the encounter pool named id.
func (c *Catalog) Pool(id string) (EncounterPool, error) {
	p, ok := c.pools[id]
	if !ok {
		return EncounterPool{}, &LookupError{Kind: KindPool, ID: id}
	}
	return p, nil
}

// LevelTable returns the upgrade table for itemID. Items without a table
// yield an empty table whose MaxLevel is 1.
func (c *Catalog) LevelTable(itemID string) LevelTable {
	if t, ok := c.levels[itemID]; ok {
		return t
	}
	return LevelTable{ItemID: itemID}
}

// Recipe returns the synthesis recipe for id.
func (c *Catalog) Recipe(id string) (Recipe, error) {
	r, ok := c.recipes[id]
	if !ok {
		return Recipe{}, &LookupError{Kind: KindRecipe, ID: id}
	}
	return r, nil
}

// Party returns a copy of the starting party templates in order.
func (c *Catalog) Party() []PartyMember {
	out := make([]PartyMember, len(c.party))
	copy(out, c.party)
	return out
}

// ItemIDs returns every registered item id in sorted order.
func (c *Catalog) ItemIDs() []string { return sortedKeys(c.items) }

// MaterialIDs returns every registered material id in sorted order.
func (c *Catalog) MaterialIDs() []string { return sortedKeys(c.materials) }

// LocationIDs returns every registered location id in sorted order.
func (c *Catalog) LocationIDs() []string { return sortedKeys(c.locations) }

// RecipeIDs returns every registered recipe id in sorted order.
func (c *Catalog) RecipeIDs() []string { return sortedKeys(c.recipes) }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
