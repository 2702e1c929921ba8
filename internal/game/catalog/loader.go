package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var embedded embed.FS

// document is the shape of a single content file. Any file may carry any
// subset of sections; sections from all files are merged.
type document struct {
	Items          []Item            `yaml:"items"`
	Materials      []Material        `yaml:"materials"`
	Spells         []Spell           `yaml:"spells"`
	Locations      []Location        `yaml:"locations"`
	Enemies        []EnemyDefinition `yaml:"enemies"`
	EncounterPools []EncounterPool   `yaml:"encounter_pools"`
	ItemLevels     []LevelTable      `yaml:"item_levels"`
	Recipes        []Recipe          `yaml:"recipes"`
	Party          []PartyMember     `yaml:"party"`
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "content")
	if err != nil {
		return nil, err
	}
	return Load(sub)
})

// Default returns the catalog built from the embedded game content.
//
// Postcondition: Returns the same validated *Catalog on every call. Panics if
// the embedded content is invalid.
func Default() *Catalog {
	c, err := loadDefault()
	if err != nil {
		panic("catalog: embedded content is invalid: " + err.Error())
	}
	return c
}

// LoadDir reads every *.yaml and *.yml file in dir into a validated Catalog.
//
// Precondition: dir is a readable directory path.
// Postcondition: Returns a validated Catalog or a non-nil error.
func LoadDir(dir string) (*Catalog, error) {
	return Load(os.DirFS(dir))
}

// Load reads every *.yaml and *.yml file at the root of fsys in lexical order,
// registers its content and validates cross references.
//
// Postcondition: Returns a validated Catalog, or an error naming the first
// failing file, or an error listing every validation violation.
func Load(fsys fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("catalog: reading content dir: %w", err)
	}

	c := New()
	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("catalog: reading %q: %w", entry.Name(), err)
		}
		var doc document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("catalog: parsing %q: %w", entry.Name(), err)
		}
		if err := c.register(doc); err != nil {
			return nil, fmt.Errorf("catalog: loading %q: %w", entry.Name(), err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) register(doc document) error {
	var errs []error
	for _, it := range doc.Items {
		errs = append(errs, c.RegisterItem(it))
	}
	for _, m := range doc.Materials {
		errs = append(errs, c.RegisterMaterial(m))
	}
	for _, s := range doc.Spells {
		errs = append(errs, c.RegisterSpell(s))
	}
	for _, l := range doc.Locations {
		errs = append(errs, c.RegisterLocation(l))
	}
	for _, d := range doc.Enemies {
		errs = append(errs, c.RegisterEnemy(d))
	}
	for _, p := range doc.EncounterPools {
		errs = append(errs, c.RegisterPool(p))
	}
	for _, t := range doc.ItemLevels {
		errs = append(errs, c.RegisterLevelTable(t))
	}
	for _, r := range doc.Recipes {
		errs = append(errs, c.RegisterRecipe(r))
	}
	for _, m := range doc.Party {
		c.AddPartyMember(m)
	}
	return errors.Join(errs...)
}

// Validate checks every definition and cross reference in the catalog.
//
// Postcondition: Returns nil if the catalog is consistent, or an error
// describing all violations.
func (c *Catalog) Validate() error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	for _, id := range c.ItemIDs() {
		it := c.items[id]
		if it.Name == "" {
			add("item %q: name must not be empty", id)
		}
		if !it.Slot.Valid() {
			add("item %q: unknown slot %q", id, it.Slot)
		}
		if it.Atk < 0 || it.Defense < 0 || it.MP < 0 {
			add("item %q: stat bonuses must be >= 0", id)
		}
	}
	for id, s := range c.spells {
		if s.MPMax < 0 || s.Damage < 0 {
			add("spell %q: mp_max and damage must be >= 0", id)
		}
	}
	for _, id := range c.LocationIDs() {
		l := c.locations[id]
		if _, ok := c.pools[l.EncounterPool]; !ok {
			add("location %q: unknown encounter pool %q", id, l.EncounterPool)
		}
	}
	for id, d := range c.enemies {
		if d.MaxHP < 1 {
			add("enemy %q: max_hp must be >= 1", id)
		}
		if d.CooldownS <= 0 {
			add("enemy %q: cooldown_s must be > 0", id)
		}
		errs = append(errs, c.validateDrops("enemy "+id, d.Drops)...)
	}
	for id, p := range c.pools {
		for i, t := range p.Templates {
			where := fmt.Sprintf("pool %q template[%d]", id, i)
			if t.EnemyID != "" {
				if _, ok := c.enemies[t.EnemyID]; !ok {
					add("%s: unknown enemy_id %q", where, t.EnemyID)
				}
			}
			if t.Level != nil && *t.Level < 1 {
				add("%s: level must be >= 1", where)
			}
			if t.CooldownS != nil && *t.CooldownS <= 0 {
				add("%s: cooldown_s must be > 0", where)
			}
			errs = append(errs, c.validateDrops(where, t.Drops)...)
		}
	}
	for id, t := range c.levels {
		if _, ok := c.items[id]; !ok {
			add("item_levels %q: unknown item", id)
		}
		// Requirements are sorted by level on registration.
		for i, r := range t.Requirements {
			if r.Level < 2 {
				add("item_levels %q: level %d must be >= 2", id, r.Level)
			} else if r.Level != i+2 {
				add("item_levels %q: levels must run 2..%d without gaps or repeats, found %d at position %d",
					id, len(t.Requirements)+1, r.Level, i+1)
			}
			if r.ItemCost < 0 {
				add("item_levels %q level %d: item_cost must be >= 0", id, r.Level)
			}
			errs = append(errs, c.validateCosts(fmt.Sprintf("item_levels %q level %d", id, r.Level), r.Materials)...)
		}
	}
	for id, r := range c.recipes {
		if _, ok := c.items[r.Output]; !ok {
			add("recipe %q: unknown output item %q", id, r.Output)
		}
		errs = append(errs, c.validateCosts("recipe "+id, r.Materials)...)
	}
	for i, m := range c.party {
		if m.Name == "" {
			add("party[%d]: name must not be empty", i)
		}
		if m.CooldownS < 0 {
			add("party[%d]: cooldown_s must be >= 0", i)
		}
		if m.SpellID != "" {
			if _, ok := c.spells[m.SpellID]; !ok {
				add("party[%d]: unknown spell %q", i, m.SpellID)
			}
		}
		for _, itemID := range m.Loadout {
			if _, ok := c.items[itemID]; !ok {
				add("party[%d]: unknown loadout item %q", i, itemID)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Catalog) validateDrops(where string, drops []Drop) []string {
	var errs []string
	for i, d := range drops {
		switch {
		case d.ItemID != "" && d.MaterialID != "":
			errs = append(errs, fmt.Sprintf("%s drop[%d]: item and material are mutually exclusive", where, i))
		case d.ItemID != "":
			if _, ok := c.items[d.ItemID]; !ok {
				errs = append(errs, fmt.Sprintf("%s drop[%d]: unknown item %q", where, i, d.ItemID))
			}
		case d.MaterialID != "":
			if _, ok := c.materials[d.MaterialID]; !ok {
				errs = append(errs, fmt.Sprintf("%s drop[%d]: unknown material %q", where, i, d.MaterialID))
			}
		default:
			errs = append(errs, fmt.Sprintf("%s drop[%d]: item or material is required", where, i))
		}
		if d.Chance < 0 || d.Chance > 1 {
			errs = append(errs, fmt.Sprintf("%s drop[%d]: chance must be in [0, 1], got %v", where, i, d.Chance))
		}
		if d.Amount < 0 {
			errs = append(errs, fmt.Sprintf("%s drop[%d]: amount must be >= 0", where, i))
		}
	}
	return errs
}

func (c *Catalog) validateCosts(where string, costs map[string]int) []string {
	var errs []string
	for id, n := range costs {
		if _, ok := c.materials[id]; !ok {
			errs = append(errs, fmt.Sprintf("%s: unknown material %q", where, id))
		}
		if n < 1 {
			errs = append(errs, fmt.Sprintf("%s: material %q cost must be >= 1", where, id))
		}
	}
	return errs
}
