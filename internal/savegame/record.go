package savegame

import (
	"encoding/json"
	"time"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
	"github.com/cory-johannsen/incremental/internal/game/character"
	"github.com/cory-johannsen/incremental/internal/game/inventory"
)

// timeLayout is RFC 3339 at second precision in UTC.
const timeLayout = "2006-01-02T15:04:05Z07:00"

// record is the persisted JSON document of one slot.
type record struct {
	Version    int             `json:"version"`
	SlotID     string          `json:"slot_id"`
	CreatedAt  string          `json:"created_at,omitempty"`
	UpdatedAt  string          `json:"updated_at,omitempty"`
	LocationID string          `json:"location_id,omitempty"`
	Inventory  inventoryRecord `json:"inventory"`
	Actors     []actorRecord   `json:"actors"`
	Summary    *summaryRecord  `json:"summary,omitempty"`
}

type summaryRecord struct {
	PartyNames []string `json:"party_names"`
	Munny      *int     `json:"munny"`
}

type inventoryRecord struct {
	Capacity    map[string]int      `json:"capacity"`
	ItemsBySlot map[string][]string `json:"items_by_slot"`
	ItemList    []string            `json:"item_list"`
	Munny       int                 `json:"munny"`
	Materials   map[string]int      `json:"materials"`
	ItemLevels  map[string]int      `json:"item_levels"`
}

type statsRecord struct {
	MaxHP   int `json:"max_hp"`
	Atk     int `json:"atk"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
	MPMax   int `json:"mp_max"`
}

// poolRecord fields are pointers so an absent value falls back to the stats.
type poolRecord struct {
	Current *int `json:"current"`
	Max     *int `json:"max"`
}

type attackProfileRecord struct {
	CooldownS float64 `json:"cooldown_s"`
	MPGain    int     `json:"mp_gain"`
}

type actorRecord struct {
	Name          string              `json:"name"`
	PortraitPath  string              `json:"portrait_path,omitempty"`
	Stats         statsRecord         `json:"stats"`
	Health        poolRecord          `json:"health"`
	Mana          poolRecord          `json:"mana"`
	MagicDamage   int                 `json:"magic_damage"`
	Level         int                 `json:"level"`
	XP            int                 `json:"xp"`
	XPToLevel     *int                `json:"xp_to_level"`
	SpellID       *string             `json:"spell_id"`
	AttackProfile attackProfileRecord `json:"attack_profile"`
	Equipment     map[string]string   `json:"equipment"`
	// EquipmentLevels is the level each equipped item's deltas were applied
	// at. Absent entries resolve at the item's stored level.
	EquipmentLevels map[string]int `json:"equipment_levels,omitempty"`
}

// UnmarshalJSON decodes over the default actor so absent keys keep defaults.
func (r *actorRecord) UnmarshalJSON(b []byte) error {
	type plain actorRecord
	d := character.DefaultActorParams("Actor")
	p := plain{
		Name:          d.Name,
		Stats:         statsRecord{MaxHP: d.MaxHP, Atk: d.Atk, Defense: d.Defense, Speed: d.Speed, MPMax: d.MPMax},
		MagicDamage:   character.DefaultMagicDamage,
		Level:         d.Level,
		AttackProfile: attackProfileRecord{CooldownS: d.Cooldown.Seconds(), MPGain: d.MPGain},
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = actorRecord(p)
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC().Truncate(time.Second)
}

func encodeInventory(inv *inventory.Inventory) inventoryRecord {
	snap := inv.Snapshot()
	rec := inventoryRecord{
		Capacity:    make(map[string]int, len(snap.Capacity)),
		ItemsBySlot: make(map[string][]string, len(snap.ItemsBySlot)),
		ItemList:    snap.ItemList,
		Munny:       snap.Munny,
		Materials:   snap.Materials,
		ItemLevels:  snap.ItemLevels,
	}
	for slot, n := range snap.Capacity {
		rec.Capacity[string(slot)] = n
	}
	for slot, ids := range snap.ItemsBySlot {
		rec.ItemsBySlot[string(slot)] = ids
	}
	if rec.ItemList == nil {
		rec.ItemList = []string{}
	}
	return rec
}

func decodeInventory(content inventory.Content, rec inventoryRecord) *inventory.Inventory {
	snap := inventory.Snapshot{
		Capacity:    make(map[catalog.Slot]int, len(rec.Capacity)),
		ItemsBySlot: make(map[catalog.Slot][]string, len(rec.ItemsBySlot)),
		ItemList:    rec.ItemList,
		Munny:       rec.Munny,
		Materials:   rec.Materials,
		ItemLevels:  rec.ItemLevels,
	}
	for raw, n := range rec.Capacity {
		if slot := catalog.Slot(raw); slot.Valid() {
			snap.Capacity[slot] = n
		}
	}
	for raw, ids := range rec.ItemsBySlot {
		if slot := catalog.Slot(raw); slot.Valid() {
			snap.ItemsBySlot[slot] = ids
		}
	}
	return inventory.Restore(content, snap)
}

func encodeActor(a *character.Combatant) actorRecord {
	ext := a.Actor
	health := poolRecord{Current: ptr(a.Health.Current), Max: ptr(a.Health.Max)}
	mana := poolRecord{Current: ptr(ext.Mana.Current), Max: ptr(ext.Mana.Max)}
	rec := actorRecord{
		Name:         a.Name,
		PortraitPath: a.PortraitPath,
		Stats: statsRecord{
			MaxHP:   a.Stats.MaxHP,
			Atk:     a.Stats.Atk,
			Defense: a.Stats.Defense,
			Speed:   a.Stats.Speed,
			MPMax:   a.Stats.MPMax,
		},
		Health:      health,
		Mana:        mana,
		MagicDamage: ext.MagicDamage,
		Level:       ext.Level,
		XP:          ext.XP,
		XPToLevel:   ptr(ext.XPToLevel),
		AttackProfile: attackProfileRecord{
			CooldownS: a.AttackProfile.Cooldown.Seconds(),
			MPGain:    a.AttackProfile.MPGain,
		},
		Equipment:       make(map[string]string),
		EquipmentLevels: make(map[string]int),
	}
	if ext.SpellID != "" {
		rec.SpellID = ptr(ext.SpellID)
	}
	for _, slot := range catalog.Slots {
		if e := ext.Equipment.Get(slot); e != nil {
			rec.Equipment[string(slot)] = e.ItemID
			rec.EquipmentLevels[string(slot)] = max(e.Level, 1)
		}
	}
	return rec
}

func ptr[T any](v T) *T { return &v }

func valueOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}
