package actor

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jwebster45206/barter-engine/pkg/item"
	"github.com/jwebster45206/d20"
)

// SkillBarter is the attribute key of the bartering skill.
const SkillBarter = "barter"

// practicePerLevel is the practice needed to raise a skill by one level,
// multiplied by the next level.
const practicePerLevel = 100

// Stats5e represents the six core D&D 5e ability scores
type Stats5e struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// ToAttributes converts Stats5e to a map for d20.Actor compatibility
func (s *Stats5e) ToAttributes() map[string]int {
	return map[string]int{
		"strength":     s.Strength,
		"dexterity":    s.Dexterity,
		"constitution": s.Constitution,
		"intelligence": s.Intelligence,
		"wisdom":       s.Wisdom,
		"charisma":     s.Charisma,
	}
}

// Capacity is how much a character can carry.
type Capacity struct {
	WeightG  int64 `json:"weight_g"`
	VolumeML int64 `json:"volume_ml"`
}

// Cache is storage near a character: a counter, a shelf, a vehicle cargo bay.
type Cache struct {
	Label    string       `json:"label"`
	Where    item.Where   `json:"where"`
	Distance int          `json:"distance"`
	Items    []*item.Item `json:"items,omitempty"`
}

// CharacterSpec is the serializable specification for a character that can trade
type CharacterSpec struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Pronouns        string         `json:"pronouns,omitempty"`
	Description     string         `json:"description,omitempty"`
	FactionID       string         `json:"faction,omitempty"`
	Stats           Stats5e        `json:"stats"`
	HP              int            `json:"hp,omitempty"`
	MaxHP           int            `json:"max_hp,omitempty"`
	AC              int            `json:"ac,omitempty"`
	CombatModifiers map[string]int `json:"combat_modifiers,omitempty"`
	Attributes      map[string]int `json:"attributes,omitempty"` // Skills such as barter
	Practice        map[string]int `json:"practice,omitempty"`   // Progress towards the next skill level

	Capacity  Capacity     `json:"capacity"`
	Inventory []item.Stack `json:"inventory,omitempty"`
	Wielded   *item.Item   `json:"wielded,omitempty"`
	Nearby    []Cache      `json:"nearby,omitempty"`

	// Trade is nil for the player.
	Trade *TradeProfile `json:"trade,omitempty"`
}

// Character is the runtime representation of a player or NPC
type Character struct {
	Spec    *CharacterSpec
	Actor   *d20.Actor // Built at runtime from CharacterSpec
	Faction *Faction

	// Relationship is the NPC's memory of the player. Unused for the player.
	Relationship Relationship
}

// NewCharacterFromSpec creates a Character from a CharacterSpec
func NewCharacterFromSpec(spec *CharacterSpec) (*Character, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}

	spec.normalize()

	actor, err := buildActor(spec)
	if err != nil {
		return nil, err
	}

	return &Character{
		Spec:         spec,
		Actor:        actor,
		Relationship: Relationship{NPCID: spec.ID},
	}, nil
}

// LoadCharacter loads a character from a JSON file and builds its d20.Actor.
// The filename (without .json extension) overrides any ID in the JSON
func LoadCharacter(path string) (*Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read character file: %w", err)
	}

	var spec CharacterSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal character spec: %w", err)
	}

	spec.ID = strings.TrimSuffix(filepath.Base(path), ".json")

	return NewCharacterFromSpec(&spec)
}

func buildActor(spec *CharacterSpec) (*d20.Actor, error) {
	allAttrs := spec.Stats.ToAttributes()
	maps.Copy(allAttrs, spec.Attributes)

	builder := d20.NewActor(spec.ID).
		WithHP(spec.MaxHP).
		WithAC(spec.AC).
		WithAttributes(allAttrs)
	if len(spec.CombatModifiers) > 0 {
		builder = builder.WithCombatModifiers(spec.CombatModifiers)
	}
	actor, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	if spec.HP != spec.MaxHP && spec.HP > 0 {
		if err := actor.SetHP(spec.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return actor, nil
}

// normalize fills defaults and claims ownership of carried items.
func (spec *CharacterSpec) normalize() {
	if spec.MaxHP <= 0 {
		spec.MaxHP = 10
	}
	if spec.AC <= 0 {
		spec.AC = 10
	}
	if spec.Attributes == nil {
		spec.Attributes = make(map[string]int)
	}
	if spec.Practice == nil {
		spec.Practice = make(map[string]int)
	}
	for _, stack := range spec.Inventory {
		for _, it := range stack {
			if it == nil {
				continue
			}
			it.EnsureID()
			it.Where = item.WhereCharacter
			if it.Owner == "" {
				it.SetOwner(spec.ID)
			}
		}
	}
	if spec.Wielded != nil {
		spec.Wielded.EnsureID()
		spec.Wielded.Where = item.WhereCharacter
		if spec.Wielded.Owner == "" {
			spec.Wielded.SetOwner(spec.ID)
		}
	}
	for i := range spec.Nearby {
		cache := &spec.Nearby[i]
		for _, it := range cache.Items {
			if it == nil {
				continue
			}
			it.EnsureID()
			it.Where = cache.Where
			if it.Place == "" {
				it.Place = cache.Label
			}
		}
	}
}

// MarshalJSON writes the character spec, which holds all mutable state
// except attributes read back from the Actor.
func (c *Character) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	if c.Actor != nil {
		for key := range c.Spec.Attributes {
			if val, ok := c.Actor.Attribute(key); ok {
				c.Spec.Attributes[key] = val
			}
		}
	}
	return json.Marshal(c.Spec)
}

// UnmarshalJSON reconstructs a Character from JSON and rebuilds its Actor
func (c *Character) UnmarshalJSON(data []byte) error {
	var spec CharacterSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to unmarshal character spec: %w", err)
	}
	spec.normalize()

	actor, err := buildActor(&spec)
	if err != nil {
		return fmt.Errorf("failed to rebuild actor: %w", err)
	}
	c.Spec = &spec
	c.Actor = actor
	c.Relationship.NPCID = spec.ID
	return nil
}

func (c *Character) ID() string   { return c.Spec.ID }
func (c *Character) Name() string { return c.Spec.Name }

// Intelligence returns the current intelligence score.
func (c *Character) Intelligence() int {
	if c.Actor != nil {
		if v, ok := c.Actor.Attribute("intelligence"); ok {
			return v
		}
	}
	return c.Spec.Stats.Intelligence
}

// SkillLevel returns the level of a skill, 0 if untrained.
func (c *Character) SkillLevel(skill string) int {
	if c.Actor != nil {
		if v, ok := c.Actor.Attribute(skill); ok {
			return v
		}
	}
	return c.Spec.Attributes[skill]
}

// Practice adds practice towards a skill, raising it when enough has
// accumulated.
func (c *Character) Practice(skill string, amount int) {
	if amount <= 0 {
		return
	}
	c.Spec.Practice[skill] += amount
	leveled := false
	for {
		next := (c.Spec.Attributes[skill] + 1) * practicePerLevel
		if c.Spec.Practice[skill] < next {
			break
		}
		c.Spec.Practice[skill] -= next
		c.Spec.Attributes[skill]++
		leveled = true
	}
	if !leveled {
		return
	}
	if actor, err := buildActor(c.Spec); err == nil {
		c.Actor = actor
	}
}

// Inventory returns the carried stacks.
func (c *Character) Inventory() []item.Stack {
	return c.Spec.Inventory
}

// WieldedItem returns the item in hand, or nil.
func (c *Character) WieldedItem() *item.Item {
	return c.Spec.Wielded
}

// NearbyItems returns loose items in caches within radius tiles.
func (c *Character) NearbyItems(radius int) []*item.Item {
	var out []*item.Item
	for _, cache := range c.Spec.Nearby {
		if cache.Distance > radius {
			continue
		}
		out = append(out, cache.Items...)
	}
	return out
}

// Receive puts an item into the inventory, merging charges into an existing
// stack of the same type.
func (c *Character) Receive(it *item.Item) {
	if it == nil {
		return
	}
	it.Where = item.WhereCharacter
	it.Place = ""
	for i, stack := range c.Spec.Inventory {
		front := stack.Front()
		if front == nil || front.TypeID != it.TypeID || front.Owner != it.Owner {
			continue
		}
		if it.CountByCharges() && front.CountByCharges() && len(front.Contents) == 0 {
			front.Charges += it.Charges
			return
		}
		if !it.CountByCharges() && !front.CountByCharges() && len(it.Contents) == 0 && len(front.Contents) == 0 {
			c.Spec.Inventory[i] = append(stack, it)
			return
		}
	}
	c.Spec.Inventory = append(c.Spec.Inventory, item.Stack{it})
}

// Holds reports whether the item is somewhere Detach can take it from.
func (c *Character) Holds(it *item.Item) bool {
	if it == nil {
		return false
	}
	for _, stack := range c.Spec.Inventory {
		if slices.Contains(stack, it) {
			return true
		}
	}
	if c.Spec.Wielded == it {
		return true
	}
	for _, cache := range c.Spec.Nearby {
		if slices.Contains(cache.Items, it) {
			return true
		}
	}
	return false
}

// Detach removes an item from wherever the character keeps it: inventory,
// hands or nearby storage. It reports whether the item was found.
func (c *Character) Detach(it *item.Item) bool {
	for i, stack := range c.Spec.Inventory {
		idx := slices.Index(stack, it)
		if idx < 0 {
			continue
		}
		stack = slices.Delete(stack, idx, idx+1)
		if len(stack) == 0 {
			c.Spec.Inventory = slices.Delete(c.Spec.Inventory, i, i+1)
		} else {
			c.Spec.Inventory[i] = stack
		}
		return true
	}
	if c.Spec.Wielded == it {
		c.Spec.Wielded = nil
		return true
	}
	for i := range c.Spec.Nearby {
		cache := &c.Spec.Nearby[i]
		if idx := slices.Index(cache.Items, it); idx >= 0 {
			cache.Items = slices.Delete(cache.Items, idx, idx+1)
			return true
		}
	}
	return false
}

// DropInvalidInventory removes unusable entries from the inventory.
func (c *Character) DropInvalidInventory() {
	kept := c.Spec.Inventory[:0]
	for _, stack := range c.Spec.Inventory {
		stack = slices.DeleteFunc(stack, func(it *item.Item) bool {
			return it.IsNull() || it.Charges < 0
		})
		if len(stack) > 0 {
			kept = append(kept, stack)
		}
	}
	c.Spec.Inventory = kept
}

func (c *Character) WeightCapacity() int64 { return c.Spec.Capacity.WeightG }
func (c *Character) VolumeCapacity() int64 { return c.Spec.Capacity.VolumeML }

// WeightCarried sums the inventory and the wielded item.
func (c *Character) WeightCarried() int64 {
	var total int64
	for _, stack := range c.Spec.Inventory {
		for _, it := range stack {
			total += it.TotalWeight()
		}
	}
	if c.Spec.Wielded != nil {
		total += c.Spec.Wielded.TotalWeight()
	}
	return total
}

// VolumeCarried sums the inventory; a wielded item is held, not packed.
func (c *Character) VolumeCarried() int64 {
	var total int64
	for _, stack := range c.Spec.Inventory {
		for _, it := range stack {
			total += it.TotalVolume()
		}
	}
	return total
}
