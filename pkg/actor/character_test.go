package actor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/barter-engine/pkg/item"
)

var tools = item.Category{ID: "tools", Name: "Tools"}

func newItem(typeID string) *item.Item {
	it := item.New(typeID, typeID, tools)
	it.Price = 100
	it.MarketPrice = 100
	it.Weight = 500
	it.Volume = 250
	return it
}

func newCharacter(t *testing.T, spec *CharacterSpec) *Character {
	t.Helper()
	c, err := NewCharacterFromSpec(spec)
	if err != nil {
		t.Fatalf("NewCharacterFromSpec failed: %v", err)
	}
	return c
}

func TestNewCharacterFromSpec_Defaults(t *testing.T) {
	c := newCharacter(t, &CharacterSpec{
		ID:    "mira",
		Name:  "Mira",
		Stats: Stats5e{Intelligence: 14},
		Attributes: map[string]int{
			SkillBarter: 3,
		},
	})

	if c.Actor == nil {
		t.Fatal("Expected Actor to be built")
	}
	if c.Actor.MaxHP() != 10 || c.Actor.AC() != 10 {
		t.Errorf("Expected default HP/AC of 10, got %d/%d", c.Actor.MaxHP(), c.Actor.AC())
	}
	if c.Intelligence() != 14 {
		t.Errorf("Expected intelligence 14, got %d", c.Intelligence())
	}
	if c.SkillLevel(SkillBarter) != 3 {
		t.Errorf("Expected barter 3, got %d", c.SkillLevel(SkillBarter))
	}
	if c.SkillLevel("lockpicking") != 0 {
		t.Errorf("Expected untrained skill to be 0")
	}
}

func TestNewCharacterFromSpec_NilSpec(t *testing.T) {
	if _, err := NewCharacterFromSpec(nil); err == nil {
		t.Error("Expected error for nil spec")
	}
}

func TestNewCharacterFromSpec_ClaimsCarriedItems(t *testing.T) {
	borrowed := newItem("lamp")
	borrowed.Owner = "neighbor"
	loose := newItem("crate")

	c := newCharacter(t, &CharacterSpec{
		ID:        "mira",
		Inventory: []item.Stack{{newItem("knife")}, {borrowed}},
		Nearby: []Cache{
			{Label: "shelf", Where: item.WhereGround, Distance: 2, Items: []*item.Item{loose}},
		},
	})

	inv := c.Inventory()
	assert.Equal(t, "mira", inv[0].Front().Owner)
	assert.Equal(t, item.WhereCharacter, inv[0].Front().Where)
	assert.Equal(t, "neighbor", inv[1].Front().Owner)
	assert.Equal(t, item.WhereGround, loose.Where)
	assert.Equal(t, "shelf", loose.Place)
	assert.Equal(t, "", loose.Owner, "loose goods are not claimed")
}

func TestLoadCharacter_UsesFilenameAsID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old_tom.json")
	data := `{"id":"ignored","name":"Old Tom","stats":{"intelligence":12},"capacity":{"weight_g":1000,"volume_ml":2000}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := LoadCharacter(path)
	require.NoError(t, err)
	assert.Equal(t, "old_tom", c.ID())
	assert.Equal(t, "Old Tom", c.Name())
	assert.Equal(t, int64(1000), c.WeightCapacity())
	assert.Equal(t, int64(2000), c.VolumeCapacity())
}

func TestLoadCharacter_Errors(t *testing.T) {
	if _, err := LoadCharacter(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	if _, err := LoadCharacter(path); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestCharacter_JSONRoundTrip(t *testing.T) {
	c := newCharacter(t, &CharacterSpec{
		ID:         "mira",
		Name:       "Mira",
		Stats:      Stats5e{Intelligence: 13},
		Attributes: map[string]int{SkillBarter: 2},
		Inventory:  []item.Stack{{newItem("knife")}},
	})

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var back Character
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "mira", back.ID())
	assert.Equal(t, 13, back.Intelligence())
	assert.Equal(t, 2, back.SkillLevel(SkillBarter))
	require.Len(t, back.Inventory(), 1)
	assert.Equal(t, c.Inventory()[0].Front().ID, back.Inventory()[0].Front().ID)
}

func TestCharacter_PracticeLevelsUp(t *testing.T) {
	c := newCharacter(t, &CharacterSpec{ID: "mira"})

	c.Practice(SkillBarter, 50)
	assert.Equal(t, 0, c.SkillLevel(SkillBarter))

	c.Practice(SkillBarter, 60)
	assert.Equal(t, 1, c.SkillLevel(SkillBarter))
	assert.Equal(t, 10, c.Spec.Practice[SkillBarter])

	// Level 2 needs 200 more.
	c.Practice(SkillBarter, 190)
	assert.Equal(t, 2, c.SkillLevel(SkillBarter))
	assert.Equal(t, 0, c.Spec.Practice[SkillBarter])

	c.Practice(SkillBarter, -40)
	assert.Equal(t, 0, c.Spec.Practice[SkillBarter])
}

func TestCharacter_ReceiveMergesStacks(t *testing.T) {
	c := newCharacter(t, &CharacterSpec{ID: "mira"})

	rope := newItem("rope")
	rope.Charges = 5
	rope.SetOwner("mira")
	c.Receive(rope)

	more := newItem("rope")
	more.Charges = 3
	more.SetOwner("mira")
	c.Receive(more)

	k1, k2 := newItem("knife"), newItem("knife")
	k1.SetOwner("mira")
	k2.SetOwner("mira")
	c.Receive(k1)
	c.Receive(k2)

	inv := c.Inventory()
	require.Len(t, inv, 2)
	assert.Equal(t, 8, inv[0].Front().Charges)
	assert.Len(t, inv[1], 2)
}

func TestCharacter_Detach(t *testing.T) {
	knife := newItem("knife")
	sword := newItem("sword")
	crate := newItem("crate")
	c := newCharacter(t, &CharacterSpec{
		ID:        "mira",
		Inventory: []item.Stack{{knife}},
		Wielded:   sword,
		Nearby:    []Cache{{Label: "yard", Where: item.WhereGround, Distance: 1, Items: []*item.Item{crate}}},
	})

	assert.True(t, c.Detach(knife))
	assert.Empty(t, c.Inventory())
	assert.True(t, c.Detach(sword))
	assert.Nil(t, c.WieldedItem())
	assert.True(t, c.Detach(crate))
	assert.Empty(t, c.NearbyItems(10))
	assert.False(t, c.Detach(knife))
}

func TestCharacter_NearbyItemsWithinRadius(t *testing.T) {
	near, far := newItem("lamp"), newItem("anvil")
	c := newCharacter(t, &CharacterSpec{
		ID: "mira",
		Nearby: []Cache{
			{Label: "counter", Where: item.WhereGround, Distance: 1, Items: []*item.Item{near}},
			{Label: "cart", Where: item.WhereVehicle, Distance: 8, Items: []*item.Item{far}},
		},
	})

	assert.Equal(t, []*item.Item{near}, c.NearbyItems(6))
	assert.Len(t, c.NearbyItems(8), 2)
}

func TestCharacter_CarriedTotals(t *testing.T) {
	c := newCharacter(t, &CharacterSpec{
		ID:        "mira",
		Inventory: []item.Stack{{newItem("knife"), newItem("knife")}},
		Wielded:   newItem("sword"),
	})

	assert.Equal(t, int64(1500), c.WeightCarried())
	assert.Equal(t, int64(500), c.VolumeCarried())
}

func TestCharacter_DropInvalidInventory(t *testing.T) {
	c := newCharacter(t, &CharacterSpec{
		ID:        "mira",
		Inventory: []item.Stack{{newItem("knife")}, {&item.Item{Name: "ghost"}}, {nil}},
	})

	c.DropInvalidInventory()
	require.Len(t, c.Inventory(), 1)
	assert.Equal(t, "knife", c.Inventory()[0].Front().TypeID)
}
