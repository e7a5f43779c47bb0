package trade

import (
	"testing"

	"github.com/jwebster45206/barter-engine/pkg/actor"
	"github.com/jwebster45206/barter-engine/pkg/item"
)

var (
	catTools = item.Category{ID: "tools", Name: "Tools", SortRank: 1}
	catFood  = item.Category{ID: "food", Name: "Food", SortRank: 2}
	catCash  = item.Category{ID: "currency", Name: "Currency", SortRank: 0}
)

func newTestItem(typeID, name string, cat item.Category, price int) *item.Item {
	it := item.New(typeID, name, cat)
	it.Price = price
	it.MarketPrice = price
	it.Weight = 100
	it.Volume = 250
	return it
}

func newCharges(typeID, name string, cat item.Category, pricePerCharge, charges int) *item.Item {
	it := newTestItem(typeID, name, cat, pricePerCharge)
	it.Charges = charges
	it.Weight = 10
	it.Volume = 5
	return it
}

func stackOf(items ...*item.Item) item.Stack {
	return item.Stack(items)
}

func newPlayer(t *testing.T, inventory ...item.Stack) *actor.Character {
	t.Helper()
	c, err := actor.NewCharacterFromSpec(&actor.CharacterSpec{
		ID:        "player",
		Name:      "Player",
		Stats:     actor.Stats5e{Intelligence: 10},
		Capacity:  actor.Capacity{WeightG: 50_000, VolumeML: 50_000},
		Inventory: inventory,
	})
	if err != nil {
		t.Fatalf("Failed to build player: %v", err)
	}
	return c
}

func newNPC(t *testing.T, profile *actor.TradeProfile, inventory ...item.Stack) *actor.Character {
	t.Helper()
	if profile == nil {
		profile = &actor.TradeProfile{Disposition: actor.DispositionNeutral}
	}
	c, err := actor.NewCharacterFromSpec(&actor.CharacterSpec{
		ID:        "trader",
		Name:      "Trader",
		Stats:     actor.Stats5e{Intelligence: 10},
		Capacity:  actor.Capacity{WeightG: 10_000, VolumeML: 10_000},
		Inventory: inventory,
		Trade:     profile,
	})
	if err != nil {
		t.Fatalf("Failed to build NPC: %v", err)
	}
	return c
}

func findOffer(t *testing.T, offers []*Offer, typeID string) *Offer {
	t.Helper()
	for _, o := range offers {
		if o.Front().TypeID == typeID {
			return o
		}
	}
	t.Fatalf("No offer for %q", typeID)
	return nil
}
