package actor

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/barter-engine/pkg/item"
)

// Disposition values understood by the trade profile.
const (
	DispositionHostile  = "hostile"
	DispositionNeutral  = "neutral"
	DispositionFriendly = "friendly"
)

// TradeProfile describes how an NPC trades.
type TradeProfile struct {
	Disposition string `json:"disposition,omitempty"` // e.g. "hostile", "neutral", "friendly"
	Shopkeeper  bool   `json:"shopkeeper,omitempty"`
	Companion   bool   `json:"companion,omitempty"` // companions exchange items freely

	Buys   []string           `json:"buys,omitempty"`   // category IDs bought; empty means any
	Keeps  []string           `json:"keeps,omitempty"`  // category IDs never sold
	Demand map[string]float64 `json:"demand,omitempty"` // value multiplier per category ID

	MaxCredit int `json:"max_credit,omitempty"` // cents the NPC lets the player owe
	MaxOwe    int `json:"max_owe,omitempty"`    // cents the NPC is willing to owe the player

	Restock []*item.Item `json:"restock,omitempty"` // shop stock template
}

// Relationship is the NPC's persistent memory of the player.
// Owed is positive when the NPC owes the player and negative when the player
// owes the NPC.
type Relationship struct {
	NPCID     string    `json:"npc_id"`
	Owed      int       `json:"owed"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Character) profile() *TradeProfile {
	if c.Spec.Trade == nil {
		return &TradeProfile{}
	}
	return c.Spec.Trade
}

// FreelyExchanges reports whether the NPC trades without prices or debt.
func (c *Character) FreelyExchanges() bool {
	return c.profile().Companion
}

// IsShopkeeper reports whether the NPC runs a shop.
func (c *Character) IsShopkeeper() bool {
	return c.profile().Shopkeeper
}

// MaxCreditExtended is how far the NPC lets the player go into debt.
func (c *Character) MaxCreditExtended() int {
	p := c.profile()
	if p.Companion || p.Disposition == DispositionHostile {
		return 0
	}
	return max(p.MaxCredit, 0)
}

// MaxWillingToOwe is the largest debt to the player the NPC will remember.
func (c *Character) MaxWillingToOwe() int {
	p := c.profile()
	if p.Disposition == DispositionHostile {
		return 0
	}
	return max(p.MaxOwe, 0)
}

// Currency returns the item type the NPC's faction takes at face value.
func (c *Character) Currency() string {
	if c.Faction == nil {
		return ""
	}
	return c.Faction.Currency
}

func (c *Character) Owed() int        { return c.Relationship.Owed }
func (c *Character) SetOwed(owed int) { c.Relationship.Owed = owed }

// Value is what the item is worth to this NPC given its market price.
func (c *Character) Value(it *item.Item, marketPrice int) int {
	mult, ok := c.profile().Demand[it.Category.ID]
	if !ok || mult <= 0 {
		return marketPrice
	}
	return int(math.Round(float64(marketPrice) * mult))
}

// WantsToSell reports whether the NPC will part with the item.
func (c *Character) WantsToSell(it *item.Item, value, marketPrice int) bool {
	p := c.profile()
	if p.Companion {
		return true
	}
	if slices.Contains(p.Keeps, it.Category.ID) {
		return false
	}
	if p.Shopkeeper {
		return true
	}
	return marketPrice > 0 && value <= marketPrice
}

// WantsToBuy reports whether the NPC will take the item.
func (c *Character) WantsToBuy(it *item.Item, value, marketPrice int) bool {
	p := c.profile()
	if p.Companion {
		return true
	}
	if p.Disposition == DispositionHostile {
		return false
	}
	if len(p.Buys) > 0 && !slices.Contains(p.Buys, it.Category.ID) {
		return false
	}
	if p.Shopkeeper {
		return value > 0
	}
	return value > 0 && value >= marketPrice
}

// Restock refills a shop from its stock template. Template entries whose
// type is already in stock are skipped.
func (c *Character) Restock() int {
	p := c.profile()
	if !p.Shopkeeper {
		return 0
	}
	added := 0
	for _, tmpl := range p.Restock {
		if tmpl.IsNull() || c.hasType(tmpl.TypeID) {
			continue
		}
		fresh := *tmpl
		fresh.ID = uuid.Nil
		fresh.Contents = nil
		fresh.Flags = slices.Clone(tmpl.Flags)
		fresh.EnsureID()
		fresh.SetOwner(c.Spec.ID)
		c.Receive(&fresh)
		added++
	}
	return added
}

func (c *Character) hasType(typeID string) bool {
	for _, stack := range c.Spec.Inventory {
		if front := stack.Front(); front != nil && front.TypeID == typeID {
			return true
		}
	}
	return false
}
