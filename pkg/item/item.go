package item

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// FlagNoUnwield marks a wielded item that cannot be put down or traded away.
const FlagNoUnwield = "NO_UNWIELD"

// Where describes where an item physically is.
type Where string

const (
	WhereCharacter Where = "character" // carried by someone
	WhereGround    Where = "ground"
	WhereVehicle   Where = "vehicle"
)

// Category groups items for sorting and category-wide selection.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SortRank int    `json:"sort_rank,omitempty"`
}

// Item is a single physical item instance. Items counted by charges (ammo,
// food portions, cash) carry Charges > 0 and per-charge price/weight/volume.
type Item struct {
	ID          uuid.UUID `json:"id"`
	TypeID      string    `json:"type"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	Description string    `json:"description,omitempty"`

	// Prices are in cents per unit (per charge when counted by charges).
	Price       int `json:"price"`
	MarketPrice int `json:"market_price"`

	Charges   int     `json:"charges,omitempty"`
	Container bool    `json:"container,omitempty"`
	Contents  []*Item `json:"contents,omitempty"`

	// Weight (grams) and Volume (millilitres) per unit.
	Weight int64 `json:"weight_g"`
	Volume int64 `json:"volume_ml"`

	Owner string   `json:"owner,omitempty"`
	Flags []string `json:"flags,omitempty"`

	Where Where  `json:"where,omitempty"`
	Place string `json:"place,omitempty"` // human readable location for items not carried
}

// Stack is a run of identical items held together in an inventory slot.
type Stack []*Item

// Front returns the representative item of the stack, or nil.
func (s Stack) Front() *Item {
	if len(s) == 0 {
		return nil
	}
	return s[0]
}

// New creates an item of the given type with a fresh instance ID.
func New(typeID, name string, category Category) *Item {
	return &Item{
		ID:       uuid.New(),
		TypeID:   typeID,
		Name:     name,
		Category: category,
	}
}

// EnsureID assigns an instance ID to items loaded without one.
func (it *Item) EnsureID() {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	for _, c := range it.Contents {
		c.EnsureID()
	}
}

// CountByCharges reports whether quantity is tracked in charges.
func (it *Item) CountByCharges() bool {
	return it.Charges > 0
}

// Count returns the number of charges, or 1 for items not counted by charges.
func (it *Item) Count() int {
	if it.Charges > 0 {
		return it.Charges
	}
	return 1
}

// IsNull reports whether the item reference is unusable for trading.
func (it *Item) IsNull() bool {
	return it == nil || it.TypeID == ""
}

// PriceOf returns the total price of the item including its contents.
// marketOnly selects the post-collapse market price instead of the list price.
func (it *Item) PriceOf(marketOnly bool) int {
	unit := it.Price
	if marketOnly {
		unit = it.MarketPrice
	}
	total := unit * it.Count()
	for _, c := range it.Contents {
		total += c.PriceOf(marketOnly)
	}
	return total
}

// TotalWeight returns the weight of the whole item (all charges and contents).
func (it *Item) TotalWeight() int64 {
	total := it.Weight * int64(it.Count())
	for _, c := range it.Contents {
		total += c.TotalWeight()
	}
	return total
}

// TotalVolume returns the volume of the whole item. Contents do not add
// volume to a container.
func (it *Item) TotalVolume() int64 {
	return it.Volume * int64(it.Count())
}

// IsOwnedBy reports whether the item belongs to the given owner. Unowned
// items belong to whoever carries them, so an empty owner matches anyone.
func (it *Item) IsOwnedBy(owner string) bool {
	return it.Owner == "" || it.Owner == owner
}

// SetOwner sets the owner of the item and everything inside it.
func (it *Item) SetOwner(owner string) {
	it.Owner = owner
	for _, c := range it.Contents {
		c.SetOwner(owner)
	}
}

// HasFlag reports whether the item carries the given flag.
func (it *Item) HasFlag(flag string) bool {
	return slices.Contains(it.Flags, flag)
}

// Split removes qty charges from the item and returns them as a new item.
// It fails for items not counted by charges and for quantities that would
// leave nothing behind.
func (it *Item) Split(qty int) (*Item, error) {
	if !it.CountByCharges() {
		return nil, errors.New("item is not counted by charges")
	}
	if qty <= 0 || qty >= it.Charges {
		return nil, fmt.Errorf("cannot split %d charges from %d", qty, it.Charges)
	}
	split := *it
	split.ID = uuid.New()
	split.Charges = qty
	split.Flags = slices.Clone(it.Flags)
	split.Contents = nil
	it.Charges -= qty
	return &split, nil
}

// DisplayName is the name shown in lists: charges and container contents
// are included.
func (it *Item) DisplayName() string {
	name := it.Name
	if it.Container && len(it.Contents) > 0 {
		name = fmt.Sprintf("%s > %s", name, it.Contents[0].DisplayName())
	}
	if it.CountByCharges() {
		name = fmt.Sprintf("%s (%d)", name, it.Charges)
	}
	return name
}

// TypeName returns the type name used in quantity prompts.
func (it *Item) TypeName() string {
	return it.Name
}

// Contained returns the first item inside a container, or the item itself.
func (it *Item) Contained() *Item {
	if len(it.Contents) > 0 {
		return it.Contents[0]
	}
	return it
}

// DescribeLocation returns a short description of where a loose item lies.
func (it *Item) DescribeLocation() string {
	if it.Place != "" {
		return it.Place
	}
	switch it.Where {
	case WhereGround:
		return "on the ground"
	case WhereVehicle:
		return "in a vehicle"
	default:
		return "carried"
	}
}

// Info returns the long description shown by the examine popup.
func (it *Item) Info() string {
	var sb strings.Builder
	sb.WriteString(it.DisplayName())
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Category: %s\n", it.Category.Name))
	sb.WriteString(fmt.Sprintf("Weight: %.2f kg  Volume: %.2f L\n",
		float64(it.TotalWeight())/1000, float64(it.TotalVolume())/1000))
	if it.CountByCharges() {
		sb.WriteString(fmt.Sprintf("Charges: %d\n", it.Charges))
	}
	if len(it.Contents) > 0 {
		sb.WriteString("Contains:\n")
		for _, c := range it.Contents {
			sb.WriteString("  " + c.DisplayName() + "\n")
		}
	}
	if len(it.Flags) > 0 {
		sb.WriteString("Flags: " + strings.Join(it.Flags, ", ") + "\n")
	}
	if it.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(it.Description)
	}
	return sb.String()
}
