package trade

import (
	"slices"

	"github.com/jwebster45206/barter-engine/pkg/item"
)

// Offer is one candidate item, or stack of identical items, proposed for
// trade. Price, Weight and Volume are per unit: per charge for items counted
// by charges, per item otherwise.
type Offer struct {
	Locs []*item.Item // Front is the representative item

	Price       float64
	IsContainer bool
	Count       int // Items in the stack when not counted by charges
	Charges     int // Divisible quantity; zero for whole-item offers
	Selected    bool

	// Amounts offered, indexed by Side. Has counts whole items, HasCharges
	// counts charges.
	Has        [2]int
	HasCharges [2]int

	Weight int64 // grams per unit
	Volume int64 // millilitres per unit
}

// newOffer builds an offer for a stack valued at value cents in total.
// The offer keeps its own copy of locs so settlement can detach items from
// the stack it was built from.
func newOffer(locs []*item.Item, value int, count int) *Offer {
	front := locs[0]
	o := &Offer{
		Locs:        slices.Clone(locs),
		Price:       float64(value),
		IsContainer: front.Container,
		Weight:      front.TotalWeight(),
		Volume:      front.TotalVolume(),
	}
	if o.IsContainer || front.Count() == 1 {
		o.Count = count
		return o
	}
	o.Charges = front.Count()
	o.Price /= float64(o.Charges)
	o.Weight = front.Weight
	o.Volume = front.Volume
	return o
}

// Front returns the representative item.
func (o *Offer) Front() *item.Item {
	if len(o.Locs) == 0 {
		return nil
	}
	return o.Locs[0]
}

// MaxAmount is the largest quantity that can be offered.
func (o *Offer) MaxAmount() int {
	if o.Charges > 0 {
		return o.Charges
	}
	return max(o.Count, 1)
}

// Amount returns the quantity currently offered on the given side.
func (o *Offer) Amount(side Side) int {
	if o.Charges > 0 {
		return o.HasCharges[side]
	}
	return o.Has[side]
}

func (o *Offer) setAmount(side Side, amount int) {
	if o.Charges > 0 {
		o.HasCharges[side] = amount
		return
	}
	o.Has[side] = amount
}

// adjust multiplies the price by the adjustment unless the item is the
// counterparty faction's currency, which always trades at face value.
func (o *Offer) adjust(adjustment float64, currency string) {
	if currency != "" && o.Front().TypeID == currency {
		return
	}
	o.Price *= adjustment
}

// Contribution is the balance change of offering amount units on side,
// relative to offering none. The product is truncated to whole cents so
// that balance changes do not depend on the order of quantity edits.
func (o *Offer) Contribution(side Side, amount int) int {
	return side.balanceSign() * int(o.Price*float64(amount))
}

// carried reports whether the offer's goods are on a person and so count
// against carrying capacity.
func (o *Offer) carried() bool {
	front := o.Front()
	return front != nil && front.Where == item.WhereCharacter
}

// SelectionMark summarizes how much of the offer is selected: "-" for none,
// "#" for part and "+" for all.
func (o *Offer) SelectionMark(side Side) string {
	switch amount := o.Amount(side); {
	case amount <= 0:
		return "-"
	case amount < o.MaxAmount():
		return "#"
	default:
		return "+"
	}
}
