package trade

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jwebster45206/barter-engine/pkg/actor"
	"github.com/jwebster45206/barter-engine/pkg/item"
)

// Trader is anyone who can hand over and receive goods.
type Trader interface {
	ID() string
	Name() string
	Intelligence() int
	SkillLevel(skill string) int
	Practice(skill string, amount int)

	Inventory() []item.Stack
	WieldedItem() *item.Item
	NearbyItems(radius int) []*item.Item
	Receive(it *item.Item)
	Holds(it *item.Item) bool
	Detach(it *item.Item) bool

	WeightCapacity() int64
	VolumeCapacity() int64
	WeightCarried() int64
	VolumeCarried() int64
}

// Counterparty is the NPC side of a trade: it values goods, decides what it
// will buy and sell, and remembers debts.
type Counterparty interface {
	Trader

	Value(it *item.Item, marketPrice int) int
	WantsToSell(it *item.Item, value, marketPrice int) bool
	WantsToBuy(it *item.Item, value, marketPrice int) bool

	FreelyExchanges() bool
	IsShopkeeper() bool
	MaxCreditExtended() int
	MaxWillingToOwe() int
	Currency() string

	Owed() int
	SetOwed(owed int)
}

// PriceAdjustment is the factor applied to what the buyer pays the seller.
// It never drops below 1 so nothing sells under its value.
func PriceAdjustment(buyer, seller Trader, econ Economy) float64 {
	adjust := econ.IntelligenceFactor*float64(seller.Intelligence()-buyer.Intelligence()) +
		econ.SkillFactor(seller.SkillLevel(actor.SkillBarter)-buyer.SkillLevel(actor.SkillBarter))
	return max(adjust, 1.0)
}

// CollectSellOffers lists what the counterparty is willing to sell from its
// inventory, priced at its own valuation. A counterparty that exchanges
// freely also offers its wielded item unless it cannot be put down.
func CollectSellOffers(seller Counterparty) []*Offer {
	var offers []*Offer
	for _, stack := range seller.Inventory() {
		it := stack.Front()
		if it.IsNull() {
			continue
		}
		market := it.PriceOf(true)
		value := seller.Value(it, market)
		if seller.WantsToSell(it, value, market) {
			offers = append(offers, newOffer(stack, value, len(stack)))
		}
	}

	if seller.FreelyExchanges() {
		if w := seller.WieldedItem(); !w.IsNull() && !w.HasFlag(item.FlagNoUnwield) {
			offers = append(offers, newOffer([]*item.Item{w}, seller.Value(w, w.PriceOf(true)), 0))
		}
	}
	return offers
}

// CollectBuyOffers lists the seller's goods that change hands in a trade
// with the counterparty np, who is either the seller or the buyer. Goods
// are valued by np and kept when np wants to buy them or, when np is the
// seller, wants to sell them. Prices carry the buyer/seller adjustment
// except for np's faction currency. A shopkeeper's trade also reaches the
// seller's loose goods within pickup range.
func CollectBuyOffers(buyer, seller Trader, np Counterparty, counterpartyIsSeller bool, econ Economy) []*Offer {
	adjust := PriceAdjustment(buyer, seller, econ)
	currency := np.Currency()

	var offers []*Offer
	check := func(locs []*item.Item, count int) {
		if len(locs) == 0 {
			return
		}
		it := locs[0]
		if it.IsNull() || !it.IsOwnedBy(seller.ID()) {
			return
		}
		market := it.PriceOf(true)
		value := np.Value(it, market)
		if (counterpartyIsSeller && np.WantsToSell(it, value, market)) || np.WantsToBuy(it, value, market) {
			o := newOffer(locs, value, count)
			o.adjust(adjust, currency)
			offers = append(offers, o)
		}
	}

	for _, stack := range seller.Inventory() {
		check(stack, len(stack))
	}
	if w := seller.WieldedItem(); w != nil && !w.HasFlag(item.FlagNoUnwield) {
		check([]*item.Item{w}, 1)
	}
	if np.IsShopkeeper() {
		for _, it := range seller.NearbyItems(econ.PickupRange) {
			check([]*item.Item{it}, 1)
		}
	}

	SortOffers(offers)
	return offers
}

// SortOffers orders offers by category, then by display name using English
// collation.
func SortOffers(offers []*Offer) {
	coll := collate.New(language.English, collate.Loose)
	slices.SortStableFunc(offers, func(a, b *Offer) int {
		ca, cb := a.Front().Category, b.Front().Category
		if ca.SortRank != cb.SortRank {
			return ca.SortRank - cb.SortRank
		}
		if c := coll.CompareString(ca.Name, cb.Name); c != 0 {
			return c
		}
		return coll.CompareString(a.Front().DisplayName(), b.Front().DisplayName())
	})
}

var _ Counterparty = (*actor.Character)(nil)
