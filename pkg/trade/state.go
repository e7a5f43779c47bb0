package trade

// State is the ledger of one negotiation. Balance is in cents: positive when
// the counterparty owes the player. VolumeLeft and WeightLeft track the
// counterparty's free carrying capacity and go negative when overloaded.
type State struct {
	Theirs  []*Offer
	Yours   []*Offer
	Balance int

	VolumeLeft int64 // ml
	WeightLeft int64 // g
}

// List returns the offers of one side.
func (s *State) List(side Side) []*Offer {
	if side == Theirs {
		return s.Theirs
	}
	return s.Yours
}

// SetupState prices both sides of a trade with np. cost is what the player
// owes for a service before any goods change hands.
func SetupState(cost int, player Trader, np Counterparty, econ Economy) *State {
	s := &State{
		Theirs: CollectBuyOffers(player, np, np, true, econ),
		Yours:  CollectBuyOffers(np, player, np, false, econ),
	}
	if !np.FreelyExchanges() {
		s.Balance = np.Owed() - cost
	}

	if np.IsShopkeeper() {
		s.VolumeLeft = econ.ShopVolumeML
		s.WeightLeft = econ.ShopWeightG
	} else {
		s.VolumeLeft = np.VolumeCapacity() - np.VolumeCarried()
		s.WeightLeft = np.WeightCapacity() - np.WeightCarried()
	}
	return s
}

// WillAcceptTrade reports whether np agrees to the current balance.
func WillAcceptTrade(s *State, np Counterparty) bool {
	return np.FreelyExchanges() || s.Balance+np.MaxCreditExtended() > 0
}

// SettleOwedDebt returns the debt np will remember after the trade. A
// counterparty never remembers owing more than it is willing to, but keeps
// a larger debt it already carried.
func SettleOwedDebt(s *State, np Counterparty) int {
	if np.FreelyExchanges() {
		return 0
	}
	owed, willing := np.Owed(), np.MaxWillingToOwe()
	if s.Balance > owed && s.Balance > willing {
		return max(owed, willing)
	}
	return s.Balance
}

// UpdateOwed stores the settled debt on np.
func UpdateOwed(s *State, np Counterparty) {
	np.SetOwed(SettleOwedDebt(s, np))
}

// CanCarry reports whether the counterparty has room for the goods.
func (s *State) CanCarry() bool {
	return s.VolumeLeft >= 0 && s.WeightLeft >= 0
}

// ApplyChange sets the quantity of an offer on side, clamped to its bounds,
// and updates the balance and free capacity. Balance is untouched when the
// counterparty exchanges freely. It reports whether anything changed.
func (s *State) ApplyChange(side Side, o *Offer, amount int, freely bool) bool {
	amount = min(max(amount, 0), o.MaxAmount())
	current := o.Amount(side)
	if amount == current {
		return false
	}
	o.setAmount(side, amount)
	o.Selected = amount > 0

	if !freely {
		s.Balance += o.Contribution(side, amount) - o.Contribution(side, current)
	}
	if o.carried() {
		delta := side.capacitySign() * int64(amount-current)
		s.VolumeLeft += o.Volume * delta
		s.WeightLeft += o.Weight * delta
	}
	return true
}

// Toggle deselects a selected offer, or selects amount units of it.
func (s *State) Toggle(side Side, o *Offer, amount int, freely bool) bool {
	if o.Selected {
		return s.ApplyChange(side, o, 0, freely)
	}
	return s.ApplyChange(side, o, amount, freely)
}

// AmountHint suggests a quantity for the quantity prompt. A positive hint is
// how many of their goods the current credit buys; a negative hint is how
// many of your goods are needed to clear the debt.
func (s *State) AmountHint(side Side, o *Offer) int {
	if o.Price <= 0 {
		return 0
	}
	balance := float64(s.Balance)
	switch {
	case side == Theirs && s.Balance > 0:
		return int(balance / o.Price)
	case side == Yours && s.Balance < 0:
		amount := int(balance / o.Price)
		if float64(amount)*o.Price != balance {
			amount--
		}
		return amount
	}
	return 0
}
