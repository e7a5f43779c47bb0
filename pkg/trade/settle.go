package trade

import (
	"errors"
	"fmt"

	"github.com/jwebster45206/barter-engine/pkg/actor"
	"github.com/jwebster45206/barter-engine/pkg/item"
)

var (
	// ErrTradeRejected is returned when the counterparty will not accept the balance.
	ErrTradeRejected = errors.New("trade rejected by counterparty")
	// ErrOverCapacity is returned when the counterparty cannot carry its side of the deal.
	ErrOverCapacity = errors.New("counterparty cannot carry the goods")
	// ErrGoodsUnavailable is returned when selected goods are no longer where
	// the offer found them.
	ErrGoodsUnavailable = errors.New("goods are no longer available")
)

// Result summarizes a committed trade.
type Result struct {
	Given    int // offers handed to the counterparty
	Received int // offers taken from the counterparty
	Owed     int // debt the counterparty remembers afterwards
	Practice int // barter practice awarded to the player
}

// Commit settles a negotiated trade: goods change hands, the counterparty
// remembers the resulting debt and the player practices bartering. Nothing
// moves when the trade is rejected, the counterparty is overloaded or any
// selected goods can no longer be handed over.
func Commit(s *State, player Trader, np Counterparty, econ Economy) (Result, error) {
	if !WillAcceptTrade(s, np) {
		return Result{}, ErrTradeRejected
	}
	if !s.CanCarry() {
		return Result{}, ErrOverCapacity
	}
	if err := CheckTransfer(s.Yours, Yours, player); err != nil {
		return Result{}, fmt.Errorf("failed to transfer goods to %s: %w", np.Name(), err)
	}
	if err := CheckTransfer(s.Theirs, Theirs, np); err != nil {
		return Result{}, fmt.Errorf("failed to transfer goods from %s: %w", np.Name(), err)
	}

	var res Result
	var err error
	if res.Given, err = TransferItems(s.Yours, Yours, player, np); err != nil {
		return res, fmt.Errorf("failed to transfer goods to %s: %w", np.Name(), err)
	}
	if res.Received, err = TransferItems(s.Theirs, Theirs, np, player); err != nil {
		return res, fmt.Errorf("failed to transfer goods from %s: %w", np.Name(), err)
	}

	if np.FreelyExchanges() {
		return res, nil
	}
	UpdateOwed(s, np)
	res.Owed = np.Owed()
	if econ.PracticeDivisor > 0 {
		res.Practice = tradeVolume(s) / econ.PracticeDivisor
		player.Practice(actor.SkillBarter, res.Practice)
	}
	return res, nil
}

// tradeVolume is the total value of goods changing hands, in cents.
func tradeVolume(s *State) int {
	total := 0
	for _, side := range Sides {
		for _, o := range s.List(side) {
			if o.Selected {
				total += abs(o.Contribution(side, o.Amount(side)))
			}
		}
	}
	return total
}

// CheckTransfer reports whether TransferItems could move every selected
// offer on side without failing partway.
func CheckTransfer(offers []*Offer, side Side, giver Trader) error {
	for _, o := range offers {
		amount := o.Amount(side)
		if !o.Selected || amount <= 0 {
			continue
		}
		front := o.Front()
		if front == nil {
			continue
		}

		if o.Charges > 0 {
			if !giver.Holds(front) {
				return fmt.Errorf("%s no longer has %s: %w", giver.Name(), front.Name, ErrGoodsUnavailable)
			}
			if amount > front.Charges {
				return fmt.Errorf("%s has only %d charges left: %w", front.Name, front.Charges, ErrGoodsUnavailable)
			}
			continue
		}

		for _, it := range o.Locs[:min(amount, len(o.Locs))] {
			if !giver.Holds(it) {
				return fmt.Errorf("%s no longer has %s: %w", giver.Name(), it.Name, ErrGoodsUnavailable)
			}
		}
	}
	return nil
}

// TransferItems moves the selected quantity of every offer on side from
// giver to receiver, handing over ownership. Charges are split off the front
// item; whole-item offers move that many items of the stack. It returns the
// number of offers moved.
func TransferItems(offers []*Offer, side Side, giver, receiver Trader) (int, error) {
	moved := 0
	for _, o := range offers {
		amount := o.Amount(side)
		if !o.Selected || amount <= 0 {
			continue
		}
		front := o.Front()
		if front == nil {
			continue
		}

		if o.Charges > 0 {
			gift := front
			if amount < front.Charges {
				split, err := front.Split(amount)
				if err != nil {
					return moved, fmt.Errorf("failed to split %s: %w", front.Name, err)
				}
				gift = split
			} else if !giver.Detach(front) {
				return moved, fmt.Errorf("failed to detach %s from %s", front.Name, giver.Name())
			}
			handOver(gift, receiver)
			moved++
			continue
		}

		for _, it := range o.Locs[:min(amount, len(o.Locs))] {
			if !giver.Detach(it) {
				return moved, fmt.Errorf("failed to detach %s from %s", it.Name, giver.Name())
			}
			handOver(it, receiver)
		}
		moved++
	}
	return moved, nil
}

func handOver(it *item.Item, receiver Trader) {
	it.SetOwner(receiver.ID())
	receiver.Receive(it)
}

// PayFromDebt covers a service cost out of what np owes the player. It
// reports false, changing nothing, when the debt does not cover the cost
// and the player has to trade for it instead.
func PayFromDebt(np Counterparty, cost int) bool {
	if np.Owed() < cost {
		return false
	}
	np.SetOwed(np.Owed() - cost)
	return true
}
