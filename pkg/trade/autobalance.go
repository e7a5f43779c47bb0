package trade

import (
	"cmp"
	"math"
	"slices"
	"sort"
)

// defaultMaxSolverStates caps the plan search when no limit is given.
const defaultMaxSolverStates = 1 << 12

// CalcAutobalanceAmount returns the quantity of o on side that brings the
// balance closest to zero without going negative, or as close as possible
// from below when no quantity avoids debt. Ties go to the smallest change
// from the current quantity. Offers whose quantity cannot move the balance
// keep their current amount.
func CalcAutobalanceAmount(balance int, side Side, o *Offer) int {
	current := o.Amount(side)
	maxAmount := o.MaxAmount()
	if o.Contribution(side, maxAmount) == o.Contribution(side, 0) {
		return current
	}

	unit := float64(side.balanceSign()) * o.Price
	ideal := float64(current) - float64(balance)/unit
	ideal = math.Max(0, math.Min(ideal, float64(maxAmount)))

	candidates := []int{0, maxAmount, int(math.Floor(ideal)), int(math.Ceil(ideal))}
	result := func(amount int) int {
		return balance + o.Contribution(side, amount) - o.Contribution(side, current)
	}
	change := func(amount int) int {
		return abs(amount - current)
	}

	best, found := 0, false
	for _, c := range candidates {
		rb := result(c)
		if rb < 0 {
			continue
		}
		if !found || rb < result(best) || (rb == result(best) && change(c) < change(best)) {
			best, found = c, true
		}
	}
	if found {
		return best
	}

	best = candidates[0]
	for _, c := range candidates[1:] {
		if rb := result(c); rb > result(best) || (rb == result(best) && change(c) < change(best)) {
			best = c
		}
	}
	return best
}

// Adjustable is an offer whose quantity the planner may change, together
// with the side it is offered on.
type Adjustable struct {
	Side  Side
	Offer *Offer
}

// CalcCategoryAutobalancePlan plans quantities for all offers of one side,
// typically a category run of a pane.
func CalcCategoryAutobalancePlan(balance int, side Side, offers []*Offer, maxStates int) map[*Offer]int {
	items := make([]Adjustable, 0, len(offers))
	for _, o := range offers {
		items = append(items, Adjustable{Side: side, Offer: o})
	}
	return CalcAutobalancePlan(balance, items, maxStates)
}

// planEntry is an offer taking part in the search.
type planEntry struct {
	Adjustable
	current int
	max     int
}

func (e planEntry) delta(amount int) int {
	return e.Offer.Contribution(e.Side, amount) - e.Offer.Contribution(e.Side, e.current)
}

// increasing reports whether larger amounts raise the balance.
func (e planEntry) increasing() bool {
	return e.delta(e.max) > e.delta(0)
}

// extreme is the amount giving the largest change when high is set and the
// smallest otherwise.
func (e planEntry) extreme(high bool) int {
	if e.increasing() == high {
		return e.max
	}
	return 0
}

// amountsWithin returns the range of amounts whose change lies within
// [dLo, dHi]. Contributions are monotone in the amount, so the range is
// contiguous; it is empty when first > last.
func (e planEntry) amountsWithin(dLo, dHi int) (first, last int) {
	n := e.max + 1
	if e.increasing() {
		first = sort.Search(n, func(a int) bool { return e.delta(a) >= dLo })
		last = sort.Search(n, func(a int) bool { return e.delta(a) > dHi }) - 1
		return first, last
	}
	first = sort.Search(n, func(a int) bool { return e.delta(a) <= dHi })
	last = sort.Search(n, func(a int) bool { return e.delta(a) < dLo }) - 1
	return first, last
}

// choice records how a balance was reached at one step of the search.
type choice struct {
	prev   int // balance before this offer
	amount int // quantity chosen for this offer
	cost   int // total quantity change up to and including this offer
}

// CalcAutobalancePlan searches quantities for several offers at once so the
// final balance is the smallest non-negative value reachable, or the largest
// negative one when debt is unavoidable. Among assignments reaching the same
// balance the one changing the fewest units wins; remaining ties go to the
// assignment found first when balances are visited in ascending order and
// quantities are tried from zero upwards.
//
// The returned plan holds an amount for every offer. Offers that cannot
// move the balance keep their current amount. maxStates bounds the number of
// balances tracked per step; when exceeded the balances least able to reach
// zero are dropped and the plan may miss the optimum, though it never ends
// further from zero than leaving every remaining offer at an extreme would.
func CalcAutobalancePlan(balance int, items []Adjustable, maxStates int) map[*Offer]int {
	if maxStates <= 0 {
		maxStates = defaultMaxSolverStates
	}

	plan := make(map[*Offer]int, len(items))
	var entries []planEntry
	for _, a := range items {
		e := planEntry{Adjustable: a, current: a.Offer.Amount(a.Side), max: a.Offer.MaxAmount()}
		plan[a.Offer] = e.current
		if e.delta(e.max) == e.delta(0) {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return plan
	}

	// reachLo[i], reachHi[i] bound the balance change entries[i:] can make.
	// Both bounds are reachable by putting every offer at an extreme.
	reachLo := make([]int, len(entries)+1)
	reachHi := make([]int, len(entries)+1)
	for i := len(entries) - 1; i >= 0; i-- {
		d0, dm := entries[i].delta(0), entries[i].delta(entries[i].max)
		reachLo[i] = reachLo[i+1] + min(d0, dm)
		reachHi[i] = reachHi[i+1] + max(d0, dm)
	}

	// Only final balances in [lo, hi] can be optimal. hi is always reached by
	// extending the anchor state with every remaining offer at an extreme;
	// the anchor is never pruned.
	lo, hi := 0, balance+reachHi[0]
	debt := hi < 0
	if debt {
		lo = hi
	}
	anchor, anchorHigh := balance, true

	frontier := map[int]choice{balance: {prev: balance}}
	steps := make([]map[int]choice, 0, len(entries))
	for i, e := range entries {
		prevs := sortedBalances(frontier)
		if !debt {
			for _, b := range prevs {
				if f := b + reachLo[i]; f >= 0 && f < hi {
					hi, anchor, anchorHigh = f, b, false
				}
				if f := b + reachHi[i]; f >= 0 && f < hi {
					hi, anchor, anchorHigh = f, b, true
				}
			}
		}

		restLo, restHi := reachLo[i+1], reachHi[i+1]
		minB, maxB := lo-restHi, hi-restLo
		next := newLayer(minB, maxB)
		for _, prev := range prevs {
			if prev+reachHi[i] < lo || prev+reachLo[i] > hi {
				continue
			}
			base := frontier[prev].cost
			first, last := e.amountsWithin(minB-prev, maxB-prev)
			for amount := first; amount <= last; amount++ {
				next.add(prev+e.delta(amount), choice{
					prev:   prev,
					amount: amount,
					cost:   base + abs(amount-e.current),
				})
			}
		}

		anchor += e.delta(e.extreme(anchorHigh))
		frontier = next.keep(restLo, restHi, maxStates, anchor)
		steps = append(steps, frontier)
	}

	b := bestBalance(frontier)
	for i := len(entries) - 1; i >= 0; i-- {
		c, ok := steps[i][b]
		if !ok {
			break
		}
		plan[entries[i].Offer] = c.amount
		b = c.prev
	}
	return plan
}

// maxDenseLayer is the widest balance range a layer indexes directly.
const maxDenseLayer = 1 << 20

// layer collects the balances reached at one step of the search. Narrow
// ranges are indexed directly by balance; wide ones fall back to a map.
type layer struct {
	base   int
	dense  []choice
	filled []bool
	sparse map[int]choice
	n      int
}

func newLayer(minB, maxB int) *layer {
	if maxB-minB < maxDenseLayer {
		width := maxB - minB + 1
		return &layer{base: minB, dense: make([]choice, width), filled: make([]bool, width)}
	}
	return &layer{sparse: make(map[int]choice)}
}

// add records c for balance b unless b was already reached at no greater cost.
func (l *layer) add(b int, c choice) {
	if l.sparse != nil {
		old, ok := l.sparse[b]
		if ok && old.cost <= c.cost {
			return
		}
		if !ok {
			l.n++
		}
		l.sparse[b] = c
		return
	}
	i := b - l.base
	if l.filled[i] {
		if l.dense[i].cost <= c.cost {
			return
		}
	} else {
		l.filled[i] = true
		l.n++
	}
	l.dense[i] = c
}

func (l *layer) get(b int) (choice, bool) {
	if l.sparse != nil {
		c, ok := l.sparse[b]
		return c, ok
	}
	i := b - l.base
	if i < 0 || i >= len(l.dense) || !l.filled[i] {
		return choice{}, false
	}
	return l.dense[i], true
}

// balances lists the reached balances in ascending order.
func (l *layer) balances() []int {
	if l.sparse != nil {
		return sortedBalances(l.sparse)
	}
	keys := make([]int, 0, l.n)
	for i, ok := range l.filled {
		if ok {
			keys = append(keys, l.base+i)
		}
	}
	return keys
}

// keep returns at most limit states plus the anchor. When there are more,
// it keeps those whose reachable range [b+lo, b+hi] lies closest to zero,
// preferring ranges above zero, then lower cost, then lower balance.
func (l *layer) keep(lo, hi, limit, anchor int) map[int]choice {
	keys := l.balances()
	if len(keys) <= limit {
		kept := make(map[int]choice, len(keys))
		for _, b := range keys {
			kept[b], _ = l.get(b)
		}
		return kept
	}

	type ranked struct {
		b, miss, cost int
	}
	miss := func(b int) int {
		switch {
		case b+lo > 0:
			return 2 * (b + lo)
		case b+hi < 0:
			return -2*(b+hi) + 1
		}
		return 0
	}
	rs := make([]ranked, len(keys))
	for i, b := range keys {
		c, _ := l.get(b)
		rs[i] = ranked{b: b, miss: miss(b), cost: c.cost}
	}
	slices.SortFunc(rs, func(x, y ranked) int {
		if x.miss != y.miss {
			return cmp.Compare(x.miss, y.miss)
		}
		if x.cost != y.cost {
			return cmp.Compare(x.cost, y.cost)
		}
		return cmp.Compare(x.b, y.b)
	})

	kept := make(map[int]choice, limit+1)
	for _, r := range rs[:limit] {
		kept[r.b], _ = l.get(r.b)
	}
	if _, ok := kept[anchor]; !ok {
		if c, ok := l.get(anchor); ok {
			kept[anchor] = c
		}
	}
	return kept
}

// bestBalance picks the smallest non-negative balance, or else the largest.
func bestBalance(states map[int]choice) int {
	best, found := 0, false
	for b := range states {
		if b >= 0 && (!found || b < best) {
			best, found = b, true
		}
	}
	if found {
		return best
	}
	for b := range states {
		if !found || b > best {
			best, found = b, true
		}
	}
	return best
}

func sortedBalances(states map[int]choice) []int {
	keys := make([]int, 0, len(states))
	for b := range states {
		keys = append(keys, b)
	}
	slices.Sort(keys)
	return keys
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
