package negotiation

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/barter-engine/pkg/item"
	"github.com/jwebster45206/barter-engine/pkg/trade"
)

// PriceHint tells whether a unit price is a bargain for the player.
type PriceHint int

const (
	PriceFair PriceHint = iota
	PriceGood
	PriceBad
	PriceHidden // freely exchanged goods carry no price
)

// Neutral band of the price-to-market ratio.
const (
	fairLow  = 0.95
	fairHigh = 1.05
)

// Header is the summary line of the trade window.
type Header struct {
	Title        string // e.g. "Trading with"
	Name         string
	Balance      string // "Credit $x", "Debt $x" or "Exchange"
	Accepted     bool   // the counterparty would accept as things stand
	CategoryMode bool
	PendingCount int // 0 when none
}

// Row is one line of a pane: either a category heading or an offer.
type Row struct {
	Category string // heading text; empty for offer rows

	Hotkey    rune
	Mark      string // "-", "#" or "+"
	Name      string
	Quantity  int   // available units, 0 for single items
	Weight    int64 // grams for all available units
	Volume    int64 // ml for all available units
	Price     string
	PriceHint PriceHint

	Cursor    bool
	Highlight bool // cursor row or part of the active category
	Selected  bool
	Loose     bool // not carried on a person
	Wielded   bool
}

// PaneStats is the load line of a pane after the trade as currently agreed.
type PaneStats struct {
	Label      string
	Focused    bool
	UsedWeight int64
	MaxWeight  int64
	UsedVolume int64
	MaxVolume  int64
}

// Overloaded reports whether the pane's owner would carry too much.
func (p PaneStats) Overloaded() bool {
	return p.UsedWeight > p.MaxWeight || p.UsedVolume > p.MaxVolume
}

// Prompt is the open modal, if any.
type Prompt struct {
	Mode    Mode
	Title   string
	Hint    string
	Input   string
	Message string
}

// ExamineView is the item info popup.
type ExamineView struct {
	Title  string
	Lines  []string
	Scroll int
}

// Header returns the summary line.
func (s *Session) Header() Header {
	h := Header{
		Title:        s.deal.Title(),
		Name:         s.np.Name(),
		Balance:      "Exchange",
		Accepted:     trade.WillAcceptTrade(s.state, s.np),
		CategoryMode: s.categoryMode,
	}
	if !s.freely() {
		label := "Credit"
		if s.state.Balance < 0 {
			label = "Debt"
		}
		h.Balance = fmt.Sprintf("%s %s", label, trade.FormatMoney(abs(s.state.Balance)))
	}
	if s.hasPending {
		h.PendingCount = s.pendingCount
	}
	return h
}

// Rows returns the visible page of a pane, with a heading row before each
// new category. Headings are extra lines on top of the page size.
func (s *Session) Rows(side trade.Side) []Row {
	p := s.pane(side)
	list := s.state.List(side)
	focused := side == s.focus

	activeCategory := ""
	if s.categoryMode && focused {
		ranges := buildCategoryRanges(list, p.filtered)
		if p.categoryCursor < len(ranges) {
			activeCategory = ranges[p.categoryCursor].id
		}
	}

	var owner trade.Trader = s.player
	if side == trade.Theirs {
		owner = s.np
	}
	wielded := owner.WieldedItem()

	var rows []Row
	lastCategory := ""
	first := true
	for i := p.offset; i < len(p.filtered) && i < p.offset+s.pageSize; i++ {
		o := list[p.filtered[i]]
		front := o.Front()
		if first || front.Category.ID != lastCategory {
			rows = append(rows, Row{Category: strings.ToUpper(front.Category.Name)})
			first = false
			lastCategory = front.Category.ID
		}

		row := Row{
			Mark:      o.SelectionMark(side),
			Name:      front.DisplayName(),
			Cursor:    focused && i == p.cursor,
			Selected:  o.Selected,
			Loose:     front.Where != item.WhereCharacter,
			Wielded:   wielded != nil && front == wielded,
			PriceHint: PriceHidden,
		}
		if hk := i - p.offset; hk < len(itemHotkeys) {
			row.Hotkey = rune(itemHotkeys[hk])
		}
		row.Highlight = row.Cursor || (activeCategory != "" && front.Category.ID == activeCategory)

		available := o.MaxAmount()
		if available > 1 {
			row.Quantity = available
		}
		row.Weight = o.Weight * int64(available)
		row.Volume = o.Volume * int64(available)

		if s.freely() {
			if row.Loose {
				row.Name = fmt.Sprintf("%s (%s)", row.Name, front.DescribeLocation())
			}
		} else {
			row.Price = trade.FormatMoney(int(o.Price))
			row.PriceHint = priceHint(side, o)
		}
		rows = append(rows, row)
	}
	return rows
}

// priceHint compares the unit price with the unit market price.
func priceHint(side trade.Side, o *trade.Offer) PriceHint {
	market := float64(o.Front().PriceOf(true))
	if o.Charges > 0 {
		market /= float64(o.Charges)
	}
	if market <= 0 {
		return PriceFair
	}
	ratio := o.Price / market
	cheap := side == trade.Theirs
	switch {
	case ratio < fairLow:
		if cheap {
			return PriceGood
		}
		return PriceBad
	case ratio > fairHigh:
		if cheap {
			return PriceBad
		}
		return PriceGood
	}
	return PriceFair
}

// PaneStats returns the load of the pane's owner with the current selection
// applied.
func (s *Session) PaneStats(side trade.Side) PaneStats {
	if side == trade.Theirs {
		return PaneStats{
			Label:      s.np.Name(),
			Focused:    s.focus == side,
			MaxWeight:  s.np.WeightCapacity(),
			MaxVolume:  s.np.VolumeCapacity(),
			UsedWeight: s.np.WeightCapacity() - s.state.WeightLeft,
			UsedVolume: s.np.VolumeCapacity() - s.state.VolumeLeft,
		}
	}

	var gainW, gainV int64
	for _, t := range trade.Sides {
		sign := int64(1)
		if t == trade.Yours {
			sign = -1
		}
		for _, o := range s.state.List(t) {
			n := int64(o.Amount(t))
			gainW += sign * o.Weight * n
			gainV += sign * o.Volume * n
		}
	}
	return PaneStats{
		Label:      "You",
		Focused:    s.focus == side,
		MaxWeight:  s.player.WeightCapacity(),
		MaxVolume:  s.player.VolumeCapacity(),
		UsedWeight: s.player.WeightCarried() + gainW,
		UsedVolume: s.player.VolumeCarried() + gainV,
	}
}

// Page returns the current page and page count of a pane, both from 1.
func (s *Session) Page(side trade.Side) (current, total int) {
	p := s.pane(side)
	total = max((len(p.filtered)+s.pageSize-1)/s.pageSize, 1)
	current = min(p.offset/s.pageSize+1, total)
	return current, total
}

// FilterText returns the filter shown under a pane and whether it is being
// edited.
func (s *Session) FilterText(side trade.Side) (string, bool) {
	if s.mode == ModeFilterEdit && s.filterSide == side {
		return s.input, true
	}
	return s.pane(side).filter, false
}

// Prompt returns the open modal. ok is false while browsing or examining.
func (s *Session) Prompt() (Prompt, bool) {
	switch s.mode {
	case ModeFilterEdit:
		return Prompt{Mode: s.mode, Title: "Filter", Input: s.input}, true
	case ModeQuantity:
		return Prompt{Mode: s.mode, Title: s.promptTitle, Hint: s.promptHint, Input: s.input}, true
	case ModeConfirm, ModeNotice:
		return Prompt{Mode: s.mode, Message: s.message}, true
	}
	return Prompt{}, false
}

// Examine returns the item info popup while it is open.
func (s *Session) Examine() (ExamineView, bool) {
	if s.mode != ModeExamine {
		return ExamineView{}, false
	}
	list := s.state.List(s.examineSide)
	if s.examineIndex >= len(list) {
		return ExamineView{}, false
	}
	return ExamineView{
		Title:  list[s.examineIndex].Front().DisplayName(),
		Lines:  s.examineLines(),
		Scroll: s.examineScroll,
	}, true
}

// ShowItemInfo reports whether the description panel is toggled on.
func (s *Session) ShowItemInfo() bool { return s.showInfo }

// ItemInfo returns the description of the focused cursor item. It is empty
// in category mode or when the pane is empty.
func (s *Session) ItemInfo() string {
	p := s.pane(s.focus)
	if s.categoryMode || len(p.filtered) == 0 || p.cursor >= len(p.filtered) {
		return ""
	}
	return s.state.List(s.focus)[p.filtered[p.cursor]].Front().Description
}

// Cursor returns the offer under the cursor of the focused pane, or nil.
func (s *Session) Cursor() *trade.Offer {
	p := s.pane(s.focus)
	if len(p.filtered) == 0 || p.cursor >= len(p.filtered) {
		return nil
	}
	return s.state.List(s.focus)[p.filtered[p.cursor]]
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
