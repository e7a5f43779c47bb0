package negotiation

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/barter-engine/pkg/trade"
)

// Action is a bound input command.
type Action int

const (
	ActionNone Action = iota
	ActionSwitchLists
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	ActionFilter
	ActionResetFilter
	ActionCategorySelection
	ActionPageUp
	ActionPageDown
	ActionExamine
	ActionAutobalance
	ActionToggleItemInfo
	ActionConfirm
	ActionQuit
)

var actionNames = map[Action]string{
	ActionSwitchLists:       "switch_lists",
	ActionUp:                "up",
	ActionDown:              "down",
	ActionLeft:              "left",
	ActionRight:             "right",
	ActionFilter:            "filter",
	ActionResetFilter:       "reset_filter",
	ActionCategorySelection: "category_selection",
	ActionPageUp:            "page_up",
	ActionPageDown:          "page_down",
	ActionExamine:           "examine",
	ActionAutobalance:       "autobalance",
	ActionToggleItemInfo:    "toggle_item_info",
	ActionConfirm:           "confirm",
	ActionQuit:              "quit",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "none"
}

// prepare clamps the focused pane and returns its category ranges.
func (s *Session) prepare() []categoryRange {
	p := s.pane(s.focus)
	p.clamp(s.pageSize)
	ranges := buildCategoryRanges(s.state.List(s.focus), p.filtered)
	if p.categoryCursor >= len(ranges) {
		p.categoryCursor = max(len(ranges)-1, 0)
	}
	return ranges
}

func (s *Session) browse(a Action) {
	ranges := s.prepare()
	p := s.pane(s.focus)
	list := s.state.List(s.focus)

	switch a {
	case ActionSwitchLists:
		s.focus = s.focus.Other()
		if s.categoryMode {
			next := s.pane(s.focus)
			newRanges := buildCategoryRanges(s.state.List(s.focus), next.filtered)
			if len(newRanges) > 0 {
				next.categoryCursor = min(next.categoryCursor, len(newRanges)-1)
				next.cursor = newRanges[next.categoryCursor].start
				next.clamp(s.pageSize)
			}
		}

	case ActionUp:
		if s.categoryMode {
			if len(ranges) > 0 {
				if p.categoryCursor > 0 {
					p.categoryCursor--
				} else {
					p.categoryCursor = len(ranges) - 1
				}
				p.cursor = ranges[p.categoryCursor].start
			}
		} else {
			p.moveUp()
		}

	case ActionDown:
		if s.categoryMode {
			if len(ranges) > 0 {
				if p.categoryCursor+1 < len(ranges) {
					p.categoryCursor++
				} else {
					p.categoryCursor = 0
				}
				p.cursor = ranges[p.categoryCursor].start
			}
		} else {
			p.moveDown()
		}

	case ActionRight, ActionLeft:
		s.setAmounts(a == ActionRight, ranges)
		s.clearPending()

	case ActionAutobalance:
		s.autobalance(ranges)

	case ActionToggleItemInfo:
		s.showInfo = !s.showInfo

	case ActionCategorySelection:
		s.categoryMode = !s.categoryMode
		if s.categoryMode && len(ranges) > 0 && len(p.filtered) > 0 {
			if idx := rangeOf(ranges, list[p.filtered[p.cursor]].Front().Category.ID); idx >= 0 {
				p.categoryCursor = idx
			}
			p.cursor = ranges[p.categoryCursor].start
			p.clamp(s.pageSize)
		}

	case ActionFilter:
		s.filterSide = s.focus
		s.input = p.filter
		s.setMode(ModeFilterEdit)

	case ActionResetFilter:
		p.filter = ""
		p.filtered = filterIndices(list, "")
		p.clamp(s.pageSize)

	case ActionPageUp:
		p.offset = max(p.offset-s.pageSize, 0)
		if len(list) > 0 {
			p.cursor = p.offset
		}

	case ActionPageDown:
		if p.offset+s.pageSize < len(p.filtered) {
			p.offset += s.pageSize
		}
		if len(p.filtered) > 0 {
			p.cursor = p.offset
		}

	case ActionExamine:
		if s.categoryMode || len(p.filtered) == 0 {
			return
		}
		s.examineSide = s.focus
		s.examineIndex = p.filtered[p.cursor]
		s.examineScroll = 0
		s.setMode(ModeExamine)

	case ActionConfirm:
		s.confirmTrade()

	case ActionQuit:
		s.finish(OutcomeCancelled)
	}
}

// setAmounts sets the cursor offer, or every offer of the active category,
// to its maximum or to zero. A pending count replaces the maximum for a
// single offer.
func (s *Session) setAmounts(toMax bool, ranges []categoryRange) {
	p := s.pane(s.focus)
	list := s.state.List(s.focus)
	target := func(o *trade.Offer) int {
		if toMax {
			return o.MaxAmount()
		}
		return 0
	}

	if s.categoryMode {
		if len(ranges) == 0 {
			return
		}
		r := ranges[p.categoryCursor]
		for _, li := range p.filtered[r.start:r.end] {
			s.state.ApplyChange(s.focus, list[li], target(list[li]), s.freely())
		}
		return
	}
	if len(p.filtered) == 0 {
		return
	}
	o := list[p.filtered[p.cursor]]
	amount := target(o)
	if toMax && s.hasPending {
		amount = s.pendingCount
	}
	s.state.ApplyChange(s.focus, o, amount, s.freely())
}

func (s *Session) autobalance(ranges []categoryRange) {
	p := s.pane(s.focus)
	list := s.state.List(s.focus)
	if len(p.filtered) == 0 {
		return
	}
	defer s.clearPending()

	if !s.categoryMode {
		o := list[p.filtered[p.cursor]]
		s.state.ApplyChange(s.focus, o, trade.CalcAutobalanceAmount(s.state.Balance, s.focus, o), s.freely())
		return
	}
	if len(ranges) == 0 {
		return
	}
	r := ranges[p.categoryCursor]
	offers := make([]*trade.Offer, 0, r.end-r.start)
	for _, li := range p.filtered[r.start:r.end] {
		offers = append(offers, list[li])
	}
	plan := trade.CalcCategoryAutobalancePlan(s.state.Balance, s.focus, offers, s.maxSolverStates)
	for _, o := range offers {
		if amount, ok := plan[o]; ok {
			s.state.ApplyChange(s.focus, o, amount, s.freely())
		}
	}
	s.logger.Debug("category autobalanced", "category", r.id, "offers", len(offers), "balance", s.state.Balance)
}

func (s *Session) clearPending() {
	s.pendingCount, s.hasPending = 0, false
}

func (s *Session) browseRune(r rune) {
	if r >= '0' && r <= '9' {
		if !s.hasPending {
			s.pendingCount, s.hasPending = 0, true
		}
		if s.pendingCount < maxPendingCount {
			s.pendingCount = s.pendingCount*10 + int(r-'0')
		}
		if s.pendingCount <= 0 {
			s.clearPending()
		}
		return
	}

	pos := strings.IndexRune(itemHotkeys, r)
	if pos < 0 {
		return
	}
	ranges := s.prepare()
	p := s.pane(s.focus)
	list := s.state.List(s.focus)
	idx := pos + p.offset
	if idx >= len(p.filtered) {
		return
	}
	p.cursor = idx
	p.clamp(s.pageSize)
	o := list[p.filtered[idx]]
	if s.categoryMode && len(ranges) > 0 {
		if ci := rangeOf(ranges, o.Front().Category.ID); ci >= 0 {
			p.categoryCursor = ci
		}
	}

	switch {
	case o.Selected:
		s.state.ApplyChange(s.focus, o, 0, s.freely())
	case o.Charges > 0 || o.Count > 1:
		s.openQuantity(o)
	default:
		s.state.ApplyChange(s.focus, o, 1, s.freely())
	}
}

// confirmTrade checks acceptance, then capacity, then the debt cap, and
// opens a notice or the confirm dialog.
func (s *Session) confirmTrade() {
	switch {
	case !trade.WillAcceptTrade(s.state, s.np):
		if credit := s.np.MaxCreditExtended(); credit == 0 {
			s.notice("You'll need to offer me more than that.")
		} else {
			s.notice(fmt.Sprintf("Sorry, I'm only willing to extend you %s in credit.", trade.FormatMoney(credit)))
		}
	case !s.state.CanCarry():
		s.notice(fmt.Sprintf("%s can't carry all that.", s.np.Name()))
	case trade.SettleOwedDebt(s.state, s.np) < s.state.Balance:
		s.message = fmt.Sprintf("I'm never going to be able to pay you back for all that.  "+
			"The most I'm willing to owe you is %s.\n\nContinue with trade?",
			trade.FormatMoney(trade.SettleOwedDebt(s.state, s.np)))
		s.setMode(ModeConfirm)
	default:
		s.message = "Looks like a deal!  Accept this trade?"
		s.setMode(ModeConfirm)
	}
}

func (s *Session) notice(msg string) {
	s.message = msg
	s.logger.Debug("trade refused", "reason", msg)
	s.setMode(ModeNotice)
}
