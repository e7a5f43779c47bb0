package negotiation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/barter-engine/pkg/trade"
)

func (s *Session) handleFilterEdit(a Action) {
	p := s.pane(s.filterSide)
	list := s.state.List(s.filterSide)
	switch a {
	case ActionConfirm:
		p.filter = strings.TrimSpace(s.input)
	case ActionQuit:
		// keep the previous filter
	default:
		return
	}
	p.filtered = filterIndices(list, p.filter)
	p.clamp(s.pageSize)
	s.input = ""
	s.setMode(ModeBrowsing)
}

// openQuantity asks how many units of o to trade.
func (s *Session) openQuantity(o *trade.Offer) {
	front := o.Front()
	total := o.MaxAmount()
	if front.Container && len(front.Contents) > 0 {
		s.promptTitle = fmt.Sprintf("Trade how many containers with %s [MAX: %d]: ", front.Contained().TypeName(), total)
	} else {
		s.promptTitle = fmt.Sprintf("Trade how many %s [MAX: %d]: ", front.TypeName(), total)
	}

	s.promptHint = ""
	switch hint := s.state.AmountHint(s.focus, o); {
	case hint > 0:
		s.promptHint = fmt.Sprintf("Hint: You can buy up to %d with your current balance.", min(hint, total))
	case hint < 0:
		s.promptHint = fmt.Sprintf("Hint: You'll need to offer %d to even out the deal.", -hint)
	}

	s.quantity = o
	s.input = strconv.Itoa(total)
	s.setMode(ModeQuantity)
}

// handleQuantity applies the typed quantity. Anything that is not a
// positive number leaves the offer untouched.
func (s *Session) handleQuantity(a Action) {
	switch a {
	case ActionConfirm:
		if n, err := strconv.Atoi(strings.TrimSpace(s.input)); err == nil && n > 0 {
			s.state.ApplyChange(s.focus, s.quantity, min(n, s.quantity.MaxAmount()), s.freely())
		}
	case ActionQuit:
	default:
		return
	}
	s.quantity = nil
	s.input = ""
	s.setMode(ModeBrowsing)
}

func (s *Session) handleConfirm(a Action) {
	switch a {
	case ActionConfirm:
		s.setMode(ModeBrowsing)
		s.finish(OutcomeCommitted)
	case ActionQuit:
		s.setMode(ModeBrowsing)
	}
}

func (s *Session) handleExamine(a Action) {
	p := s.pane(s.examineSide)
	switch a {
	case ActionUp:
		p.moveUp()
		s.closeExamine()
	case ActionDown:
		p.moveDown()
		s.closeExamine()
	case ActionPageUp:
		s.examineScroll = max(s.examineScroll-s.pageSize, 0)
	case ActionPageDown:
		s.examineScroll += s.pageSize
		s.clampExamineScroll()
	case ActionConfirm, ActionQuit:
		s.closeExamine()
	}
}

func (s *Session) closeExamine() {
	s.pane(s.examineSide).clamp(s.pageSize)
	s.examineScroll = 0
	s.setMode(ModeBrowsing)
}

// examineLines folds the examined item's info to the popup width.
func (s *Session) examineLines() []string {
	list := s.state.List(s.examineSide)
	if s.examineIndex < 0 || s.examineIndex >= len(list) {
		return nil
	}
	return strings.Split(wordwrap.String(list[s.examineIndex].Front().Info(), s.width), "\n")
}

func (s *Session) clampExamineScroll() {
	if s.mode != ModeExamine {
		return
	}
	maxScroll := max(len(s.examineLines())-s.pageSize, 0)
	s.examineScroll = min(max(s.examineScroll, 0), maxScroll)
}
