// Package negotiation runs the interactive side of a trade: two filtered,
// paged offer lists, quantity edits, autobalance and the confirm dialog.
// A Session is driven by discrete input events and exposes the state a
// renderer needs; it never blocks.
package negotiation

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/jwebster45206/barter-engine/pkg/trade"
)

// Mode is the input mode of a session.
type Mode int

const (
	ModeBrowsing Mode = iota
	ModeFilterEdit
	ModeQuantity
	ModeConfirm
	ModeNotice
	ModeExamine
)

func (m Mode) String() string {
	switch m {
	case ModeBrowsing:
		return "browsing"
	case ModeFilterEdit:
		return "filter"
	case ModeQuantity:
		return "quantity"
	case ModeConfirm:
		return "confirm"
	case ModeNotice:
		return "notice"
	case ModeExamine:
		return "examine"
	}
	return "unknown"
}

// Outcome is how a session ended.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeCommitted
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "pending"
}

// Deal is the kind of exchange, used for the header title.
type Deal int

const (
	DealTrade Deal = iota
	DealPay
	DealReward
)

// Title returns the header title of the deal.
func (d Deal) Title() string {
	switch d {
	case DealPay:
		return "Paying"
	case DealReward:
		return "Accepting a reward from"
	}
	return "Trading with"
}

// itemHotkeys are the keys that select rows of the focused page, in order.
const itemHotkeys = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	defaultPageSize = 20
	defaultWidth    = 60
	maxPendingCount = 1_000_000_000
)

// Session is one negotiation over a trade.State. It owns the state for its
// whole life and is not safe for concurrent use.
type Session struct {
	id     string
	state  *trade.State
	player trade.Trader
	np     trade.Counterparty
	deal   Deal
	logger *slog.Logger

	maxSolverStates int
	pageSize        int
	width           int

	focus        trade.Side
	categoryMode bool
	showInfo     bool
	panes        [2]paneState

	pendingCount int
	hasPending   bool

	mode    Mode
	outcome Outcome

	input       string // text of the filter or quantity prompt
	filterSide  trade.Side
	quantity    *trade.Offer
	promptTitle string
	promptHint  string
	message     string // notice or confirm question

	examineSide   trade.Side
	examineIndex  int
	examineScroll int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDeal sets the kind of deal shown in the header.
func WithDeal(d Deal) Option {
	return func(s *Session) { s.deal = d }
}

// WithMaxSolverStates bounds the category autobalance search.
func WithMaxSolverStates(n int) Option {
	return func(s *Session) { s.maxSolverStates = n }
}

// WithPageSize sets the number of rows shown per pane.
func WithPageSize(n int) Option {
	return func(s *Session) { s.SetLayout(n, s.width) }
}

// New starts a session over state between the player and np.
func New(state *trade.State, player trade.Trader, np trade.Counterparty, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		state:    state,
		player:   player,
		np:       np,
		logger:   slog.Default(),
		pageSize: defaultPageSize,
		width:    defaultWidth,
		focus:    trade.Theirs,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", s.id, "npc", np.ID())
	for _, side := range trade.Sides {
		p := s.pane(side)
		p.filtered = filterIndices(state.List(side), "")
	}
	s.logger.Debug("negotiation started",
		"theirs", len(state.Theirs), "yours", len(state.Yours), "balance", state.Balance)
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// State returns the trade ledger.
func (s *Session) State() *trade.State { return s.state }

// Mode returns the current input mode.
func (s *Session) Mode() Mode { return s.mode }

// Outcome returns how the session ended, or OutcomePending.
func (s *Session) Outcome() Outcome { return s.outcome }

// Done reports whether the session has ended.
func (s *Session) Done() bool { return s.outcome != OutcomePending }

// Focus returns the focused side.
func (s *Session) Focus() trade.Side { return s.focus }

// CategoryMode reports whether bulk category selection is on.
func (s *Session) CategoryMode() bool { return s.categoryMode }

// PendingCount returns the typed count waiting for the next RIGHT action.
func (s *Session) PendingCount() (int, bool) { return s.pendingCount, s.hasPending }

// SetLayout sets the rows per pane and the text width used to fold the
// examine popup. Pages never exceed the number of item hotkeys.
func (s *Session) SetLayout(pageSize, width int) {
	s.pageSize = min(max(pageSize, 1), len(itemHotkeys))
	s.width = max(width, 10)
	for _, side := range trade.Sides {
		s.pane(side).clamp(s.pageSize)
	}
	s.clampExamineScroll()
}

func (s *Session) pane(side trade.Side) *paneState {
	return &s.panes[side]
}

func (s *Session) freely() bool {
	return s.np.FreelyExchanges()
}

func (s *Session) setMode(m Mode) {
	if s.mode == m {
		return
	}
	s.logger.Debug("negotiation mode changed", "from", s.mode.String(), "to", m.String())
	s.mode = m
}

func (s *Session) finish(o Outcome) {
	s.outcome = o
	s.logger.Info("negotiation finished", "outcome", o.String(), "balance", s.state.Balance)
}

// Handle processes one action in the current mode.
func (s *Session) Handle(a Action) {
	if s.Done() {
		return
	}
	switch s.mode {
	case ModeBrowsing:
		s.browse(a)
	case ModeFilterEdit:
		s.handleFilterEdit(a)
	case ModeQuantity:
		s.handleQuantity(a)
	case ModeConfirm:
		s.handleConfirm(a)
	case ModeNotice:
		s.setMode(ModeBrowsing)
	case ModeExamine:
		s.handleExamine(a)
	}
}

// HandleRune processes a typed character: digits and item hotkeys while
// browsing, text while a prompt is open, y/n in the confirm dialog.
func (s *Session) HandleRune(r rune) {
	if s.Done() {
		return
	}
	switch s.mode {
	case ModeBrowsing:
		s.browseRune(r)
	case ModeFilterEdit, ModeQuantity:
		s.SetInput(s.input + string(r))
	case ModeConfirm:
		switch r {
		case 'y', 'Y':
			s.handleConfirm(ActionConfirm)
		case 'n', 'N':
			s.handleConfirm(ActionQuit)
		}
	case ModeNotice:
		s.setMode(ModeBrowsing)
	case ModeExamine:
		s.closeExamine()
	}
}

// SetInput replaces the text of the open prompt. While editing a filter the
// pane previews the new filter.
func (s *Session) SetInput(text string) {
	switch s.mode {
	case ModeFilterEdit:
		s.input = text
		p := s.pane(s.filterSide)
		p.filtered = filterIndices(s.state.List(s.filterSide), text)
		p.clamp(s.pageSize)
	case ModeQuantity:
		s.input = text
	}
}
