package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jwebster45206/barter-engine/internal/barter"
	"github.com/jwebster45206/barter-engine/pkg/actor"
	"github.com/jwebster45206/barter-engine/pkg/negotiation"
	"github.com/jwebster45206/barter-engine/pkg/storage"
	"github.com/jwebster45206/barter-engine/pkg/trade"
)

const historyLimit = 20

type phase int

const (
	phasePick phase = iota
	phaseLoading
	phaseTrade
	phaseResult
)

type ConsoleUI struct {
	ctx    context.Context
	config *ConsoleConfig
	svc    *barter.Service

	phase    phase
	traders  []string
	selected int

	player  *actor.Character
	np      *actor.Character
	session *negotiation.Session
	receipt string
	status  string

	input       textinput.Model
	history     viewport.Model
	showHistory bool
	help        help.Model
	keys        keyMap

	showQuitModal bool
	width         int
	height        int
	err           error
}

type tradersLoadedMsg struct {
	traders []string
	err     error
}

type tradeOpenedMsg struct {
	player  *actor.Character
	np      *actor.Character
	session *negotiation.Session // nil when the cost was paid from debt
	err     error
}

type tradeFinishedMsg struct {
	result trade.Result
	err    error
}

type historyLoadedMsg struct {
	records []storage.TradeRecord
	err     error
}

func NewConsoleUI(ctx context.Context, cfg *ConsoleConfig, svc *barter.Service) ConsoleUI {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(":: ")
	ti.CharLimit = 40

	m := ConsoleUI{
		ctx:     ctx,
		config:  cfg,
		svc:     svc,
		phase:   phasePick,
		input:   ti,
		history: viewport.New(60, 10),
		help:    help.New(),
		keys:    defaultKeyMap(),
	}
	if cfg.TraderID != "" {
		m.phase = phaseLoading
	}
	return m
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.config.TraderID != "" {
		return m.openTrade(m.config.TraderID)
	}
	return m.loadTraders()
}

func (m ConsoleUI) loadTraders() tea.Cmd {
	return func() tea.Msg {
		ids, err := m.svc.Traders(m.ctx)
		return tradersLoadedMsg{ids, err}
	}
}

// openTrade loads both parties. A service cost is paid out of what the
// trader owes when possible; otherwise a negotiation opens.
func (m ConsoleUI) openTrade(traderID string) tea.Cmd {
	return func() tea.Msg {
		player, err := m.svc.LoadPlayer(m.ctx, m.config.PlayerID)
		if err != nil {
			return tradeOpenedMsg{err: err}
		}
		np, err := m.svc.LoadTrader(m.ctx, m.config.PlayerID, traderID)
		if err != nil {
			return tradeOpenedMsg{err: err}
		}
		if m.config.Cost > 0 {
			paid, err := m.svc.PayFromDebt(m.ctx, player, np, m.config.Cost)
			if err != nil {
				return tradeOpenedMsg{err: err}
			}
			if paid {
				return tradeOpenedMsg{player: player, np: np}
			}
		}
		session := m.svc.Open(m.ctx, player, np, m.config.Cost, negotiation.WithDeal(m.config.Deal))
		return tradeOpenedMsg{player: player, np: np, session: session}
	}
}

func (m ConsoleUI) finishTrade() tea.Cmd {
	session, player, np := m.session, m.player, m.np
	return func() tea.Msg {
		res, err := m.svc.Finish(m.ctx, session, player, np)
		return tradeFinishedMsg{res, err}
	}
}

func (m ConsoleUI) loadHistory() tea.Cmd {
	npcID := m.np.ID()
	return func() tea.Msg {
		records, err := m.svc.History(m.ctx, npcID, historyLimit)
		return historyLoadedMsg{records, err}
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tradersLoadedMsg:
		m.err = msg.err
		m.traders = msg.traders
		m.selected = min(m.selected, max(len(m.traders)-1, 0))
		return m, nil

	case tradeOpenedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.phase = phasePick
			return m, nil
		}
		m.player, m.np, m.session = msg.player, msg.np, msg.session
		if m.session == nil {
			m.receipt = formatDebtPaid(m.np, m.config.Cost)
			m.phase = phaseResult
			return m, nil
		}
		m.phase = phaseTrade
		m.status = ""
		m.layout()
		return m, m.loadHistory()

	case tradeFinishedMsg:
		m.phase = phaseResult
		m.err = msg.err
		if msg.err == nil {
			m.receipt = formatReceipt(m.np, m.session.Outcome(), msg.result)
		}
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.history.SetContent(errorStyle.Render("Failed to load history: " + msg.err.Error()))
		} else {
			m.history.SetContent(formatHistory(msg.records))
		}
		return m, nil

	case tea.KeyMsg:
		if m.showQuitModal {
			return m.updateQuitModal(msg)
		}
		if key.Matches(msg, m.keys.ForceQuit) {
			m.showQuitModal = true
			return m, nil
		}
		switch m.phase {
		case phasePick:
			return m.updatePick(msg)
		case phaseTrade:
			if m.showHistory {
				return m.updateHistory(msg)
			}
			return m.updateTrade(msg)
		case phaseResult:
			return m.updateResult(msg)
		}
	}

	var cmd tea.Cmd
	if m.input.Focused() {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// layout sizes the panes from the window. Headings take extra lines on
// top of the page size, so only part of the free height holds items.
func (m *ConsoleUI) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.history.Width = min(m.width-8, 80)
	m.history.Height = max(m.height-10, 3)
	m.help.Width = m.width
	if m.session != nil {
		rows := max((m.height-chromeHeight)*2/3, 3)
		m.session.SetLayout(rows, min(m.width-12, 70))
	}
}

func (m ConsoleUI) updatePick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.showQuitModal = true
	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < len(m.traders)-1 {
			m.selected++
		}
	case tea.KeyEnter:
		if m.err != nil && len(m.traders) == 0 {
			m.err = nil
			return m, m.loadTraders()
		}
		if len(m.traders) > 0 {
			m.err = nil
			m.phase = phaseLoading
			return m, m.openTrade(m.traders[m.selected])
		}
	}
	return m, nil
}

func (m ConsoleUI) updateTrade(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session
	switch s.Mode() {
	case negotiation.ModeFilterEdit, negotiation.ModeQuantity:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			s.Handle(negotiation.ActionConfirm)
		case key.Matches(msg, m.keys.Quit):
			s.Handle(negotiation.ActionQuit)
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			s.SetInput(m.input.Value())
			return m, cmd
		}

	case negotiation.ModeBrowsing:
		switch {
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.History):
			m.showHistory = true
			return m, nil
		}
		m.dispatch(msg)

	default:
		m.dispatch(msg)
	}

	cmd := m.syncInput()
	if s.Done() {
		m.phase = phaseLoading
		return m, tea.Batch(cmd, m.finishTrade())
	}
	return m, cmd
}

// dispatch feeds a key to the session as a bound action or a typed rune.
func (m ConsoleUI) dispatch(msg tea.KeyMsg) {
	if a := m.keys.action(msg); a != negotiation.ActionNone {
		m.session.Handle(a)
		return
	}
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		m.session.HandleRune(msg.Runes[0])
		return
	}
	if m.session.Mode() == negotiation.ModeNotice {
		m.session.Handle(negotiation.ActionNone)
	}
}

// syncInput focuses the text input when the session opens a prompt, seeded
// with the prompt's text, and blurs it when the prompt closes.
func (m *ConsoleUI) syncInput() tea.Cmd {
	p, ok := m.session.Prompt()
	if ok && (p.Mode == negotiation.ModeFilterEdit || p.Mode == negotiation.ModeQuantity) {
		if m.input.Focused() {
			return nil
		}
		m.input.SetValue(p.Input)
		m.input.CursorEnd()
		return m.input.Focus()
	}
	m.input.Blur()
	m.input.Reset()
	return nil
}

func (m ConsoleUI) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.History) || key.Matches(msg, m.keys.Quit) {
		m.showHistory = false
		return m, nil
	}
	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c", "C":
		if m.receipt == "" {
			return m, nil
		}
		if err := clipboard.WriteAll(m.receipt); err != nil {
			m.status = errorStyle.Render("Copy failed: " + err.Error())
		} else {
			m.status = loadingStyle.Render("Receipt copied to clipboard.")
		}
	case "enter":
		m.reset()
		m.phase = phasePick
		return m, m.loadTraders()
	case "esc", "q", "Q":
		return m, tea.Quit
	}
	return m, nil
}

func (m *ConsoleUI) reset() {
	m.player, m.np, m.session = nil, nil, nil
	m.receipt, m.status = "", ""
	m.err = nil
	m.showHistory = false
	m.history.SetContent("")
}

func (m ConsoleUI) updateQuitModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEnter:
		return m, tea.Quit
	case tea.KeyEsc:
		m.showQuitModal = false
		return m, nil
	}
	switch msg.String() {
	case "y", "Y":
		return m, tea.Quit
	case "n", "N":
		m.showQuitModal = false
	}
	return m, nil
}

func formatReceipt(np *actor.Character, outcome negotiation.Outcome, res trade.Result) string {
	if outcome != negotiation.OutcomeCommitted {
		return fmt.Sprintf("You walk away from %s without a deal.", np.Name())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Traded with %s.\n", np.Name())
	fmt.Fprintf(&b, "Goods given: %d\n", res.Given)
	fmt.Fprintf(&b, "Goods received: %d\n", res.Received)
	switch {
	case np.FreelyExchanges():
	case res.Owed > 0:
		fmt.Fprintf(&b, "%s owes you %s.\n", np.Name(), trade.FormatMoney(res.Owed))
	case res.Owed < 0:
		fmt.Fprintf(&b, "You owe %s %s.\n", np.Name(), trade.FormatMoney(-res.Owed))
	default:
		b.WriteString("You're square.\n")
	}
	if res.Practice > 0 {
		fmt.Fprintf(&b, "Barter practice: %d\n", res.Practice)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDebtPaid(np *actor.Character, cost int) string {
	return fmt.Sprintf("%s takes %s out of what they owe you.\nStill owed: %s",
		np.Name(), trade.FormatMoney(cost), trade.FormatMoney(np.Owed()))
}

func formatHistory(records []storage.TradeRecord) string {
	if len(records) == 0 {
		return promptStyle.Render("No trades yet.")
	}
	var b strings.Builder
	// newest first
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		fmt.Fprintf(&b, "%s  gave %d, received %d, owed %s\n",
			promptStyle.Render(humanize.Time(r.At)), r.Given, r.Received, trade.FormatMoney(r.Owed))
	}
	return strings.TrimRight(b.String(), "\n")
}

// errorText unwraps service errors to the message worth showing.
func errorText(err error) string {
	if errors.Is(err, trade.ErrTradeRejected) || errors.Is(err, trade.ErrOverCapacity) {
		return "The trade fell through: " + err.Error()
	}
	return err.Error()
}

var _ tea.Model = ConsoleUI{}

func place(width, height int, modal string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}
