package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/barter-engine/pkg/negotiation"
	"github.com/jwebster45206/barter-engine/pkg/trade"
)

// chromeHeight is the screen height taken by everything but pane rows.
const chromeHeight = 16

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	creditStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	highlightStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("237"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("205"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

func (m ConsoleUI) View() string {
	if m.width == 0 || m.height == 0 {
		return "\n  Initializing..."
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	switch m.phase {
	case phasePick, phaseLoading:
		return m.renderPickModal()
	case phaseResult:
		return m.renderResultModal()
	}

	if m.showHistory {
		return m.renderHistoryModal()
	}
	if ex, ok := m.session.Examine(); ok {
		return m.renderExamineModal(ex)
	}
	return m.renderTrade()
}

func (m ConsoleUI) renderTrade() string {
	s := m.session
	paneWidth := max((m.width-6)/2, 20)

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPane(trade.Theirs, paneWidth),
		" ",
		m.renderPane(trade.Yours, paneWidth),
	)

	parts := []string{renderHeader(s.Header()), "", panes}
	if p, ok := s.Prompt(); ok {
		parts = append(parts, m.renderPrompt(p))
	} else if s.ShowItemInfo() {
		if info := s.ItemInfo(); info != "" {
			parts = append(parts, promptStyle.Render(wordwrap.String(info, m.width-4)))
		}
	}
	parts = append(parts, m.help.View(m.keys))
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func renderHeader(h negotiation.Header) string {
	balance := creditStyle.Render(h.Balance)
	if !h.Accepted {
		balance = errorStyle.Render(h.Balance)
	}
	line := titleStyle.Render(h.Title+" "+h.Name) + "   " + balance
	if h.CategoryMode {
		line += "   " + loadingStyle.Render("[category]")
	}
	if h.PendingCount > 0 {
		line += "   " + loadingStyle.Render(fmt.Sprintf("×%d", h.PendingCount))
	}
	return line
}

func (m ConsoleUI) renderPane(side trade.Side, width int) string {
	s := m.session
	inner := width - 4
	stats := s.PaneStats(side)

	title := stats.Label
	if stats.Focused {
		title = "▶ " + title
	}
	load := fmt.Sprintf("%s / %s   %s / %s",
		trade.FormatWeight(stats.UsedWeight), trade.FormatWeight(stats.MaxWeight),
		trade.FormatVolume(stats.UsedVolume), trade.FormatVolume(stats.MaxVolume))
	loadLine := promptStyle.Render(load)
	if stats.Overloaded() {
		loadLine = errorStyle.Render(load)
	}

	lines := []string{titleStyle.Render(title), loadLine}
	rows := s.Rows(side)
	if len(rows) == 0 {
		lines = append(lines, promptStyle.Render("Nothing to trade."))
	}
	for _, r := range rows {
		lines = append(lines, renderRow(r, inner))
	}

	cur, total := s.Page(side)
	footer := fmt.Sprintf("Page %d/%d", cur, total)
	if filter, editing := s.FilterText(side); editing {
		footer += "   Filter: " + filter + "_"
	} else if filter != "" {
		footer += "   Filter: " + filter
	}
	lines = append(lines, promptStyle.Render(footer))

	style := paneStyle
	if stats.Focused {
		style = focusedPaneStyle
	}
	return style.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func renderRow(r negotiation.Row, width int) string {
	if r.Category != "" {
		return categoryStyle.Render(r.Category)
	}

	hotkey := " "
	if r.Hotkey != 0 {
		hotkey = string(r.Hotkey)
	}
	name := r.Name
	if r.Quantity > 0 {
		name = fmt.Sprintf("%s (%d)", name, r.Quantity)
	}
	if r.Wielded {
		name += " [wielded]"
	}

	nameWidth := max(width-6-lipgloss.Width(r.Price), 4)
	name = truncate.StringWithTail(name, uint(nameWidth), "…")
	left := fmt.Sprintf("%s %s %s", hotkey, r.Mark, name)
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(r.Price), 1)
	price := priceStyle(r.PriceHint).Render(r.Price)

	var style lipgloss.Style
	switch {
	case r.Cursor:
		style = modalSelectedItemStyle
	case r.Highlight:
		style = highlightStyle
	case r.Selected:
		style = selectedStyle
	default:
		style = modalItemStyle
	}
	return style.Render(left+strings.Repeat(" ", gap)) + price
}

func priceStyle(h negotiation.PriceHint) lipgloss.Style {
	switch h {
	case negotiation.PriceGood:
		return creditStyle
	case negotiation.PriceBad:
		return errorStyle
	}
	return modalItemStyle
}

func (m ConsoleUI) renderPrompt(p negotiation.Prompt) string {
	var content strings.Builder
	switch p.Mode {
	case negotiation.ModeFilterEdit, negotiation.ModeQuantity:
		content.WriteString(modalTitleStyle.Render(p.Title))
		content.WriteString("\n")
		content.WriteString(m.input.View())
		if p.Hint != "" {
			content.WriteString("\n" + promptStyle.Render(p.Hint))
		}
		content.WriteString("\n" + promptStyle.Render("Enter to accept, Esc to cancel"))
	case negotiation.ModeConfirm:
		content.WriteString(wordwrap.String(p.Message, 56))
		content.WriteString("\n\n" + promptStyle.Render("Press Y to accept, N to keep haggling"))
	case negotiation.ModeNotice:
		content.WriteString(loadingStyle.Render(wordwrap.String(p.Message, 56)))
		content.WriteString("\n\n" + promptStyle.Render("Press any key"))
	}
	return modalStyle.Width(62).Render(content.String())
}

func (m ConsoleUI) renderExamineModal(ex negotiation.ExamineView) string {
	lines := ex.Lines[min(ex.Scroll, len(ex.Lines)):]
	if rows := max((m.height-chromeHeight)*2/3, 3); len(lines) > rows {
		lines = lines[:rows]
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(ex.Title))
	content.WriteString("\n\n")
	content.WriteString(strings.Join(lines, "\n"))
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("PgUp/PgDn to scroll, any other key to close"))
	return place(m.width, m.height, modalStyle.Width(min(m.width-4, 78)).Render(content.String()))
}

func (m ConsoleUI) renderHistoryModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Trades with " + m.np.Name()))
	content.WriteString("\n\n")
	content.WriteString(m.history.View())
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("↑/↓ to scroll, Esc to close"))
	return place(m.width, m.height, modalStyle.Render(content.String()))
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	if m.phase == phaseTrade {
		content.WriteString("The current trade will be abandoned.")
		content.WriteString("\n\n")
	}
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))
	return place(m.width, m.height, modalStyle.Width(50).Render(content.String()))
}

func (m ConsoleUI) renderPickModal() string {
	var content strings.Builder

	switch {
	case m.phase == phaseLoading:
		content.WriteString(modalTitleStyle.Render("Loading..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while the trader sets out their wares..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(wordwrap.String(errorText(m.err), 52)))
		content.WriteString("\n\n")
		content.WriteString(promptStyle.Render("Enter to retry, Esc to exit"))
	case len(m.traders) == 0:
		content.WriteString(modalTitleStyle.Render("No Traders"))
		content.WriteString("\n\n")
		content.WriteString("No trader definitions were found.")
		content.WriteString("\n\n")
		content.WriteString(promptStyle.Render("Esc to exit"))
	default:
		content.WriteString(modalTitleStyle.Render("Select a Trader"))
		content.WriteString("\n\n")
		for i, id := range m.traders {
			if i == m.selected {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", id)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", id)))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Esc to exit"))
	}

	return place(m.width, m.height, modalStyle.Width(60).Render(content.String()))
}

func (m ConsoleUI) renderResultModal() string {
	var content strings.Builder
	if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Trade Failed"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(wordwrap.String(errorText(m.err), 52)))
	} else {
		content.WriteString(modalTitleStyle.Render("Receipt"))
		content.WriteString("\n\n")
		content.WriteString(m.receipt)
	}
	content.WriteString("\n\n")
	if m.status != "" {
		content.WriteString(m.status + "\n\n")
	}
	content.WriteString(promptStyle.Render("C to copy, Enter to trade again, Esc to exit"))
	return place(m.width, m.height, modalStyle.Width(60).Render(content.String()))
}
