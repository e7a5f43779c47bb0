package main

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/barter-engine/pkg/negotiation"
)

// Letters and digits are item hotkeys and counts, so bound commands use
// arrows, punctuation and control keys only.
type keyMap struct {
	SwitchLists key.Binding
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Filter      key.Binding
	ResetFilter key.Binding
	Category    key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Examine     key.Binding
	Autobalance key.Binding
	ItemInfo    key.Binding
	Confirm     key.Binding
	Quit        key.Binding

	History   key.Binding
	Help      key.Binding
	ForceQuit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		SwitchLists: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch lists")),
		Up:          key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:        key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Left:        key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "less")),
		Right:       key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "more")),
		Filter:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		ResetFilter: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset filter")),
		Category:    key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "category mode")),
		PageUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "prev page")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "next page")),
		Examine:     key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "examine")),
		Autobalance: key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "autobalance")),
		ItemInfo:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "description")),
		Confirm:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Quit:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),

		History:   key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", "history")),
		Help:      key.NewBinding(key.WithKeys("f1", "?"), key.WithHelp("?", "help")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// action maps a key press to a session action, or ActionNone.
func (k keyMap) action(msg tea.KeyMsg) negotiation.Action {
	bindings := []struct {
		binding key.Binding
		action  negotiation.Action
	}{
		{k.SwitchLists, negotiation.ActionSwitchLists},
		{k.Up, negotiation.ActionUp},
		{k.Down, negotiation.ActionDown},
		{k.Left, negotiation.ActionLeft},
		{k.Right, negotiation.ActionRight},
		{k.Filter, negotiation.ActionFilter},
		{k.ResetFilter, negotiation.ActionResetFilter},
		{k.Category, negotiation.ActionCategorySelection},
		{k.PageUp, negotiation.ActionPageUp},
		{k.PageDown, negotiation.ActionPageDown},
		{k.Examine, negotiation.ActionExamine},
		{k.Autobalance, negotiation.ActionAutobalance},
		{k.ItemInfo, negotiation.ActionToggleItemInfo},
		{k.Confirm, negotiation.ActionConfirm},
		{k.Quit, negotiation.ActionQuit},
	}
	for _, b := range bindings {
		if key.Matches(msg, b.binding) {
			return b.action
		}
	}
	return negotiation.ActionNone
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SwitchLists, k.Right, k.Autobalance, k.Confirm, k.Quit, k.Help}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown},
		{k.SwitchLists, k.Filter, k.ResetFilter, k.Category},
		{k.Examine, k.ItemInfo, k.Autobalance, k.History},
		{k.Confirm, k.Quit, k.Help, k.ForceQuit},
	}
}
