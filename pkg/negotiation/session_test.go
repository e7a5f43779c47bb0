package negotiation

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/barter-engine/pkg/actor"
	"github.com/jwebster45206/barter-engine/pkg/item"
	"github.com/jwebster45206/barter-engine/pkg/trade"
)

var (
	catTools = item.Category{ID: "tools", Name: "Tools", SortRank: 1}
	catFood  = item.Category{ID: "food", Name: "Food", SortRank: 2}
)

func goods(typeID, name string, cat item.Category, price, charges int) *item.Item {
	it := item.New(typeID, name, cat)
	it.Price = price
	it.MarketPrice = price
	it.Charges = charges
	it.Weight = 100
	it.Volume = 100
	it.Description = name + " for sale."
	return it
}

type fixture struct {
	player *actor.Character
	np     *actor.Character
	state  *trade.State
	s      *Session
}

// newFixture builds a session where theirs lists, in order:
// Axe, Rope (10), Saw, Apple (x3), Bread, and yours lists Knife, Jerky (5).
func newFixture(t *testing.T, profile *actor.TradeProfile, owed int, opts ...Option) *fixture {
	t.Helper()
	if profile == nil {
		profile = &actor.TradeProfile{MaxOwe: 1000}
	}
	np, err := actor.NewCharacterFromSpec(&actor.CharacterSpec{
		ID:       "trader",
		Name:     "Trader",
		Stats:    actor.Stats5e{Intelligence: 10},
		Capacity: actor.Capacity{WeightG: 100_000, VolumeML: 100_000},
		Inventory: []item.Stack{
			{goods("bread", "Bread", catFood, 100, 0)},
			{goods("saw", "Saw", catTools, 700, 0)},
			{goods("apple", "Apple", catFood, 50, 0), goods("apple", "Apple", catFood, 50, 0), goods("apple", "Apple", catFood, 50, 0)},
			{goods("rope", "Rope", catTools, 20, 10)},
			{goods("axe", "Axe", catTools, 900, 0)},
		},
		Trade: profile,
	})
	require.NoError(t, err)
	np.SetOwed(owed)

	player, err := actor.NewCharacterFromSpec(&actor.CharacterSpec{
		ID:       "player",
		Name:     "Player",
		Stats:    actor.Stats5e{Intelligence: 10},
		Capacity: actor.Capacity{WeightG: 100_000, VolumeML: 100_000},
		Inventory: []item.Stack{
			{goods("jerky", "Jerky", catFood, 30, 5)},
			{goods("knife", "Knife", catTools, 500, 0)},
		},
	})
	require.NoError(t, err)

	state := trade.SetupState(0, player, np, trade.DefaultEconomy())
	require.Len(t, state.Theirs, 5)
	require.Len(t, state.Yours, 2)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithLogger(logger)}, opts...)
	return &fixture{
		player: player,
		np:     np,
		state:  state,
		s:      New(state, player, np, opts...),
	}
}

func (f *fixture) offer(side trade.Side, typeID string) *trade.Offer {
	for _, o := range f.state.List(side) {
		if o.Front().TypeID == typeID {
			return o
		}
	}
	return nil
}

func typeIDs(list []*trade.Offer, filtered []int) []string {
	out := make([]string, 0, len(filtered))
	for _, i := range filtered {
		out = append(out, list[i].Front().TypeID)
	}
	return out
}

func TestSession_OfferOrder(t *testing.T) {
	f := newFixture(t, nil, 0)
	assert.Equal(t, []string{"axe", "rope", "saw", "apple", "bread"},
		typeIDs(f.state.Theirs, f.s.pane(trade.Theirs).filtered))
	assert.Equal(t, []string{"knife", "jerky"},
		typeIDs(f.state.Yours, f.s.pane(trade.Yours).filtered))
}

func TestSession_HotkeyTogglesSingleItem(t *testing.T) {
	f := newFixture(t, nil, 0)
	axe := f.offer(trade.Theirs, "axe")

	f.s.HandleRune('a')
	assert.True(t, axe.Selected)
	assert.Equal(t, 1, axe.Amount(trade.Theirs))
	assert.Equal(t, -900, f.state.Balance)

	f.s.HandleRune('a')
	assert.False(t, axe.Selected)
	assert.Equal(t, 0, f.state.Balance)
	assert.Equal(t, ModeBrowsing, f.s.Mode())
}

func TestSession_QuantityPrompt(t *testing.T) {
	f := newFixture(t, nil, 0)
	rope := f.offer(trade.Theirs, "rope")

	f.s.HandleRune('b')
	require.Equal(t, ModeQuantity, f.s.Mode())
	prompt, ok := f.s.Prompt()
	require.True(t, ok)
	assert.Equal(t, "Trade how many Rope [MAX: 10]: ", prompt.Title)
	assert.Equal(t, "10", prompt.Input)
	assert.Equal(t, "", prompt.Hint)

	f.s.SetInput("4")
	f.s.Handle(ActionConfirm)
	assert.Equal(t, ModeBrowsing, f.s.Mode())
	assert.Equal(t, 4, rope.Amount(trade.Theirs))
	assert.Equal(t, -80, f.state.Balance)

	// Selected offers toggle off without a prompt.
	f.s.HandleRune('b')
	assert.Equal(t, ModeBrowsing, f.s.Mode())
	assert.Equal(t, 0, rope.Amount(trade.Theirs))
}

func TestSession_QuantityPromptRejectsBadInput(t *testing.T) {
	for _, input := range []string{"abc", "0", "-3", ""} {
		t.Run(input, func(t *testing.T) {
			f := newFixture(t, nil, 0)
			rope := f.offer(trade.Theirs, "rope")

			f.s.HandleRune('b')
			f.s.SetInput(input)
			f.s.Handle(ActionConfirm)
			assert.Equal(t, ModeBrowsing, f.s.Mode())
			assert.Equal(t, 0, rope.Amount(trade.Theirs))
			assert.False(t, rope.Selected)
			assert.Equal(t, 0, f.state.Balance)
		})
	}
}

func TestSession_QuantityPromptClampsAndCancels(t *testing.T) {
	f := newFixture(t, nil, 0)
	rope := f.offer(trade.Theirs, "rope")

	f.s.HandleRune('b')
	f.s.Handle(ActionQuit)
	assert.Equal(t, ModeBrowsing, f.s.Mode())
	assert.False(t, rope.Selected)
	assert.False(t, f.s.Done(), "cancelling a prompt does not end the session")

	f.s.HandleRune('b')
	f.s.SetInput("")
	f.s.HandleRune('9')
	f.s.HandleRune('9')
	f.s.Handle(ActionConfirm)
	assert.Equal(t, 10, rope.Amount(trade.Theirs))
}

func TestSession_QuantityHints(t *testing.T) {
	f := newFixture(t, nil, 1000)

	f.s.HandleRune('b')
	prompt, _ := f.s.Prompt()
	assert.Equal(t, "Hint: You can buy up to 10 with your current balance.", prompt.Hint)
	f.s.Handle(ActionQuit)

	g := newFixture(t, &actor.TradeProfile{MaxCredit: 5000}, -100)
	g.s.Handle(ActionSwitchLists)
	g.s.HandleRune('b')
	prompt, _ = g.s.Prompt()
	assert.Equal(t, "Trade how many Jerky [MAX: 5]: ", prompt.Title)
	assert.Equal(t, "Hint: You'll need to offer 4 to even out the deal.", prompt.Hint)
}

func TestSession_PendingCountAppliesToRight(t *testing.T) {
	f := newFixture(t, nil, 0)
	rope := f.offer(trade.Theirs, "rope")

	f.s.Handle(ActionDown)
	f.s.HandleRune('3')
	count, ok := f.s.PendingCount()
	require.True(t, ok)
	assert.Equal(t, 3, count)

	f.s.Handle(ActionRight)
	assert.Equal(t, 3, rope.Amount(trade.Theirs))
	_, ok = f.s.PendingCount()
	assert.False(t, ok, "pending count is cleared after use")

	f.s.Handle(ActionRight)
	assert.Equal(t, 10, rope.Amount(trade.Theirs))

	f.s.HandleRune('4')
	f.s.Handle(ActionLeft)
	assert.Equal(t, 0, rope.Amount(trade.Theirs), "LEFT ignores the pending count")
	_, ok = f.s.PendingCount()
	assert.False(t, ok)

	f.s.HandleRune('2')
	f.s.HandleRune('5')
	f.s.Handle(ActionRight)
	assert.Equal(t, 10, rope.Amount(trade.Theirs), "pending count is clamped to the stock")
}

func TestSession_PendingZeroResets(t *testing.T) {
	f := newFixture(t, nil, 0)
	f.s.HandleRune('0')
	_, ok := f.s.PendingCount()
	assert.False(t, ok)
}

func TestSession_CursorWraps(t *testing.T) {
	f := newFixture(t, nil, 0)
	p := f.s.pane(trade.Theirs)

	f.s.Handle(ActionUp)
	assert.Equal(t, 4, p.cursor)
	f.s.Handle(ActionDown)
	assert.Equal(t, 0, p.cursor)
}

func TestSession_CategoryMode(t *testing.T) {
	f := newFixture(t, nil, 0)
	p := f.s.pane(trade.Theirs)

	f.s.Handle(ActionDown)
	f.s.Handle(ActionDown)
	f.s.Handle(ActionDown) // Apple
	f.s.Handle(ActionCategorySelection)
	require.True(t, f.s.CategoryMode())
	assert.Equal(t, 1, p.categoryCursor)
	assert.Equal(t, 3, p.cursor)

	f.s.Handle(ActionUp)
	assert.Equal(t, 0, p.categoryCursor)
	assert.Equal(t, 0, p.cursor)

	f.s.Handle(ActionRight)
	assert.Equal(t, 1, f.offer(trade.Theirs, "axe").Amount(trade.Theirs))
	assert.Equal(t, 10, f.offer(trade.Theirs, "rope").Amount(trade.Theirs))
	assert.Equal(t, 1, f.offer(trade.Theirs, "saw").Amount(trade.Theirs))
	assert.False(t, f.offer(trade.Theirs, "apple").Selected)
	assert.Equal(t, -1800, f.state.Balance)

	f.s.Handle(ActionDown)
	f.s.Handle(ActionDown)
	assert.Equal(t, 0, p.categoryCursor, "DOWN wraps over categories")

	f.s.Handle(ActionLeft)
	assert.Equal(t, 0, f.state.Balance)
	for _, o := range f.state.Theirs {
		assert.False(t, o.Selected)
	}
}

func TestSession_CategoryModeSwitchLists(t *testing.T) {
	f := newFixture(t, nil, 0)

	f.s.Handle(ActionSwitchLists)
	f.s.Handle(ActionCategorySelection)
	f.s.Handle(ActionDown)
	you := f.s.pane(trade.Yours)
	require.Equal(t, 1, you.categoryCursor)
	require.Equal(t, 1, you.cursor)

	f.s.Handle(ActionSwitchLists)
	assert.Equal(t, trade.Theirs, f.s.Focus())
	assert.Equal(t, 0, f.s.pane(trade.Theirs).cursor)

	// Moving the cursor away must not survive a switch back.
	you.cursor = 0
	f.s.Handle(ActionSwitchLists)
	assert.Equal(t, 1, you.cursor, "cursor is re-derived from the category cursor")
}

func TestSession_CategoryAutobalance(t *testing.T) {
	f := newFixture(t, nil, 1000)

	f.s.Handle(ActionCategorySelection)
	f.s.Handle(ActionAutobalance)
	assert.Equal(t, 1, f.offer(trade.Theirs, "axe").Amount(trade.Theirs))
	assert.Equal(t, 5, f.offer(trade.Theirs, "rope").Amount(trade.Theirs))
	assert.Equal(t, 0, f.offer(trade.Theirs, "saw").Amount(trade.Theirs))
	assert.Equal(t, 0, f.state.Balance)
}

func TestSession_SingleAutobalance(t *testing.T) {
	f := newFixture(t, nil, 1000)
	f.s.Handle(ActionDown)
	f.s.HandleRune('7')
	f.s.Handle(ActionAutobalance)

	assert.Equal(t, 10, f.offer(trade.Theirs, "rope").Amount(trade.Theirs))
	assert.Equal(t, 800, f.state.Balance)
	_, ok := f.s.PendingCount()
	assert.False(t, ok)
}

func TestSession_FilterCancelRestores(t *testing.T) {
	f := newFixture(t, nil, 0)
	p := f.s.pane(trade.Theirs)
	all := append([]int(nil), p.filtered...)

	f.s.Handle(ActionFilter)
	require.Equal(t, ModeFilterEdit, f.s.Mode())
	f.s.SetInput("c:food")
	assert.Equal(t, []string{"apple", "bread"}, typeIDs(f.state.Theirs, p.filtered), "live preview")
	text, editing := f.s.FilterText(trade.Theirs)
	assert.Equal(t, "c:food", text)
	assert.True(t, editing)

	f.s.Handle(ActionQuit)
	assert.Equal(t, ModeBrowsing, f.s.Mode())
	assert.Equal(t, all, p.filtered)
	text, editing = f.s.FilterText(trade.Theirs)
	assert.Equal(t, "", text)
	assert.False(t, editing)
}

func TestSession_FilterConfirmAndReset(t *testing.T) {
	f := newFixture(t, nil, 0)
	p := f.s.pane(trade.Theirs)
	for i := 0; i < 4; i++ {
		f.s.Handle(ActionDown)
	}
	require.Equal(t, 4, p.cursor)

	f.s.Handle(ActionFilter)
	for _, r := range "axe" {
		f.s.HandleRune(r)
	}
	f.s.Handle(ActionConfirm)
	assert.Equal(t, []string{"axe"}, typeIDs(f.state.Theirs, p.filtered))
	assert.Equal(t, 0, p.cursor, "cursor clamps to the shorter list")
	text, _ := f.s.FilterText(trade.Theirs)
	assert.Equal(t, "axe", text)

	// The other pane is not filtered.
	assert.Len(t, f.s.pane(trade.Yours).filtered, 2)

	first := append([]int(nil), p.filtered...)
	f.s.Handle(ActionFilter)
	f.s.Handle(ActionConfirm)
	assert.Equal(t, first, p.filtered, "re-applying a filter changes nothing")

	f.s.Handle(ActionResetFilter)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, p.filtered)
}

func TestSession_HotkeysFollowFilter(t *testing.T) {
	f := newFixture(t, nil, 0)
	f.s.Handle(ActionFilter)
	f.s.SetInput("c:food")
	f.s.Handle(ActionConfirm)

	f.s.HandleRune('b')
	assert.True(t, f.offer(trade.Theirs, "bread").Selected)
	assert.False(t, f.offer(trade.Theirs, "rope").Selected)
}

func TestSession_Paging(t *testing.T) {
	f := newFixture(t, nil, 0, WithPageSize(2))
	p := f.s.pane(trade.Theirs)

	cur, total := f.s.Page(trade.Theirs)
	assert.Equal(t, 1, cur)
	assert.Equal(t, 3, total)

	f.s.Handle(ActionPageDown)
	assert.Equal(t, 2, p.offset)
	assert.Equal(t, 2, p.cursor)
	cur, _ = f.s.Page(trade.Theirs)
	assert.Equal(t, 2, cur)

	f.s.HandleRune('a')
	assert.True(t, f.offer(trade.Theirs, "saw").Selected, "hotkeys are relative to the page")

	f.s.Handle(ActionPageDown)
	f.s.Handle(ActionPageDown)
	assert.Equal(t, 4, p.offset)
	assert.Equal(t, 4, p.cursor)

	f.s.Handle(ActionPageUp)
	assert.Equal(t, 2, p.offset)
	f.s.Handle(ActionPageUp)
	f.s.Handle(ActionPageUp)
	assert.Equal(t, 0, p.offset)
	assert.Equal(t, 0, p.cursor)
}

func TestSession_Examine(t *testing.T) {
	f := newFixture(t, nil, 0)

	f.s.Handle(ActionExamine)
	require.Equal(t, ModeExamine, f.s.Mode())
	view, ok := f.s.Examine()
	require.True(t, ok)
	assert.Equal(t, "Axe", view.Title)
	assert.Contains(t, strings.Join(view.Lines, "\n"), "Axe for sale.")

	f.s.Handle(ActionDown)
	assert.Equal(t, ModeBrowsing, f.s.Mode())
	assert.Equal(t, 1, f.s.pane(trade.Theirs).cursor)

	f.s.Handle(ActionExamine)
	f.s.Handle(ActionPageDown)
	assert.Equal(t, ModeExamine, f.s.Mode(), "paging scrolls the popup")
	f.s.Handle(ActionQuit)
	assert.Equal(t, ModeBrowsing, f.s.Mode())
	assert.False(t, f.s.Done(), "closing the popup does not end the session")

	f.s.Handle(ActionCategorySelection)
	f.s.Handle(ActionExamine)
	assert.Equal(t, ModeBrowsing, f.s.Mode(), "no popup in category mode")
}

func TestSession_ConfirmNeedsMoreOffer(t *testing.T) {
	f := newFixture(t, nil, 0)

	f.s.Handle(ActionConfirm)
	require.Equal(t, ModeNotice, f.s.Mode())
	prompt, _ := f.s.Prompt()
	assert.Equal(t, "You'll need to offer me more than that.", prompt.Message)

	f.s.Handle(ActionDown)
	assert.Equal(t, ModeBrowsing, f.s.Mode(), "any input dismisses a notice")
	assert.Equal(t, 0, f.s.pane(trade.Theirs).cursor, "dismissing input is not replayed")
}

func TestSession_ConfirmCreditLimit(t *testing.T) {
	f := newFixture(t, &actor.TradeProfile{MaxCredit: 500}, 0)
	f.s.HandleRune('a')

	f.s.Handle(ActionConfirm)
	prompt, _ := f.s.Prompt()
	assert.Equal(t, "Sorry, I'm only willing to extend you $5.00 in credit.", prompt.Message)
	assert.False(t, f.s.Done())
}

func TestSession_ConfirmOverCapacity(t *testing.T) {
	f := newFixture(t, nil, 0)
	f.np.Spec.Capacity = actor.Capacity{WeightG: 50, VolumeML: 100_000}
	f.state = trade.SetupState(0, f.player, f.np, trade.DefaultEconomy())
	f.s = New(f.state, f.player, f.np, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	f.s.Handle(ActionSwitchLists)
	f.s.HandleRune('a') // Knife
	require.Less(t, f.state.WeightLeft, int64(0))

	f.s.Handle(ActionConfirm)
	prompt, _ := f.s.Prompt()
	assert.Equal(t, "Trader can't carry all that.", prompt.Message)
}

func TestSession_ConfirmDebtCap(t *testing.T) {
	f := newFixture(t, &actor.TradeProfile{MaxOwe: 100}, 0)
	f.s.Handle(ActionSwitchLists)
	f.s.HandleRune('a')

	f.s.Handle(ActionConfirm)
	require.Equal(t, ModeConfirm, f.s.Mode())
	prompt, _ := f.s.Prompt()
	assert.Contains(t, prompt.Message, "The most I'm willing to owe you is $1.00.")
	assert.True(t, strings.HasSuffix(prompt.Message, "Continue with trade?"))

	f.s.HandleRune('n')
	assert.Equal(t, ModeBrowsing, f.s.Mode())
	assert.False(t, f.s.Done())
}

func TestSession_ConfirmDebtCapKeepsLargerOldDebt(t *testing.T) {
	f := newFixture(t, &actor.TradeProfile{MaxOwe: 100}, 400)
	f.s.Handle(ActionSwitchLists)
	f.s.HandleRune('a')
	require.Greater(t, f.state.Balance, 400)

	f.s.Handle(ActionConfirm)
	require.Equal(t, ModeConfirm, f.s.Mode())
	prompt, _ := f.s.Prompt()
	assert.Contains(t, prompt.Message, "The most I'm willing to owe you is $4.00.")
}

func TestSession_ConfirmDeal(t *testing.T) {
	f := newFixture(t, nil, 0)
	f.s.Handle(ActionSwitchLists)
	f.s.HandleRune('a')

	f.s.Handle(ActionConfirm)
	prompt, _ := f.s.Prompt()
	assert.Equal(t, "Looks like a deal!  Accept this trade?", prompt.Message)

	f.s.Handle(ActionQuit)
	assert.Equal(t, ModeBrowsing, f.s.Mode())
	assert.Equal(t, OutcomePending, f.s.Outcome())

	f.s.Handle(ActionConfirm)
	f.s.HandleRune('y')
	assert.Equal(t, OutcomeCommitted, f.s.Outcome())

	// A finished session ignores input.
	f.s.HandleRune('b')
	assert.False(t, f.offer(trade.Yours, "jerky").Selected)
}

func TestSession_Quit(t *testing.T) {
	f := newFixture(t, nil, 0)
	f.s.Handle(ActionQuit)
	assert.True(t, f.s.Done())
	assert.Equal(t, OutcomeCancelled, f.s.Outcome())
}

func TestSession_AmountsStayInBounds(t *testing.T) {
	f := newFixture(t, &actor.TradeProfile{MaxCredit: 10_000, MaxOwe: 500}, 300, WithPageSize(3))
	rng := rand.New(rand.NewPCG(7, 11))
	actions := []Action{
		ActionSwitchLists, ActionUp, ActionDown, ActionLeft, ActionRight,
		ActionCategorySelection, ActionPageUp, ActionPageDown, ActionAutobalance,
		ActionExamine, ActionToggleItemInfo,
	}
	runes := []rune("abc0123456789")

	for step := 0; step < 2000; step++ {
		switch f.s.Mode() {
		case ModeQuantity:
			f.s.SetInput(string(runes[3+rng.IntN(10)]))
			f.s.Handle(ActionConfirm)
		case ModeBrowsing:
			if rng.IntN(3) == 0 {
				f.s.HandleRune(runes[rng.IntN(len(runes))])
			} else {
				f.s.Handle(actions[rng.IntN(len(actions))])
			}
		default:
			f.s.Handle(ActionQuit)
		}

		for _, side := range trade.Sides {
			for _, o := range f.state.List(side) {
				amount := o.Amount(side)
				if amount < 0 || amount > o.MaxAmount() {
					t.Fatalf("step %d: %s amount %d outside [0, %d]", step, o.Front().Name, amount, o.MaxAmount())
				}
				if o.Selected != (amount > 0) {
					t.Fatalf("step %d: %s selected=%v with amount %d", step, o.Front().Name, o.Selected, amount)
				}
			}
		}
	}
	assert.False(t, f.s.Done())
}
