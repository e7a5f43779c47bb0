package trade

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/barter-engine/pkg/actor"
)

func TestCommit_SplitsCharges(t *testing.T) {
	np := newNPC(t, nil, stackOf(newCharges("rope", "Rope", catTools, 20, 10)))
	np.SetOwed(1000)
	player := newPlayer(t)

	s := SetupState(0, player, np, DefaultEconomy())
	s.ApplyChange(Theirs, s.Theirs[0], 4, false)
	require.Equal(t, 920, s.Balance)

	res, err := Commit(s, player, np, DefaultEconomy())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Received)
	assert.Equal(t, 920, res.Owed)
	assert.Equal(t, 920, np.Owed())

	require.Len(t, np.Inventory(), 1)
	assert.Equal(t, 6, np.Inventory()[0].Front().Charges)

	require.Len(t, player.Inventory(), 1)
	got := player.Inventory()[0].Front()
	assert.Equal(t, "rope", got.TypeID)
	assert.Equal(t, 4, got.Charges)
	assert.Equal(t, "player", got.Owner)
	assert.NotEqual(t, np.Inventory()[0].Front().ID, got.ID)
}

func TestCommit_MovesWholeItems(t *testing.T) {
	knives := stackOf(
		newTestItem("knife", "Knife", catTools, 500),
		newTestItem("knife", "Knife", catTools, 500),
		newTestItem("knife", "Knife", catTools, 500),
	)
	kept := knives[2]
	player := newPlayer(t, knives)
	np := newNPC(t, &actor.TradeProfile{MaxOwe: 5_000})

	s := SetupState(0, player, np, DefaultEconomy())
	require.Len(t, s.Yours, 1)
	s.ApplyChange(Yours, s.Yours[0], 2, false)

	res, err := Commit(s, player, np, DefaultEconomy())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Given)

	require.Len(t, player.Inventory(), 1)
	assert.Len(t, player.Inventory()[0], 1)
	assert.Same(t, kept, player.Inventory()[0][0])
	require.Len(t, np.Inventory(), 1)
	assert.Len(t, np.Inventory()[0], 2)
	for _, it := range np.Inventory()[0] {
		assert.Equal(t, "trader", it.Owner)
	}
	assert.Equal(t, 1000, np.Owed())
}

func TestCommit_MissingGoodsMoveNothing(t *testing.T) {
	anvil := newTestItem("anvil", "Anvil", catTools, 300)
	np := newNPC(t, &actor.TradeProfile{MaxOwe: 5_000}, stackOf(anvil))
	np.SetOwed(200)
	player := newPlayer(t, stackOf(newTestItem("knife", "Knife", catTools, 500)))

	s := SetupState(0, player, np, DefaultEconomy())
	s.ApplyChange(Yours, findOffer(t, s.Yours, "knife"), 1, false)
	s.ApplyChange(Theirs, findOffer(t, s.Theirs, "anvil"), 1, false)
	require.True(t, WillAcceptTrade(s, np))

	// The anvil leaves the trader's hands while the deal is on the table.
	require.True(t, np.Detach(anvil))

	_, err := Commit(s, player, np, DefaultEconomy())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGoodsUnavailable))
	require.Len(t, player.Inventory(), 1)
	assert.Equal(t, "knife", player.Inventory()[0].Front().TypeID)
	assert.Equal(t, "player", player.Inventory()[0].Front().Owner)
	assert.Empty(t, np.Inventory())
	assert.Equal(t, 200, np.Owed())
}

func TestCheckTransfer_ChargesBeyondStack(t *testing.T) {
	np := newNPC(t, nil, stackOf(newCharges("rope", "Rope", catTools, 20, 10)))
	player := newPlayer(t)

	s := SetupState(0, player, np, DefaultEconomy())
	rope := s.Theirs[0]
	s.ApplyChange(Theirs, rope, 8, true)
	require.NoError(t, CheckTransfer(s.Theirs, Theirs, np))

	rope.Front().Charges = 5
	assert.True(t, errors.Is(CheckTransfer(s.Theirs, Theirs, np), ErrGoodsUnavailable))
	assert.NoError(t, CheckTransfer(s.Yours, Yours, player))
}

func TestCommit_RejectedLeavesGoods(t *testing.T) {
	np := newNPC(t, nil, stackOf(newTestItem("knife", "Knife", catTools, 500)))
	player := newPlayer(t)

	s := SetupState(0, player, np, DefaultEconomy())
	s.ApplyChange(Theirs, s.Theirs[0], 1, false)

	_, err := Commit(s, player, np, DefaultEconomy())
	assert.True(t, errors.Is(err, ErrTradeRejected))
	assert.Len(t, np.Inventory(), 1)
	assert.Empty(t, player.Inventory())
	assert.Equal(t, 0, np.Owed())
}

func TestCommit_RefusedOverCapacity(t *testing.T) {
	player := newPlayer(t, stackOf(newTestItem("anvil", "Anvil", catTools, 5000)))
	np := newNPC(t, &actor.TradeProfile{MaxCredit: 100_000})
	np.Spec.Capacity = actor.Capacity{WeightG: 50, VolumeML: 50_000}

	s := SetupState(0, player, np, DefaultEconomy())
	s.ApplyChange(Yours, s.Yours[0], 1, false)
	require.True(t, WillAcceptTrade(s, np))
	require.Less(t, s.WeightLeft, int64(0))

	_, err := Commit(s, player, np, DefaultEconomy())
	assert.True(t, errors.Is(err, ErrOverCapacity))
	assert.Len(t, player.Inventory(), 1)
	assert.Empty(t, np.Inventory())
}

func TestCommit_CapsRememberedDebt(t *testing.T) {
	player := newPlayer(t, stackOf(newTestItem("gem", "Gem", catTools, 100_000)))
	np := newNPC(t, &actor.TradeProfile{MaxOwe: 2_000})

	s := SetupState(0, player, np, DefaultEconomy())
	s.ApplyChange(Yours, s.Yours[0], 1, false)

	res, err := Commit(s, player, np, DefaultEconomy())
	require.NoError(t, err)
	assert.Equal(t, 2_000, res.Owed)
	assert.Equal(t, 10, res.Practice)
	assert.Equal(t, 10, player.Spec.Practice[actor.SkillBarter])
}

func TestCommit_FreelyExchangingSkipsDebt(t *testing.T) {
	np := newNPC(t, &actor.TradeProfile{Companion: true}, stackOf(newTestItem("knife", "Knife", catTools, 500)))
	np.SetOwed(700)
	player := newPlayer(t)

	s := SetupState(0, player, np, DefaultEconomy())
	s.ApplyChange(Theirs, s.Theirs[0], 1, true)

	res, err := Commit(s, player, np, DefaultEconomy())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Received)
	assert.Equal(t, 700, np.Owed())
	assert.Len(t, player.Inventory(), 1)
}

func TestPayFromDebt(t *testing.T) {
	np := newNPC(t, nil)
	np.SetOwed(500)

	assert.True(t, PayFromDebt(np, 300))
	assert.Equal(t, 200, np.Owed())

	assert.False(t, PayFromDebt(np, 300))
	assert.Equal(t, 200, np.Owed())
}
