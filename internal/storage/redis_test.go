package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/barter-engine/pkg/actor"
	"github.com/jwebster45206/barter-engine/pkg/item"
	"github.com/jwebster45206/barter-engine/pkg/storage"
)

func setupTestRedis(t *testing.T, dataDir string) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s := NewRedisStorage(mr.Addr(), dataDir, logger)
	t.Cleanup(func() {
		_ = s.Close()
		mr.Close()
	})
	return s, mr
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRedisStorage_Ping(t *testing.T) {
	s, mr := setupTestRedis(t, t.TempDir())
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Expected ping to succeed, got: %v", err)
	}
	if err := s.WaitForConnection(ctx, 3, time.Millisecond); err != nil {
		t.Errorf("Expected connection, got: %v", err)
	}

	mr.Close()
	if err := s.Ping(ctx); err == nil {
		t.Error("Expected ping to fail after shutdown")
	}
	if err := s.WaitForConnection(ctx, 2, time.Millisecond); err == nil {
		t.Error("Expected WaitForConnection to give up")
	}
}

func TestRedisStorage_Relationship(t *testing.T) {
	s, mr := setupTestRedis(t, t.TempDir())
	ctx := context.Background()

	missing, err := s.LoadRelationship(ctx, "player", "smith")
	if err != nil {
		t.Fatalf("Expected no error for unknown relationship, got: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for unknown relationship")
	}

	rel := &actor.Relationship{NPCID: "smith", Owed: -2500}
	require.NoError(t, s.SaveRelationship(ctx, "player", rel))
	assert.False(t, rel.UpdatedAt.IsZero(), "save stamps the update time")
	assert.True(t, mr.Exists("relationship:player:smith"))
	assert.Equal(t, time.Duration(0), mr.TTL("relationship:player:smith"), "debts never expire")

	loaded, err := s.LoadRelationship(ctx, "player", "smith")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "smith", loaded.NPCID)
	assert.Equal(t, -2500, loaded.Owed)

	assert.Error(t, s.SaveRelationship(ctx, "player", nil))

	require.NoError(t, mr.Set("relationship:player:broken", "{not json"))
	_, err = s.LoadRelationship(ctx, "player", "broken")
	assert.Error(t, err)
}

func TestRedisStorage_Character(t *testing.T) {
	s, _ := setupTestRedis(t, t.TempDir())
	ctx := context.Background()

	c, err := actor.NewCharacterFromSpec(&actor.CharacterSpec{
		ID:         "player",
		Name:       "Player",
		Stats:      actor.Stats5e{Intelligence: 14},
		Attributes: map[string]int{actor.SkillBarter: 2},
		Capacity:   actor.Capacity{WeightG: 40_000, VolumeML: 30_000},
		Inventory: []item.Stack{
			{item.New("knife", "Knife", item.Category{ID: "tools", Name: "Tools"})},
		},
	})
	require.NoError(t, err)
	require.NoError(t, s.SaveCharacter(ctx, c))

	loaded, err := s.LoadCharacter(ctx, "player")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Player", loaded.Name())
	assert.Equal(t, 14, loaded.Intelligence())
	assert.Equal(t, 2, loaded.SkillLevel(actor.SkillBarter))
	assert.Equal(t, int64(40_000), loaded.WeightCapacity())
	require.Len(t, loaded.Inventory(), 1)
	assert.Equal(t, c.Inventory()[0][0].ID, loaded.Inventory()[0][0].ID)

	missing, err := s.LoadCharacter(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	assert.Error(t, s.SaveCharacter(ctx, nil))
}

func TestRedisStorage_CharacterSnapshotEncoding(t *testing.T) {
	s, mr := setupTestRedis(t, t.TempDir())
	ctx := context.Background()

	c, err := actor.NewCharacterFromSpec(&actor.CharacterSpec{
		ID:       "wren",
		Name:     "Wren",
		Capacity: actor.Capacity{WeightG: 40_000, VolumeML: 30_000},
	})
	require.NoError(t, err)
	require.NoError(t, s.SaveCharacter(ctx, c))

	raw, err := mr.Get(characterKey("wren"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, string(zstdMagic)), "snapshot should be zstd-compressed")

	// Plain JSON snapshots from older versions still load.
	plain, err := json.Marshal(c)
	require.NoError(t, err)
	require.NoError(t, mr.Set(characterKey("legacy"), string(plain)))
	legacy, err := s.LoadCharacter(ctx, "legacy")
	require.NoError(t, err)
	require.NotNil(t, legacy)
	assert.Equal(t, "Wren", legacy.Name())

	require.NoError(t, mr.Set(characterKey("corrupt"), string(zstdMagic)+"garbage"))
	_, err = s.LoadCharacter(ctx, "corrupt")
	assert.Error(t, err)
}

func TestRedisStorage_TradeLog(t *testing.T) {
	s, _ := setupTestRedis(t, t.TempDir())
	ctx := context.Background()

	empty, err := s.ListTradeRecords(ctx, "smith", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for i := 1; i <= maxTradeRecords+5; i++ {
		require.NoError(t, s.AppendTradeRecord(ctx, &storage.TradeRecord{NPCID: "smith", Given: i}))
	}

	all, err := s.ListTradeRecords(ctx, "smith", 0)
	require.NoError(t, err)
	require.Len(t, all, maxTradeRecords, "the log is trimmed")
	assert.Equal(t, 6, all[0].Given)
	assert.Equal(t, maxTradeRecords+5, all[len(all)-1].Given)

	newest, err := s.ListTradeRecords(ctx, "smith", 3)
	require.NoError(t, err)
	require.Len(t, newest, 3)
	assert.Equal(t, maxTradeRecords+3, newest[0].Given)

	other, err := s.ListTradeRecords(ctx, "baker", 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRedisStorage_Definitions(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "traders", "smith.json"), `{
		"id": "ignored",
		"name": "Smith",
		"faction": "guild",
		"stats": {"intelligence": 11},
		"trade": {"shopkeeper": true, "max_credit": 1000}
	}`)
	writeFile(t, filepath.Join(dataDir, "traders", "notes.txt"), "not a trader")
	writeFile(t, filepath.Join(dataDir, "players", "player.json"), `{"name": "Player"}`)
	writeFile(t, filepath.Join(dataDir, "factions", "guild.json"), `{"name": "Merchants' Guild", "currency": "coin"}`)
	writeFile(t, filepath.Join(dataDir, "factions", "broken.json"), `{`)

	s, _ := setupTestRedis(t, dataDir)
	ctx := context.Background()

	traders, err := s.ListTraders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"smith"}, traders)

	spec, err := s.GetTraderSpec(ctx, "smith")
	require.NoError(t, err)
	assert.Equal(t, "smith", spec.ID, "filename overrides the ID in the file")
	assert.Equal(t, "guild", spec.FactionID)
	require.NotNil(t, spec.Trade)
	assert.True(t, spec.Trade.Shopkeeper)
	assert.Equal(t, 1000, spec.Trade.MaxCredit)

	_, err = s.GetTraderSpec(ctx, "nobody")
	assert.EqualError(t, err, "trader not found: nobody")

	player, err := s.GetPlayerSpec(ctx, "player")
	require.NoError(t, err)
	assert.Equal(t, "player", player.ID)

	guild, err := s.GetFaction(ctx, "guild")
	require.NoError(t, err)
	assert.Equal(t, "guild", guild.ID)
	assert.Equal(t, "coin", guild.Currency)

	none, err := s.GetFaction(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, none)

	_, err = s.GetFaction(ctx, "broken")
	assert.Error(t, err)
	_, err = s.GetFaction(ctx, "nobody")
	assert.Error(t, err)

	factions, err := s.ListFactions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"guild", "broken"}, factions)
}

func TestRedisStorage_MissingDataDirs(t *testing.T) {
	s, _ := setupTestRedis(t, t.TempDir())
	ctx := context.Background()

	traders, err := s.ListTraders(ctx)
	require.NoError(t, err)
	assert.Empty(t, traders)

	factions, err := s.ListFactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, factions)
}
