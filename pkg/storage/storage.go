package storage

import (
	"context"
	"time"

	"github.com/jwebster45206/barter-engine/pkg/actor"
)

// TradeRecord is the log entry written when a trade is committed.
type TradeRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	PlayerID  string    `json:"player_id"`
	NPCID     string    `json:"npc_id"`
	Given     int       `json:"given"`    // offers handed to the NPC
	Received  int       `json:"received"` // offers taken from the NPC
	Balance   int       `json:"balance"`  // cents, before debt settlement
	Owed      int       `json:"owed"`     // debt the NPC remembers afterwards
	Practice  int       `json:"practice"`
	At        time.Time `json:"at"`
}

// Storage defines a unified interface for all storage operations
// This interface combines trade memory persistence (Redis) with definition loading (filesystem)
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Relationship operations (Redis-backed)
	// LoadRelationship returns nil, nil when the NPC has never traded with the player
	SaveRelationship(ctx context.Context, playerID string, rel *actor.Relationship) error
	LoadRelationship(ctx context.Context, playerID, npcID string) (*actor.Relationship, error)

	// Character snapshots (Redis-backed), written after every committed trade
	SaveCharacter(ctx context.Context, c *actor.Character) error
	LoadCharacter(ctx context.Context, id string) (*actor.Character, error)

	// Trade log (Redis-backed), newest last
	AppendTradeRecord(ctx context.Context, rec *TradeRecord) error
	ListTradeRecords(ctx context.Context, npcID string, limit int) ([]TradeRecord, error)

	// Definition operations (filesystem-backed, returns specs not characters)
	// Use actor.NewCharacterFromSpec to build the runtime character
	GetTraderSpec(ctx context.Context, traderID string) (*actor.CharacterSpec, error)
	ListTraders(ctx context.Context) ([]string, error)
	GetPlayerSpec(ctx context.Context, playerID string) (*actor.CharacterSpec, error)
	GetFaction(ctx context.Context, factionID string) (*actor.Faction, error)
	ListFactions(ctx context.Context) ([]string, error)
}
