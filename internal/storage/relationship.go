package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/barter-engine/pkg/actor"
)

// Relationship operations (Redis-backed)

func relationshipKey(playerID, npcID string) string {
	return "relationship:" + playerID + ":" + npcID
}

func (r *RedisStorage) SaveRelationship(ctx context.Context, playerID string, rel *actor.Relationship) error {
	if rel == nil {
		return errors.New("relationship cannot be nil")
	}
	rel.UpdatedAt = time.Now()

	data, err := json.Marshal(rel)
	if err != nil {
		r.logger.Error("Failed to marshal relationship", "npc_id", rel.NPCID, "error", err)
		return fmt.Errorf("failed to marshal relationship: %w", err)
	}

	// Debts are remembered indefinitely
	key := relationshipKey(playerID, rel.NPCID)
	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save relationship", "npc_id", rel.NPCID, "error", err)
		return fmt.Errorf("failed to save relationship: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadRelationship(ctx context.Context, playerID, npcID string) (*actor.Relationship, error) {
	cmd := r.client.Get(ctx, relationshipKey(playerID, npcID))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Relationship not found", "player_id", playerID, "npc_id", npcID)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load relationship", "npc_id", npcID, "error", err)
		return nil, fmt.Errorf("failed to load relationship: %w", err)
	}

	var rel actor.Relationship
	if err := json.Unmarshal([]byte(cmd.Val()), &rel); err != nil {
		r.logger.Error("Failed to unmarshal relationship", "npc_id", npcID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal relationship: %w", err)
	}
	return &rel, nil
}
