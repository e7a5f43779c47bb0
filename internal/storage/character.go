package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/barter-engine/pkg/actor"
)

// Character snapshot operations (Redis-backed)

func characterKey(id string) string {
	return "character:" + id
}

func (r *RedisStorage) SaveCharacter(ctx context.Context, c *actor.Character) error {
	if c == nil || c.Spec == nil {
		return errors.New("character cannot be nil")
	}

	data, err := json.Marshal(c)
	if err != nil {
		r.logger.Error("Failed to marshal character", "character_id", c.ID(), "error", err)
		return fmt.Errorf("failed to marshal character: %w", err)
	}

	packed, err := compressSnapshot(data)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, characterKey(c.ID()), packed, 0).Err(); err != nil {
		r.logger.Error("Failed to save character", "character_id", c.ID(), "error", err)
		return fmt.Errorf("failed to save character: %w", err)
	}
	return nil
}

// LoadCharacter returns nil, nil when no snapshot exists. The faction and
// relationship are not part of the snapshot.
func (r *RedisStorage) LoadCharacter(ctx context.Context, id string) (*actor.Character, error) {
	cmd := r.client.Get(ctx, characterKey(id))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to load character", "character_id", id, "error", err)
		return nil, fmt.Errorf("failed to load character: %w", err)
	}

	data, err := decompressSnapshot([]byte(cmd.Val()))
	if err != nil {
		r.logger.Error("Failed to read character snapshot", "character_id", id, "error", err)
		return nil, err
	}

	var c actor.Character
	if err := json.Unmarshal(data, &c); err != nil {
		r.logger.Error("Failed to unmarshal character", "character_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal character: %w", err)
	}
	return &c, nil
}
