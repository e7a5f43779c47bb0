package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/barter-engine/pkg/actor"
)

// Definition operations (filesystem-backed)

func (r *RedisStorage) GetTraderSpec(ctx context.Context, traderID string) (*actor.CharacterSpec, error) {
	return r.loadSpec("traders", traderID)
}

func (r *RedisStorage) ListTraders(ctx context.Context) ([]string, error) {
	return r.listIDs("traders")
}

func (r *RedisStorage) GetPlayerSpec(ctx context.Context, playerID string) (*actor.CharacterSpec, error) {
	return r.loadSpec("players", playerID)
}

func (r *RedisStorage) GetFaction(ctx context.Context, factionID string) (*actor.Faction, error) {
	if factionID == "" {
		return nil, nil // No faction specified
	}

	path := filepath.Join(r.dataDir, "factions", factionID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("faction not found: %s", factionID)
		}
		return nil, fmt.Errorf("failed to read faction file %s: %w", path, err)
	}

	var f actor.Faction
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse faction JSON from %s: %w", path, err)
	}
	f.ID = factionID // Ensure ID is set from filename
	return &f, nil
}

func (r *RedisStorage) ListFactions(ctx context.Context) ([]string, error) {
	return r.listIDs("factions")
}

// loadSpec reads dataDir/dir/id.json. The filename overrides any ID in the JSON.
func (r *RedisStorage) loadSpec(dir, id string) (*actor.CharacterSpec, error) {
	path := filepath.Join(r.dataDir, dir, id+".json")
	r.logger.Debug("Loading character spec", "id", id, "full_path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s not found: %s", strings.TrimSuffix(dir, "s"), id)
		}
		return nil, fmt.Errorf("failed to read character file: %w", err)
	}

	var spec actor.CharacterSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal character spec: %w", err)
	}
	spec.ID = id
	return &spec, nil
}

func (r *RedisStorage) listIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.dataDir, dir))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s directory: %w", dir, err)
	}

	ids := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	return ids, nil
}
