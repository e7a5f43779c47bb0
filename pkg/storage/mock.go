package storage

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/jwebster45206/barter-engine/pkg/actor"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu            sync.RWMutex
	relationships map[string]*actor.Relationship
	characters    map[string][]byte
	tradeLog      map[string][]TradeRecord
	traderSpecs   map[string]*actor.CharacterSpec
	playerSpecs   map[string]*actor.CharacterSpec
	factions      map[string]*actor.Faction
	pingError     error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		relationships: make(map[string]*actor.Relationship),
		characters:    make(map[string][]byte),
		tradeLog:      make(map[string][]TradeRecord),
		traderSpecs:   make(map[string]*actor.CharacterSpec),
		playerSpecs:   make(map[string]*actor.CharacterSpec),
		factions:      make(map[string]*actor.Faction),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

func relationshipKey(playerID, npcID string) string {
	return playerID + ":" + npcID
}

// SaveRelationship mocks saving a relationship
func (m *MockStorage) SaveRelationship(ctx context.Context, playerID string, rel *actor.Relationship) error {
	if rel == nil {
		return errors.New("relationship cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *rel
	m.relationships[relationshipKey(playerID, rel.NPCID)] = &saved
	return nil
}

// LoadRelationship mocks loading a relationship
func (m *MockStorage) LoadRelationship(ctx context.Context, playerID, npcID string) (*actor.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rel, exists := m.relationships[relationshipKey(playerID, npcID)]
	if !exists {
		return nil, nil // Return nil for not found
	}
	loaded := *rel
	return &loaded, nil
}

// SaveCharacter mocks saving a character snapshot. The snapshot is stored
// as JSON so later changes to c do not leak into it.
func (m *MockStorage) SaveCharacter(ctx context.Context, c *actor.Character) error {
	if c == nil || c.Spec == nil {
		return errors.New("character cannot be nil")
	}
	data, err := c.MarshalJSON()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.characters[c.ID()] = data
	return nil
}

// LoadCharacter mocks loading a character snapshot
func (m *MockStorage) LoadCharacter(ctx context.Context, id string) (*actor.Character, error) {
	m.mu.RLock()
	data, exists := m.characters[id]
	m.mu.RUnlock()
	if !exists {
		return nil, nil
	}
	var c actor.Character
	if err := c.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &c, nil
}

// AppendTradeRecord mocks appending to the trade log
func (m *MockStorage) AppendTradeRecord(ctx context.Context, rec *TradeRecord) error {
	if rec == nil {
		return errors.New("trade record cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tradeLog[rec.NPCID] = append(m.tradeLog[rec.NPCID], *rec)
	return nil
}

// ListTradeRecords mocks reading the newest limit records of the trade log
func (m *MockStorage) ListTradeRecords(ctx context.Context, npcID string, limit int) ([]TradeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := m.tradeLog[npcID]
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return slices.Clone(records), nil
}

// GetTraderSpec mocks getting a trader spec by ID
func (m *MockStorage) GetTraderSpec(ctx context.Context, traderID string) (*actor.CharacterSpec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, exists := m.traderSpecs[traderID]
	if !exists {
		return nil, errors.New("trader not found")
	}
	return spec, nil
}

// ListTraders mocks listing traders
func (m *MockStorage) ListTraders(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]string, 0, len(m.traderSpecs))
	for id := range m.traderSpecs {
		result = append(result, id)
	}
	slices.Sort(result)
	return result, nil
}

// AddTraderSpec adds a trader spec to the mock storage (for testing)
func (m *MockStorage) AddTraderSpec(traderID string, spec *actor.CharacterSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traderSpecs[traderID] = spec
}

// GetPlayerSpec mocks getting a player spec by ID
func (m *MockStorage) GetPlayerSpec(ctx context.Context, playerID string) (*actor.CharacterSpec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, exists := m.playerSpecs[playerID]
	if !exists {
		return nil, errors.New("player not found")
	}
	return spec, nil
}

// AddPlayerSpec adds a player spec to the mock storage (for testing)
func (m *MockStorage) AddPlayerSpec(playerID string, spec *actor.CharacterSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerSpecs[playerID] = spec
}

// GetFaction mocks getting a faction by ID
func (m *MockStorage) GetFaction(ctx context.Context, factionID string) (*actor.Faction, error) {
	if factionID == "" {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, exists := m.factions[factionID]
	if !exists {
		return nil, errors.New("faction not found")
	}
	return f, nil
}

// ListFactions mocks listing factions
func (m *MockStorage) ListFactions(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]string, 0, len(m.factions))
	for id := range m.factions {
		result = append(result, id)
	}
	slices.Sort(result)
	return result, nil
}

// AddFaction adds a faction to the mock storage (for testing)
func (m *MockStorage) AddFaction(f *actor.Faction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factions[f.ID] = f
}
