package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSessionOpened  EventType = "trade.session_opened"
	EventTypeTradeCommitted EventType = "trade.committed"
	EventTypeTradeCancelled EventType = "trade.cancelled"
	EventTypeDebtPaid       EventType = "trade.debt_paid"
)

// Event represents a generic event structure
type Event struct {
	ID        string         `json:"id"`
	At        time.Time      `json:"at"`
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	NPCID     string         `json:"npc_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// ChannelPattern matches the channels of every NPC
const ChannelPattern = "trade-events:*"

// Channel returns the Pub/Sub channel carrying events for an NPC
func Channel(npcID string) string {
	return "trade-events:" + npcID
}

// Broadcaster publishes trade events to Redis Pub/Sub
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishSessionOpened publishes a trade.session_opened event
func (b *Broadcaster) PublishSessionOpened(ctx context.Context, npcID, sessionID string, balance int) error {
	return b.publish(ctx, Event{
		Type:      EventTypeSessionOpened,
		SessionID: sessionID,
		NPCID:     npcID,
		Data: map[string]any{
			"balance": balance,
		},
	})
}

// PublishTradeCommitted publishes a trade.committed event
func (b *Broadcaster) PublishTradeCommitted(ctx context.Context, npcID, sessionID string, given, received, owed int) error {
	return b.publish(ctx, Event{
		Type:      EventTypeTradeCommitted,
		SessionID: sessionID,
		NPCID:     npcID,
		Data: map[string]any{
			"given":    given,
			"received": received,
			"owed":     owed,
		},
	})
}

// PublishTradeCancelled publishes a trade.cancelled event
func (b *Broadcaster) PublishTradeCancelled(ctx context.Context, npcID, sessionID string) error {
	return b.publish(ctx, Event{
		Type:      EventTypeTradeCancelled,
		SessionID: sessionID,
		NPCID:     npcID,
	})
}

// PublishDebtPaid publishes a trade.debt_paid event
func (b *Broadcaster) PublishDebtPaid(ctx context.Context, npcID string, cost, owed int) error {
	return b.publish(ctx, Event{
		Type:  EventTypeDebtPaid,
		NPCID: npcID,
		Data: map[string]any{
			"cost": cost,
			"owed": owed,
		},
	})
}

// publish publishes an event to the NPC-specific channel
func (b *Broadcaster) publish(ctx context.Context, event Event) error {
	channel := Channel(event.NPCID)
	event.ID = uuid.NewString()
	event.At = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"session_id", event.SessionID,
	)
	return nil
}
