package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/barter-engine/pkg/storage"
)

// maxTradeRecords is how many records are kept per NPC.
const maxTradeRecords = 100

func tradeLogKey(npcID string) string {
	return "trade-log:" + npcID
}

// AppendTradeRecord adds a record to the end of the NPC's trade log,
// dropping the oldest records beyond maxTradeRecords
func (r *RedisStorage) AppendTradeRecord(ctx context.Context, rec *storage.TradeRecord) error {
	if rec == nil {
		return errors.New("trade record cannot be nil")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal trade record: %w", err)
	}

	key := tradeLogKey(rec.NPCID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, string(data))
	pipe.LTrim(ctx, key, -maxTradeRecords, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to append trade record", "npc_id", rec.NPCID, "error", err)
		return fmt.Errorf("failed to append trade record: %w", err)
	}
	return nil
}

// ListTradeRecords returns the newest limit records, oldest first. A limit
// of zero or less returns the whole log.
func (r *RedisStorage) ListTradeRecords(ctx context.Context, npcID string, limit int) ([]storage.TradeRecord, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := r.client.LRange(ctx, tradeLogKey(npcID), start, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read trade log: %w", err)
	}

	records := make([]storage.TradeRecord, 0, len(raw))
	for _, entry := range raw {
		var rec storage.TradeRecord
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			r.logger.Warn("Skipping unreadable trade record", "npc_id", npcID, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
