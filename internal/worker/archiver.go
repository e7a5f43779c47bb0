package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/barter-engine/internal/events"
)

// Recorder stores trade events. *ledger.Ledger implements it.
type Recorder interface {
	Record(ctx context.Context, ev events.Event) (bool, error)
}

// Archiver copies every trade event published on Redis into a Recorder.
// Several archivers may run at once; the recorder drops duplicates by ID.
type Archiver struct {
	id          string
	redisClient *redis.Client
	recorder    Recorder
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	ready       chan struct{}
}

// New creates a new archiver instance
func New(redisClient *redis.Client, recorder Recorder, log *slog.Logger, workerID string) *Archiver {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("archiver-%s", uuid.New().String()[:8])
	}

	return &Archiver{
		id:          workerID,
		redisClient: redisClient,
		recorder:    recorder,
		log:         log.With("worker_id", workerID),
		ctx:         ctx,
		cancel:      cancel,
		ready:       make(chan struct{}),
	}
}

// ID returns the worker ID.
func (a *Archiver) ID() string { return a.id }

// Ready is closed once the archiver is subscribed.
func (a *Archiver) Ready() <-chan struct{} { return a.ready }

// Start subscribes to every trader's channel and archives events until
// Stop is called.
func (a *Archiver) Start() error {
	a.log.Info("Archiver starting")

	pubsub := a.redisClient.PSubscribe(a.ctx, events.ChannelPattern)
	defer func() {
		if err := pubsub.Close(); err != nil {
			a.log.Error("Failed to close pubsub", "error", err)
		}
	}()
	if _, err := pubsub.Receive(a.ctx); err != nil {
		if a.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to %s: %w", events.ChannelPattern, err)
	}
	close(a.ready)

	msgChan := pubsub.Channel()
	for {
		select {
		case <-a.ctx.Done():
			a.log.Info("Archiver shutting down")
			return nil
		case msg, ok := <-msgChan:
			if !ok {
				return nil
			}
			a.archive(msg)
		}
	}
}

// Stop gracefully shuts down the archiver
func (a *Archiver) Stop() {
	a.log.Info("Archiver stop requested")
	a.cancel()
}

func (a *Archiver) archive(msg *redis.Message) {
	var ev events.Event
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		a.log.Error("Failed to unmarshal event", "error", err, "channel", msg.Channel)
		return
	}

	stored, err := a.recorder.Record(a.ctx, ev)
	if err != nil {
		a.log.Error("Failed to archive event", "error", err, "event_id", ev.ID, "npc", ev.NPCID)
		return
	}
	if stored {
		a.log.Debug("Event archived", "event_id", ev.ID, "type", ev.Type, "npc", ev.NPCID)
	}
}
