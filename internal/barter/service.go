// Package barter wires storage, pricing, negotiation and settlement into
// the trade flow used by the console: load the parties, open a session,
// and persist the outcome.
package barter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/barter-engine/pkg/actor"
	"github.com/jwebster45206/barter-engine/pkg/negotiation"
	"github.com/jwebster45206/barter-engine/pkg/storage"
	"github.com/jwebster45206/barter-engine/pkg/trade"
)

// ErrSessionPending is returned when finishing a session that is still open.
var ErrSessionPending = errors.New("negotiation session is still open")

// Publisher receives trade notifications. *events.Broadcaster implements it.
type Publisher interface {
	PublishSessionOpened(ctx context.Context, npcID, sessionID string, balance int) error
	PublishTradeCommitted(ctx context.Context, npcID, sessionID string, given, received, owed int) error
	PublishTradeCancelled(ctx context.Context, npcID, sessionID string) error
	PublishDebtPaid(ctx context.Context, npcID string, cost, owed int) error
}

// Service runs trades between the player and NPC traders.
type Service struct {
	store     storage.Storage
	publisher Publisher // optional
	econ      trade.Economy
	logger    *slog.Logger
}

// NewService creates a trade service. publisher may be nil.
func NewService(store storage.Storage, publisher Publisher, econ trade.Economy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		econ:      econ,
		logger:    logger,
	}
}

// Economy returns the tuning in use.
func (s *Service) Economy() trade.Economy { return s.econ }

// LoadPlayer returns the player's latest snapshot, or builds the player from
// its definition when none has been saved yet.
func (s *Service) LoadPlayer(ctx context.Context, playerID string) (*actor.Character, error) {
	c, err := s.store.LoadCharacter(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player snapshot: %w", err)
	}
	if c != nil {
		return c, nil
	}

	spec, err := s.store.GetPlayerSpec(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	spec.ID = playerID
	c, err = actor.NewCharacterFromSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build player: %w", err)
	}
	return c, nil
}

// LoadTrader returns an NPC trader with its faction and its memory of the
// player attached.
func (s *Service) LoadTrader(ctx context.Context, playerID, traderID string) (*actor.Character, error) {
	np, err := s.store.LoadCharacter(ctx, traderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trader snapshot: %w", err)
	}
	if np == nil {
		spec, err := s.store.GetTraderSpec(ctx, traderID)
		if err != nil {
			return nil, fmt.Errorf("failed to load trader: %w", err)
		}
		spec.ID = traderID
		if np, err = actor.NewCharacterFromSpec(spec); err != nil {
			return nil, fmt.Errorf("failed to build trader: %w", err)
		}
	}

	if np.Faction, err = s.store.GetFaction(ctx, np.Spec.FactionID); err != nil {
		return nil, fmt.Errorf("failed to load faction: %w", err)
	}

	rel, err := s.store.LoadRelationship(ctx, playerID, traderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationship: %w", err)
	}
	if rel != nil {
		np.Relationship = *rel
	}
	np.Relationship.NPCID = traderID
	return np, nil
}

// Open prepares both parties and starts a negotiation. cost is what the
// player owes for a service before any goods change hands.
func (s *Service) Open(ctx context.Context, player, np *actor.Character, cost int, opts ...negotiation.Option) *negotiation.Session {
	if added := np.Restock(); added > 0 {
		s.logger.Debug("trader restocked", "npc", np.ID(), "added", added)
	}
	np.DropInvalidInventory()
	player.DropInvalidInventory()

	state := trade.SetupState(cost, player, np, s.econ)
	opts = append([]negotiation.Option{
		negotiation.WithLogger(s.logger),
		negotiation.WithMaxSolverStates(s.econ.MaxSolverStates),
	}, opts...)
	session := negotiation.New(state, player, np, opts...)

	if s.publisher != nil {
		if err := s.publisher.PublishSessionOpened(ctx, np.ID(), session.ID(), state.Balance); err != nil {
			s.logger.Warn("failed to publish session opened", "error", err)
		}
	}
	return session
}

// Finish settles a finished session. A committed session moves the goods
// and saves the relationship, both characters and a trade record; a
// cancelled one changes nothing.
func (s *Service) Finish(ctx context.Context, session *negotiation.Session, player, np *actor.Character) (trade.Result, error) {
	logger := s.logger.With("session_id", session.ID(), "npc", np.ID())

	switch session.Outcome() {
	case negotiation.OutcomePending:
		return trade.Result{}, ErrSessionPending
	case negotiation.OutcomeCancelled:
		logger.Info("trade cancelled")
		if s.publisher != nil {
			if err := s.publisher.PublishTradeCancelled(ctx, np.ID(), session.ID()); err != nil {
				logger.Warn("failed to publish trade cancelled", "error", err)
			}
		}
		return trade.Result{}, nil
	}

	balance := session.State().Balance
	res, err := trade.Commit(session.State(), player, np, s.econ)
	if err != nil {
		return res, fmt.Errorf("failed to commit trade: %w", err)
	}
	logger.Info("trade committed",
		"given", res.Given, "received", res.Received, "owed", res.Owed, "practice", res.Practice)

	if err := s.persist(ctx, player, np); err != nil {
		return res, err
	}
	rec := &storage.TradeRecord{
		ID:        uuid.NewString(),
		SessionID: session.ID(),
		PlayerID:  player.ID(),
		NPCID:     np.ID(),
		Given:     res.Given,
		Received:  res.Received,
		Balance:   balance,
		Owed:      res.Owed,
		Practice:  res.Practice,
		At:        time.Now(),
	}
	if err := s.store.AppendTradeRecord(ctx, rec); err != nil {
		return res, fmt.Errorf("failed to record trade: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTradeCommitted(ctx, np.ID(), session.ID(), res.Given, res.Received, res.Owed); err != nil {
			logger.Warn("failed to publish trade committed", "error", err)
		}
	}
	return res, nil
}

// PayFromDebt covers a service cost out of what np owes the player without
// a trade. It reports false when the debt is too small.
func (s *Service) PayFromDebt(ctx context.Context, player, np *actor.Character, cost int) (bool, error) {
	if !trade.PayFromDebt(np, cost) {
		return false, nil
	}
	if err := s.store.SaveRelationship(ctx, player.ID(), &np.Relationship); err != nil {
		return true, fmt.Errorf("failed to save relationship: %w", err)
	}
	s.logger.Info("service paid from debt", "npc", np.ID(), "cost", cost, "owed", np.Owed())

	if s.publisher != nil {
		if err := s.publisher.PublishDebtPaid(ctx, np.ID(), cost, np.Owed()); err != nil {
			s.logger.Warn("failed to publish debt paid", "error", err)
		}
	}
	return true, nil
}

// Traders lists the IDs of the traders the player can visit.
func (s *Service) Traders(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListTraders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list traders: %w", err)
	}
	return ids, nil
}

// History returns the newest trades with an NPC, oldest first.
func (s *Service) History(ctx context.Context, npcID string, limit int) ([]storage.TradeRecord, error) {
	records, err := s.store.ListTradeRecords(ctx, npcID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade history: %w", err)
	}
	return records, nil
}

func (s *Service) persist(ctx context.Context, player, np *actor.Character) error {
	if err := s.store.SaveRelationship(ctx, player.ID(), &np.Relationship); err != nil {
		return fmt.Errorf("failed to save relationship: %w", err)
	}
	if err := s.store.SaveCharacter(ctx, player); err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}
	if err := s.store.SaveCharacter(ctx, np); err != nil {
		return fmt.Errorf("failed to save trader: %w", err)
	}
	return nil
}
