package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jwebster45206/barter-engine/internal/events"
	"github.com/jwebster45206/barter-engine/pkg/storage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// TraderSummary is the public view of a trader definition.
type TraderSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Faction     string `json:"faction,omitempty"`
	Shopkeeper  bool   `json:"shopkeeper"`
	Companion   bool   `json:"companion"`
	Owed        *int   `json:"owed,omitempty"` // only when a player is given
}

// EventLog reads archived trade events. *ledger.Ledger implements it.
type EventLog interface {
	Events(ctx context.Context, npcID string, limit int) ([]events.Event, error)
}

// TradersHandler serves read-only trader data:
//
//	GET /v1/traders
//	GET /v1/traders/{traderID}?player={playerID}
//	GET /v1/traders/{traderID}/history?limit=N
//	GET /v1/traders/{traderID}/events?limit=N  (needs an EventLog)
type TradersHandler struct {
	storage storage.Storage
	events  EventLog
	logger  *slog.Logger
}

func NewTradersHandler(storage storage.Storage, logger *slog.Logger) *TradersHandler {
	return &TradersHandler{
		storage: storage,
		logger:  logger,
	}
}

// WithEventLog enables the archived events endpoint.
func (h *TradersHandler) WithEventLog(log EventLog) *TradersHandler {
	h.events = log
	return h
}

func (h *TradersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 2 || pathParts[0] != "v1" || pathParts[1] != "traders" {
		h.writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch len(pathParts) {
	case 2:
		h.handleList(w, r)
	case 3:
		h.handleGet(w, r, pathParts[2])
	case 4:
		switch pathParts[3] {
		case "history":
			h.handleHistory(w, r, pathParts[2])
		case "events":
			h.handleEvents(w, r, pathParts[2])
		default:
			h.writeError(w, http.StatusNotFound, "Not found")
		}
	default:
		h.writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *TradersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids, err := h.storage.ListTraders(ctx)
	if err != nil {
		h.logger.Error("Failed to list traders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list traders")
		return
	}

	traders := make([]TraderSummary, 0, len(ids))
	for _, id := range ids {
		summary, err := h.summary(r, id)
		if err != nil {
			h.logger.Warn("Skipping unreadable trader", "trader_id", id, "error", err)
			continue
		}
		traders = append(traders, *summary)
	}
	h.writeJSON(w, http.StatusOK, traders)
}

func (h *TradersHandler) handleGet(w http.ResponseWriter, r *http.Request, traderID string) {
	if !isSafeID(traderID) {
		h.writeError(w, http.StatusBadRequest, "Invalid trader ID")
		return
	}

	summary, err := h.summary(r, traderID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			h.writeError(w, http.StatusNotFound, "Trader not found")
			return
		}
		h.logger.Error("Failed to get trader", "error", err, "trader_id", traderID)
		h.writeError(w, http.StatusInternalServerError, "Failed to retrieve trader")
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *TradersHandler) handleHistory(w http.ResponseWriter, r *http.Request, traderID string) {
	if !isSafeID(traderID) {
		h.writeError(w, http.StatusBadRequest, "Invalid trader ID")
		return
	}

	limit, ok := h.limit(w, r)
	if !ok {
		return
	}

	records, err := h.storage.ListTradeRecords(r.Context(), traderID, limit)
	if err != nil {
		h.logger.Error("Failed to list trade records", "error", err, "trader_id", traderID)
		h.writeError(w, http.StatusInternalServerError, "Failed to retrieve trade history")
		return
	}
	if records == nil {
		records = []storage.TradeRecord{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *TradersHandler) handleEvents(w http.ResponseWriter, r *http.Request, traderID string) {
	if h.events == nil {
		h.writeError(w, http.StatusNotFound, "Event archive not configured")
		return
	}
	if !isSafeID(traderID) {
		h.writeError(w, http.StatusBadRequest, "Invalid trader ID")
		return
	}
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}

	evs, err := h.events.Events(r.Context(), traderID, limit)
	if err != nil {
		h.logger.Error("Failed to read archived events", "error", err, "trader_id", traderID)
		h.writeError(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}
	if evs == nil {
		evs = []events.Event{}
	}
	h.writeJSON(w, http.StatusOK, evs)
}

// limit parses ?limit=, writing a 400 when it is malformed.
func (h *TradersHandler) limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultHistoryLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return min(n, maxHistoryLimit), true
}

func (h *TradersHandler) summary(r *http.Request, traderID string) (*TraderSummary, error) {
	ctx := r.Context()
	spec, err := h.storage.GetTraderSpec(ctx, traderID)
	if err != nil {
		return nil, err
	}

	summary := &TraderSummary{
		ID:          traderID,
		Name:        spec.Name,
		Description: spec.Description,
		Faction:     spec.FactionID,
	}
	if spec.Trade != nil {
		summary.Shopkeeper = spec.Trade.Shopkeeper
		summary.Companion = spec.Trade.Companion
	}

	if playerID := r.URL.Query().Get("player"); playerID != "" {
		rel, err := h.storage.LoadRelationship(ctx, playerID, traderID)
		if err != nil {
			return nil, err
		}
		owed := 0
		if rel != nil {
			owed = rel.Owed
		}
		summary.Owed = &owed
	}
	return summary, nil
}

func (h *TradersHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *TradersHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}

// isSafeID rejects IDs that could escape the definitions directory.
func isSafeID(id string) bool {
	return id != "" && !strings.Contains(id, "..") && !strings.ContainsAny(id, `/\`)
}
