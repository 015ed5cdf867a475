package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"membership-system/config"
	"membership-system/models"
	"membership-system/services"
)

type TicketHandler struct {
	app     *pocketbase.PocketBase
	store   *services.TicketStore
	ledger  *services.RedemptionLedger
	counter *services.DailyCounter
	cfg     *config.Config
}

func NewTicketHandler(app *pocketbase.PocketBase, store *services.TicketStore, ledger *services.RedemptionLedger, counter *services.DailyCounter, cfg *config.Config) *TicketHandler {
	return &TicketHandler{
		app:     app,
		store:   store,
		ledger:  ledger,
		counter: counter,
		cfg:     cfg,
	}
}

// ListTickets - a member's tickets, grouped active/inactive with the
// total remaining uses across active ones.
func (h *TicketHandler) ListTickets(e *core.RequestEvent) error {
	if e.Auth == nil || isStaff(e.Auth) {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	tickets, err := h.store.ListForMember(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return apis.NewBadRequestError("Failed to list tickets", err)
	}

	return e.JSON(http.StatusOK, models.GroupTickets(tickets, time.Now().UTC()))
}

// History - a member's redemption history, newest first, paged.
func (h *TicketHandler) History(e *core.RequestEvent) error {
	if e.Auth == nil || isStaff(e.Auth) {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	page := 1
	if raw := e.Request.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}

	history, err := h.ledger.ListForMember(e.Request.Context(), e.Auth.Id, page, h.cfg.HistoryPageSize)
	if err != nil {
		return apis.NewBadRequestError("Failed to list redemption history", err)
	}

	return e.JSON(http.StatusOK, history)
}

// StoreToday - today's redemptions at the staff member's store, in the
// store's local calendar day.
func (h *TicketHandler) StoreToday(e *core.RequestEvent) error {
	if e.Auth == nil || !isStaff(e.Auth) {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	storeID := e.Auth.GetString("store")
	if storeID == "" {
		return apis.NewBadRequestError("Staff account has no store assigned", nil)
	}

	now := time.Now().UTC()
	summary, err := h.ledger.ListForStoreToday(e.Request.Context(), storeID, now)
	if err != nil {
		return apis.NewBadRequestError("Failed to list today's redemptions", err)
	}

	// The live counter can lag the ledger by in-flight post-commit
	// hooks; surfaced separately so the POS can show both.
	liveCount, err := h.counter.Count(e.Request.Context(), storeID, now)
	if err != nil {
		slog.Error("Failed to read live redemption counter",
			"store_id", storeID,
			"error", err,
		)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"summary":    summary,
		"live_count": liveCount,
	})
}
