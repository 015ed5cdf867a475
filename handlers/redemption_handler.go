package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"membership-system/security"
	"membership-system/services"
)

type RedemptionHandler struct {
	app     *pocketbase.PocketBase
	service *services.RedemptionService
}

func NewRedemptionHandler(app *pocketbase.PocketBase, service *services.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{
		app:     app,
		service: service,
	}
}

// Eligibility - side effect free classification of a ticket, used by
// the portal and the POS to decide whether to show the redeem control.
func (h *RedemptionHandler) Eligibility(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketID := e.Request.PathValue("ticketId")
	if ticketID == "" {
		return apis.NewBadRequestError("Ticket ID is required", nil)
	}

	// Staff may inspect any ticket; members only their own.
	memberID := ""
	if !isStaff(e.Auth) {
		memberID = e.Auth.Id
	}

	eligibility, err := h.service.PrepareRedeem(e.Request.Context(), ticketID, memberID)
	if err != nil {
		statusCode, payload := redeemErrorResponse(err)
		return e.JSON(statusCode, payload)
	}

	return e.JSON(http.StatusOK, eligibility)
}

// Redeem - member redeems one use of their own ticket.
func (h *RedemptionHandler) Redeem(e *core.RequestEvent) error {
	if e.Auth == nil || isStaff(e.Auth) {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketID := e.Request.PathValue("ticketId")
	if ticketID == "" {
		return apis.NewBadRequestError("Ticket ID is required", nil)
	}

	var req struct {
		StoreID string `json:"store_id"`
	}
	// Body is optional; a portal redemption may carry no store.
	_ = e.BindBody(&req)

	result, err := h.service.Redeem(e.Request.Context(), services.RedeemRequest{
		TicketID: ticketID,
		MemberID: e.Auth.Id,
		ActorID:  e.Auth.Id,
		StoreID:  req.StoreID,
	})
	if err != nil {
		statusCode, payload := redeemErrorResponse(err)
		return e.JSON(statusCode, payload)
	}

	return e.JSON(http.StatusOK, result)
}

// RedeemOnBehalf - staff redeems a use for a located member at the
// staff's store. Requires the staff POS PIN when one is provisioned.
func (h *RedemptionHandler) RedeemOnBehalf(e *core.RequestEvent) error {
	if e.Auth == nil || !isStaff(e.Auth) {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		TicketID string `json:"ticket_id"`
		PIN      string `json:"pin"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.TicketID == "" {
		return apis.NewBadRequestError("Ticket ID is required", nil)
	}

	if hash := e.Auth.GetString("pos_pin_hash"); hash != "" {
		if err := security.CheckPIN(hash, req.PIN); err != nil {
			return apis.NewForbiddenError("Invalid POS PIN", nil)
		}
	}

	result, err := h.service.Redeem(e.Request.Context(), services.RedeemRequest{
		TicketID: req.TicketID,
		ActorID:  e.Auth.Id,
		StoreID:  e.Auth.GetString("store"),
	})
	if err != nil {
		statusCode, payload := redeemErrorResponse(err)
		return e.JSON(statusCode, payload)
	}

	return e.JSON(http.StatusOK, result)
}

func isStaff(record *core.Record) bool {
	return record.Collection().Name == "staff"
}
