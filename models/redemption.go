package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RedemptionEvent is one row of the append-only redemption ledger.
// Events are only ever created by a successful redemption and are
// never mutated or deleted afterwards.
type RedemptionEvent struct {
	ID               string          `json:"id"`
	TicketID         string          `json:"ticket_id"`
	MemberID         string          `json:"member_id"`
	RedeemedBy       string          `json:"redeemed_by"`
	StoreID          string          `json:"store_id,omitempty"`
	RedeemedValue    decimal.Decimal `json:"redeemed_value"`
	ConfirmationCode string          `json:"confirmation_code"`
	RedeemedAt       time.Time       `json:"redeemed_at"`
}

type RedemptionResult struct {
	Ticket *Ticket          `json:"ticket"`
	Event  *RedemptionEvent `json:"event"`
}

type RedemptionHistory struct {
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalItems int                `json:"total_items"`
	Events     []*RedemptionEvent `json:"events"`
}

// StoreDaySummary is the staff view of a store's redemptions for the
// current calendar day in the store's local timezone.
type StoreDaySummary struct {
	StoreID    string             `json:"store_id"`
	Date       string             `json:"date"`
	Count      int                `json:"count"`
	TotalValue decimal.Decimal    `json:"total_value"`
	Events     []*RedemptionEvent `json:"events"`
}
