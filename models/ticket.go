package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Ticket struct {
	ID             string          `json:"id"`
	MemberID       string          `json:"member_id"`
	TicketType     string          `json:"ticket_type"`
	TotalUses      int             `json:"total_uses"`
	RemainingUses  int             `json:"remaining_uses"`
	FaceValue      decimal.Decimal `json:"face_value"`
	ExpiresAt      time.Time       `json:"expires_at"`
	LastRedeemedAt *time.Time      `json:"last_redeemed_at,omitempty"`
	Created        time.Time       `json:"created"`
}

// Derived ticket status. Expiry wins over exhaustion.
const (
	TicketActive  = "active"
	TicketUsed    = "used"
	TicketExpired = "expired"
)

func (t *Ticket) Status(now time.Time) string {
	if !now.Before(t.ExpiresAt) {
		return TicketExpired
	}
	if t.RemainingUses <= 0 {
		return TicketUsed
	}
	return TicketActive
}

// Eligibility classification states as reported to callers.
const (
	StateRedeemable = "active_redeemable"
	StateCooldown   = "active_cooldown"
	StateUsed       = "used"
	StateExpired    = "expired"
)

type Eligibility struct {
	State            string `json:"state"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
}

// Classify derives the eligibility of a ticket at the given instant.
// It is a pure function of the ticket fields and elapsed time; nothing
// is persisted, so a ticket in cooldown becomes redeemable on its own
// once the window elapses.
func Classify(t *Ticket, now time.Time, cooldown time.Duration) Eligibility {
	if !now.Before(t.ExpiresAt) {
		return Eligibility{State: StateExpired}
	}
	if t.RemainingUses <= 0 {
		return Eligibility{State: StateUsed}
	}
	if t.LastRedeemedAt != nil {
		elapsed := now.Sub(*t.LastRedeemedAt)
		if elapsed < cooldown {
			remaining := int64(math.Ceil((cooldown - elapsed).Seconds()))
			if remaining < 1 {
				remaining = 1
			}
			return Eligibility{State: StateCooldown, RemainingSeconds: remaining}
		}
	}
	return Eligibility{State: StateRedeemable}
}

type TicketGroups struct {
	Active         []*Ticket `json:"active"`
	Inactive       []*Ticket `json:"inactive"`
	TotalRemaining int       `json:"total_remaining"`
}

// GroupTickets splits a member's tickets into active and inactive
// (used or expired) and sums the remaining uses across active tickets.
func GroupTickets(tickets []*Ticket, now time.Time) TicketGroups {
	groups := TicketGroups{
		Active:   []*Ticket{},
		Inactive: []*Ticket{},
	}

	for _, t := range tickets {
		if t.Status(now) == TicketActive {
			groups.Active = append(groups.Active, t)
			groups.TotalRemaining += t.RemainingUses
		} else {
			groups.Inactive = append(groups.Inactive, t)
		}
	}

	return groups
}
