package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const cooldown = 5 * time.Minute

func baseTicket(remaining int, expiresIn time.Duration, now time.Time) *Ticket {
	return &Ticket{
		ID:            "ticket-1",
		MemberID:      "member-1",
		TicketType:    "coffee_pass",
		TotalUses:     10,
		RemainingUses: remaining,
		FaceValue:     decimal.NewFromFloat(4.50),
		ExpiresAt:     now.Add(expiresIn),
	}
}

func TestClassify(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		remaining       int
		expiresIn       time.Duration
		lastRedeemedAgo time.Duration // 0 means never redeemed
		expectedState   string
		expectedSeconds int64
	}{
		{
			name:          "never redeemed ticket is redeemable",
			remaining:     3,
			expiresIn:     30 * 24 * time.Hour,
			expectedState: StateRedeemable,
		},
		{
			name:            "last redemption outside cooldown is redeemable",
			remaining:       3,
			expiresIn:       30 * 24 * time.Hour,
			lastRedeemedAgo: 10 * time.Minute,
			expectedState:   StateRedeemable,
		},
		{
			name:            "last redemption exactly cooldown ago is redeemable",
			remaining:       3,
			expiresIn:       30 * 24 * time.Hour,
			lastRedeemedAgo: cooldown,
			expectedState:   StateRedeemable,
		},
		{
			name:            "recent redemption is in cooldown",
			remaining:       3,
			expiresIn:       30 * 24 * time.Hour,
			lastRedeemedAgo: 2 * time.Minute,
			expectedState:   StateCooldown,
			expectedSeconds: 180,
		},
		{
			name:            "redemption one second ago reports almost full cooldown",
			remaining:       3,
			expiresIn:       30 * 24 * time.Hour,
			lastRedeemedAgo: time.Second,
			expectedState:   StateCooldown,
			expectedSeconds: 299,
		},
		{
			name:          "no remaining uses is used",
			remaining:     0,
			expiresIn:     30 * 24 * time.Hour,
			expectedState: StateUsed,
		},
		{
			name:            "exhausted ticket in cooldown still reports used",
			remaining:       0,
			expiresIn:       30 * 24 * time.Hour,
			lastRedeemedAgo: time.Minute,
			expectedState:   StateUsed,
		},
		{
			name:          "past expiry is expired",
			remaining:     3,
			expiresIn:     -time.Hour,
			expectedState: StateExpired,
		},
		{
			name:          "expiry exactly now is expired",
			remaining:     3,
			expiresIn:     0,
			expectedState: StateExpired,
		},
		{
			name:          "expiry wins over exhaustion",
			remaining:     0,
			expiresIn:     -time.Hour,
			expectedState: StateExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := baseTicket(tt.remaining, tt.expiresIn, now)
			if tt.lastRedeemedAgo > 0 {
				last := now.Add(-tt.lastRedeemedAgo)
				ticket.LastRedeemedAt = &last
			}

			el := Classify(ticket, now, cooldown)

			assert.Equal(t, tt.expectedState, el.State)
			if tt.expectedState == StateCooldown {
				assert.Equal(t, tt.expectedSeconds, el.RemainingSeconds)
			} else {
				assert.Zero(t, el.RemainingSeconds)
			}
		})
	}
}

func TestClassifyRemainingSecondsRoundsUp(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	ticket := baseTicket(1, 24*time.Hour, now)
	last := now.Add(-(cooldown - 1500*time.Millisecond))
	ticket.LastRedeemedAt = &last

	el := Classify(ticket, now, cooldown)

	assert.Equal(t, StateCooldown, el.State)
	assert.Equal(t, int64(2), el.RemainingSeconds)
}

func TestTicketStatus(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		remaining int
		expiresIn time.Duration
		expected  string
	}{
		{"active with uses left", 2, time.Hour, TicketActive},
		{"used when exhausted", 0, time.Hour, TicketUsed},
		{"expired in the past", 2, -time.Hour, TicketExpired},
		{"expired wins over used", 0, -time.Hour, TicketExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := baseTicket(tt.remaining, tt.expiresIn, now)
			assert.Equal(t, tt.expected, ticket.Status(now))
		})
	}
}

func TestGroupTickets(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	active1 := baseTicket(3, 24*time.Hour, now)
	active2 := baseTicket(1, 48*time.Hour, now)
	used := baseTicket(0, 24*time.Hour, now)
	expired := baseTicket(5, -time.Hour, now)

	groups := GroupTickets([]*Ticket{active1, used, active2, expired}, now)

	assert.Len(t, groups.Active, 2)
	assert.Len(t, groups.Inactive, 2)
	assert.Equal(t, 4, groups.TotalRemaining)
}

func TestGroupTicketsEmpty(t *testing.T) {
	now := time.Now()

	groups := GroupTickets(nil, now)

	assert.NotNil(t, groups.Active)
	assert.NotNil(t, groups.Inactive)
	assert.Empty(t, groups.Active)
	assert.Empty(t, groups.Inactive)
	assert.Zero(t, groups.TotalRemaining)
}
