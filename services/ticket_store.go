package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"

	"membership-system/internal/status"
	"membership-system/models"
)

// decrementQuery is the single atomic unit of a redemption. The guard
// clauses mirror the eligibility predicate, so under concurrent calls
// against the same ticket only as many updates succeed as there are
// remaining uses, and none can drive remaining_uses below zero.
const decrementQuery = `
UPDATE tickets
SET remaining_uses = remaining_uses - 1,
    last_redeemed_at = {:now},
    updated = {:now}
WHERE id = {:id}
  AND remaining_uses > 0
  AND expires_at > {:now}
  AND (last_redeemed_at IS NULL OR last_redeemed_at = '' OR last_redeemed_at <= {:threshold})
`

type TicketStore struct {
	app core.App
}

func NewTicketStore(app core.App) *TicketStore {
	return &TicketStore{app: app}
}

func (s *TicketStore) Get(ctx context.Context, ticketID string) (*models.Ticket, error) {
	record, err := s.app.FindRecordById("tickets", ticketID)
	if err != nil {
		return nil, lookupError(ticketID, err)
	}
	return ticketFromRecord(record), nil
}

// lookupError keeps NotFound for tickets that genuinely do not exist.
// Anything else is a storage fault and must stay one, so callers can
// surface it as retryable.
func lookupError(ticketID string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return status.ErrTicketNotFound
	}
	return fmt.Errorf("find ticket %s: %w", ticketID, err)
}

// ListForMember returns all tickets a member holds, newest first.
// Tickets are never deleted, so this is the full grant history.
func (s *TicketStore) ListForMember(ctx context.Context, memberID string) ([]*models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		"tickets",
		"member = {:member}",
		"-created",
		-1,
		0,
		dbx.Params{"member": memberID},
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets for member %s: %w", memberID, err)
	}

	tickets := make([]*models.Ticket, len(records))
	for i, record := range records {
		tickets[i] = ticketFromRecord(record)
	}
	return tickets, nil
}

// Redeem consumes one use of the ticket and appends the matching
// ledger event in a single transaction. Returns status.ErrNotEligible
// when the conditional update matched no row; the ticket state is then
// untouched and no event is written.
func (s *TicketStore) Redeem(ctx context.Context, ticketID string, ev *models.RedemptionEvent, now, cooldownThreshold time.Time) (*models.Ticket, *models.RedemptionEvent, error) {
	var updated *models.Ticket
	var appended *models.RedemptionEvent

	err := s.app.RunInTransaction(func(txApp core.App) error {
		result, err := txApp.DB().NewQuery(decrementQuery).Bind(dbx.Params{
			"id":        ticketID,
			"now":       now.UTC().Format(types.DefaultDateLayout),
			"threshold": cooldownThreshold.UTC().Format(types.DefaultDateLayout),
		}).Execute()
		if err != nil {
			return fmt.Errorf("decrement ticket %s: %w", ticketID, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("decrement ticket %s: %w", ticketID, err)
		}
		if affected == 0 {
			return status.ErrNotEligible
		}

		appended, err = appendEvent(txApp, ev)
		if err != nil {
			return err
		}

		record, err := txApp.FindRecordById("tickets", ticketID)
		if err != nil {
			return fmt.Errorf("reload ticket %s: %w", ticketID, err)
		}
		updated = ticketFromRecord(record)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return updated, appended, nil
}

func ticketFromRecord(record *core.Record) *models.Ticket {
	t := &models.Ticket{
		ID:            record.Id,
		MemberID:      record.GetString("member"),
		TicketType:    record.GetString("ticket_type"),
		TotalUses:     record.GetInt("total_uses"),
		RemainingUses: record.GetInt("remaining_uses"),
		FaceValue:     decimal.NewFromFloat(record.GetFloat("face_value")),
		ExpiresAt:     record.GetDateTime("expires_at").Time(),
		Created:       record.GetDateTime("created").Time(),
	}

	if last := record.GetDateTime("last_redeemed_at"); !last.IsZero() {
		lastTime := last.Time()
		t.LastRedeemedAt = &lastTime
	}

	return t
}
