package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"

	"membership-system/models"
)

// RedemptionLedger is the read side of the append-only redemption
// history. Writes happen through appendEvent inside the redeem
// transaction; rows are never updated or deleted.
type RedemptionLedger struct {
	app       core.App
	defaultTZ string
}

func NewRedemptionLedger(app core.App, defaultTZ string) *RedemptionLedger {
	return &RedemptionLedger{app: app, defaultTZ: defaultTZ}
}

// Append inserts a history row outside of a redeem transaction.
// Only used by backfill tooling; the redeem path goes through the
// ticket store so the decrement and the event commit together.
func (l *RedemptionLedger) Append(ctx context.Context, ev *models.RedemptionEvent) (*models.RedemptionEvent, error) {
	return appendEvent(l.app, ev)
}

// ListForMember returns a member's redemption history, newest first.
func (l *RedemptionLedger) ListForMember(ctx context.Context, memberID string, page, perPage int) (*models.RedemptionHistory, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	total, err := l.app.CountRecords("redemption_events", dbx.HashExp{"member": memberID})
	if err != nil {
		return nil, fmt.Errorf("count redemptions for member %s: %w", memberID, err)
	}

	records, err := l.app.FindRecordsByFilter(
		"redemption_events",
		"member = {:member}",
		"-redeemed_at",
		perPage,
		(page-1)*perPage,
		dbx.Params{"member": memberID},
	)
	if err != nil {
		return nil, fmt.Errorf("list redemptions for member %s: %w", memberID, err)
	}

	history := &models.RedemptionHistory{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		Events:     make([]*models.RedemptionEvent, len(records)),
	}
	for i, record := range records {
		history.Events[i] = eventFromRecord(record)
	}
	return history, nil
}

// ListForStoreToday returns the store's redemptions whose redeemed_at
// falls within the current calendar day in the store's local timezone,
// with a running total of redeemed face value.
func (l *RedemptionLedger) ListForStoreToday(ctx context.Context, storeID string, now time.Time) (*models.StoreDaySummary, error) {
	dayStart, dayEnd := storeDayWindow(now, l.StoreLocation(storeID))

	records, err := l.app.FindRecordsByFilter(
		"redemption_events",
		"store = {:store} && redeemed_at >= {:start} && redeemed_at < {:end}",
		"-redeemed_at",
		-1,
		0,
		dbx.Params{
			"store": storeID,
			"start": dayStart.UTC().Format(types.DefaultDateLayout),
			"end":   dayEnd.UTC().Format(types.DefaultDateLayout),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("list redemptions for store %s: %w", storeID, err)
	}

	summary := &models.StoreDaySummary{
		StoreID:    storeID,
		Date:       dayStart.Format("2006-01-02"),
		Count:      len(records),
		TotalValue: decimal.Zero,
		Events:     make([]*models.RedemptionEvent, len(records)),
	}
	for i, record := range records {
		ev := eventFromRecord(record)
		summary.Events[i] = ev
		summary.TotalValue = summary.TotalValue.Add(ev.RedeemedValue)
	}
	return summary, nil
}

// StoreLocation resolves the store's local timezone, falling back to
// the configured default and finally UTC on an unknown IANA name.
func (l *RedemptionLedger) StoreLocation(storeID string) *time.Location {
	tz := l.defaultTZ
	if record, err := l.app.FindRecordById("stores", storeID); err == nil {
		if name := record.GetString("timezone"); name != "" {
			tz = name
		}
	}
	return resolveLocation(tz)
}

func resolveLocation(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// storeDayWindow returns the half-open bounds of now's calendar day
// in the given zone.
func storeDayWindow(now time.Time, loc *time.Location) (start, end time.Time) {
	local := now.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func appendEvent(app core.App, ev *models.RedemptionEvent) (*models.RedemptionEvent, error) {
	collection, err := app.FindCachedCollectionByNameOrId("redemption_events")
	if err != nil {
		return nil, fmt.Errorf("append redemption event: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("ticket", ev.TicketID)
	record.Set("member", ev.MemberID)
	record.Set("redeemed_by", ev.RedeemedBy)
	record.Set("store", ev.StoreID)
	record.Set("redeemed_value", ev.RedeemedValue.InexactFloat64())
	record.Set("confirmation_code", ev.ConfirmationCode)
	record.Set("redeemed_at", ev.RedeemedAt.UTC().Format(types.DefaultDateLayout))

	if err := app.Save(record); err != nil {
		return nil, fmt.Errorf("append redemption event: %w", err)
	}

	appended := *ev
	appended.ID = record.Id
	return &appended, nil
}

func eventFromRecord(record *core.Record) *models.RedemptionEvent {
	return &models.RedemptionEvent{
		ID:               record.Id,
		TicketID:         record.GetString("ticket"),
		MemberID:         record.GetString("member"),
		RedeemedBy:       record.GetString("redeemed_by"),
		StoreID:          record.GetString("store"),
		RedeemedValue:    decimal.NewFromFloat(record.GetFloat("redeemed_value")),
		ConfirmationCode: record.GetString("confirmation_code"),
		RedeemedAt:       record.GetDateTime("redeemed_at").Time(),
	}
}
