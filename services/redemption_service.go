package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	pubnub "github.com/pubnub/go"

	"membership-system/config"
	"membership-system/internal/status"
	"membership-system/models"
	"membership-system/monitoring"
	"membership-system/utils"
)

// RedemptionStore is the slice of the ticket store the engine needs.
// The production implementation pairs the conditional decrement with
// the ledger append in one transaction (see TicketStore.Redeem).
type RedemptionStore interface {
	Get(ctx context.Context, ticketID string) (*models.Ticket, error)
	Redeem(ctx context.Context, ticketID string, ev *models.RedemptionEvent, now, cooldownThreshold time.Time) (*models.Ticket, *models.RedemptionEvent, error)
}

type RedeemRequest struct {
	TicketID string
	// MemberID is the expected owner. Set when the actor is the member
	// themself; left empty for staff redeeming on behalf of a member.
	MemberID string
	ActorID  string
	StoreID  string
}

type RedemptionService struct {
	store   RedemptionStore
	counter *DailyCounter
	pubnub  *pubnub.PubNub
	breaker *utils.CircuitBreaker
	monitor *monitoring.Monitor
	cfg     *config.Config

	now func() time.Time
}

func NewRedemptionService(store RedemptionStore, counter *DailyCounter, pn *pubnub.PubNub, monitor *monitoring.Monitor, cfg *config.Config) *RedemptionService {
	return &RedemptionService{
		store:   store,
		counter: counter,
		pubnub:  pn,
		breaker: utils.NewCircuitBreaker("redemption-notifier"),
		monitor: monitor,
		cfg:     cfg,
	}
}

// Redeem consumes one use of a ticket on behalf of the acting party.
// Exactly one of the typed outcomes is returned: success, NotFound
// (unknown ticket or wrong owner), Expired, Exhausted, Cooldown with
// remaining seconds, or an untyped storage fault.
func (s *RedemptionService) Redeem(ctx context.Context, req RedeemRequest) (*models.RedemptionResult, error) {
	start := time.Now()
	result, err := s.redeem(ctx, req)

	if s.monitor != nil {
		s.monitor.TrackRedemption(req.StoreID, outcomeFor(err))
		s.monitor.ObserveRedeemDuration(time.Since(start))
	}
	return result, err
}

func (s *RedemptionService) redeem(ctx context.Context, req RedeemRequest) (*models.RedemptionResult, error) {
	now := s.clock().UTC()

	ticket, err := s.store.Get(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}
	if req.MemberID != "" && ticket.MemberID != req.MemberID {
		// A member probing someone else's ticket learns nothing beyond
		// "not available".
		return nil, status.ErrTicketNotFound
	}
	if err := eligibilityError(ticket, now, s.cfg.CooldownDuration); err != nil {
		return nil, err
	}

	code, err := utils.GenerateCode(8)
	if err != nil {
		return nil, fmt.Errorf("generate confirmation code: %w", err)
	}

	event := &models.RedemptionEvent{
		TicketID:         ticket.ID,
		MemberID:         ticket.MemberID,
		RedeemedBy:       req.ActorID,
		StoreID:          req.StoreID,
		RedeemedValue:    ticket.FaceValue,
		ConfirmationCode: code,
		RedeemedAt:       now,
	}

	threshold := now.Add(-s.cfg.CooldownDuration)
	updated, appended, err := s.store.Redeem(ctx, ticket.ID, event, now, threshold)
	if errors.Is(err, status.ErrNotEligible) {
		// Lost against a concurrent redemption. Re-read and report the
		// reason the guard would reject now.
		fresh, getErr := s.store.Get(ctx, req.TicketID)
		if getErr != nil {
			return nil, getErr
		}
		if elErr := eligibilityError(fresh, s.clock().UTC(), s.cfg.CooldownDuration); elErr != nil {
			return nil, elErr
		}
		return nil, status.ErrTicketExhausted
	}
	if err != nil {
		return nil, err
	}

	go s.afterRedeem(appended)

	return &models.RedemptionResult{Ticket: updated, Event: appended}, nil
}

// PrepareRedeem reports the eligibility classification without side
// effects, so callers can decide whether to show a redemption control
// before committing to the transactional call.
func (s *RedemptionService) PrepareRedeem(ctx context.Context, ticketID, memberID string) (models.Eligibility, error) {
	ticket, err := s.store.Get(ctx, ticketID)
	if err != nil {
		return models.Eligibility{}, err
	}
	if memberID != "" && ticket.MemberID != memberID {
		return models.Eligibility{}, status.ErrTicketNotFound
	}

	return models.Classify(ticket, s.clock().UTC(), s.cfg.CooldownDuration), nil
}

// afterRedeem runs the post-commit side effects: the per-store daily
// counter and the realtime notification to the member's channel. Both
// are advisory and must never roll back a committed redemption.
func (s *RedemptionService) afterRedeem(ev *models.RedemptionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.counter != nil && ev.StoreID != "" {
		if err := s.counter.Incr(ctx, ev.StoreID, ev.RedeemedAt); err != nil {
			slog.Error("Failed to bump store redemption counter",
				"store_id", ev.StoreID,
				"error", err,
			)
		}
	}

	if s.pubnub == nil {
		return
	}

	err := s.breaker.Do(func() error {
		channel := fmt.Sprintf("member-%s", ev.MemberID)
		_, _, err := s.pubnub.Publish().
			Channel(channel).
			Message(map[string]any{
				"type":              "ticket_redeemed",
				"ticket_id":         ev.TicketID,
				"confirmation_code": ev.ConfirmationCode,
				"redeemed_at":       ev.RedeemedAt.Format(time.RFC3339),
			}).
			Execute()
		return err
	})
	if err != nil {
		slog.Error("Failed to publish redemption notification",
			"member_id", ev.MemberID,
			"ticket_id", ev.TicketID,
			"error", err,
		)
	}
}

func (s *RedemptionService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// eligibilityError maps a classification to the typed redeem outcome,
// or nil when the ticket is redeemable.
func eligibilityError(t *models.Ticket, now time.Time, cooldown time.Duration) error {
	switch el := models.Classify(t, now, cooldown); el.State {
	case models.StateExpired:
		return status.ErrTicketExpired
	case models.StateUsed:
		return status.ErrTicketExhausted
	case models.StateCooldown:
		return &status.CooldownError{RemainingSeconds: el.RemainingSeconds}
	}
	return nil
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, status.ErrTicketNotFound):
		return "not_found"
	case errors.Is(err, status.ErrTicketExpired):
		return "expired"
	case errors.Is(err, status.ErrTicketExhausted):
		return "exhausted"
	case errors.Is(err, status.ErrCooldown):
		return "cooldown"
	default:
		return "fault"
	}
}
