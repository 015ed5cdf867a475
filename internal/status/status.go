package status

import (
	"errors"
	"fmt"
)

var (
	ErrTicketNotFound  = errors.New("ticket: not found")
	ErrTicketExpired   = errors.New("ticket: expired")
	ErrTicketExhausted = errors.New("ticket: no remaining uses")

	// ErrNotEligible is returned by the store when the conditional
	// decrement matched no row. The engine re-reads the ticket to
	// report the exact reason.
	ErrNotEligible = errors.New("ticket: not eligible for redemption")

	// ErrCooldown is the errors.Is target for CooldownError.
	ErrCooldown = errors.New("ticket: cooldown in effect")
)

// CooldownError reports how long the caller has to wait before the
// ticket can be redeemed again.
type CooldownError struct {
	RemainingSeconds int64
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("ticket: cooldown in effect, retry in %ds", e.RemainingSeconds)
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldown
}
