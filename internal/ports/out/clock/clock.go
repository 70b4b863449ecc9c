package clock

import "time"

// Clock provides time to token verification and idempotency bookkeeping.
// Tests substitute a fixed or manually advanced implementation.
type Clock interface {
	Now() time.Time
}
