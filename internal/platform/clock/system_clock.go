package clock

import (
	"time"

	"github.com/Overland-East-Bay/travel-log-api/internal/ports/out/clock"
)

var _ clock.Clock = SystemClock{}

// SystemClock returns the current wall-clock time in UTC.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC() }
