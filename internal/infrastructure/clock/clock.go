package clock

import (
	"sync"
	"time"

	"cloud.google.com/go/civil"
)

// Clock source of "now" for anything that derives dates or timestamps
type Clock interface {
	Now() time.Time
}

// Today calendar day of c.Now() in UTC
func Today(c Clock) civil.Date {
	return civil.DateOf(c.Now().UTC())
}

// SystemClock Clock backed by time.Now
type SystemClock struct{}

var _ Clock = SystemClock{}

// NewSystemClock create a wall clock
func NewSystemClock() SystemClock {
	return SystemClock{}
}

// Now implement Clock
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock Clock frozen at a settable instant, used in tests and replays
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ Clock = &FixedClock{}

// NewFixedClock create a clock frozen at t
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now implement Clock
func (fc *FixedClock) Now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.now
}

// Set move the clock to t
func (fc *FixedClock) Set(t time.Time) {
	fc.mu.Lock()
	fc.now = t
	fc.mu.Unlock()
}

// Advance move the clock forward by d
func (fc *FixedClock) Advance(d time.Duration) {
	fc.mu.Lock()
	fc.now = fc.now.Add(d)
	fc.mu.Unlock()
}
