package chrono

import (
	"sync"
	"time"
)

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in UTC.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now().UTC()
}

// ManualTime is a TimeAPI whose clock only moves when told to.
type ManualTime struct {
	lock sync.Mutex
	now  time.Time
}

func NewManualTime(now time.Time) *ManualTime {
	return &ManualTime{now: now.UTC()}
}

func (m *ManualTime) Now() time.Time {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.now
}

func (m *ManualTime) Set(now time.Time) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.now = now.UTC()
}

func (m *ManualTime) Advance(d time.Duration) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.now = m.now.Add(d)
}
