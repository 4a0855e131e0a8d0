package domain

import "time"

// View is one append-only product view event used as a demand signal.
type View struct {
	ID        int64
	ProductID string
	SessionID string
	IP        string
	UserAgent string
	CreatedAt time.Time
}

// Tick records one completed repricing pass. Numbers are unique and
// monotonically increasing; the simulation resumes from the highest stored
// number at startup.
type Tick struct {
	Number  int64
	RanAt   time.Time
	Updated int
}
