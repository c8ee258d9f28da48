package domain

import "time"

// Subscription marks a user as exempt from the free view quota until ExpiresAt.
type Subscription struct {
	UserID    string
	Plan      string
	ExpiresAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the subscription covers the given instant.
func (s Subscription) Active(now time.Time) bool {
	return s.UserID != "" && now.Before(s.ExpiresAt)
}

// QuotaStatus describes how many article views a user has left today.
type QuotaStatus struct {
	UserID    string
	Used      int64
	Limit     int64
	Remaining int64
	Unlimited bool
}
