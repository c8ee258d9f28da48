package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/metrics"
	"LajmeCurator/internal/ports"
)

var (
	// ErrQuotaExceeded is returned when a free user has no views left today.
	ErrQuotaExceeded = errors.New("daily view quota exceeded")
	// ErrInvalidUser is returned for blank user identifiers.
	ErrInvalidUser = errors.New("user id is required")
)

// QuotaService meters article views of free users.
type QuotaService struct {
	counter ports.QuotaCounter
	subs    ports.SubscriptionStore
	limit   int64
	logger  *slog.Logger
	now     func() time.Time
}

// NewQuotaService wires counters and subscriptions. limit is the number of
// free views per UTC day.
func NewQuotaService(counter ports.QuotaCounter, subs ports.SubscriptionStore, limit int64, logger *slog.Logger) *QuotaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuotaService{counter: counter, subs: subs, limit: limit, logger: logger, now: time.Now}
}

// Status reports the quota of userID without consuming a view.
func (s *QuotaService) Status(ctx context.Context, userID string) (domain.QuotaStatus, error) {
	userID, unlimited, err := s.prepare(ctx, userID)
	if err != nil {
		return domain.QuotaStatus{}, err
	}
	if unlimited {
		return s.unlimited(userID), nil
	}

	used, err := s.counter.Count(ctx, userID, s.now())
	if err != nil {
		return domain.QuotaStatus{}, fmt.Errorf("read quota: %w", err)
	}
	return s.status(userID, used), nil
}

// RecordView consumes one view. Refused views are rolled back so the
// counter never exceeds the limit.
func (s *QuotaService) RecordView(ctx context.Context, userID string) (domain.QuotaStatus, error) {
	userID, unlimited, err := s.prepare(ctx, userID)
	if err != nil {
		return domain.QuotaStatus{}, err
	}
	if unlimited {
		return s.unlimited(userID), nil
	}

	day := s.now()
	used, err := s.counter.Increment(ctx, userID, day)
	if err != nil {
		return domain.QuotaStatus{}, fmt.Errorf("increment quota: %w", err)
	}

	if used > s.limit {
		if err := s.counter.Decrement(ctx, userID, day); err != nil {
			s.logger.Error("quota rollback failed", "user", userID, "error", err)
		}
		metrics.RecordQuotaRefusal()
		return s.status(userID, s.limit), ErrQuotaExceeded
	}
	return s.status(userID, used), nil
}

// Subscription returns the stored plan of userID.
func (s *QuotaService) Subscription(ctx context.Context, userID string) (domain.Subscription, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Subscription{}, false, ErrInvalidUser
	}
	if s.subs == nil {
		return domain.Subscription{}, false, nil
	}
	return s.subs.GetSubscription(ctx, userID)
}

// Subscribe stores or replaces a plan.
func (s *QuotaService) Subscribe(ctx context.Context, sub domain.Subscription) (domain.Subscription, error) {
	sub.UserID = strings.TrimSpace(sub.UserID)
	if sub.UserID == "" {
		return domain.Subscription{}, ErrInvalidUser
	}
	if s.subs == nil {
		return domain.Subscription{}, fmt.Errorf("subscription store is not configured")
	}
	sub.UpdatedAt = s.now().UTC()
	if err := s.subs.UpsertSubscription(ctx, sub); err != nil {
		return domain.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}
	return sub, nil
}

func (s *QuotaService) prepare(ctx context.Context, userID string) (string, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", false, ErrInvalidUser
	}
	if s.counter == nil {
		return userID, false, fmt.Errorf("quota counter is not configured")
	}
	if s.subs == nil {
		return userID, false, nil
	}

	sub, found, err := s.subs.GetSubscription(ctx, userID)
	if err != nil {
		return userID, false, fmt.Errorf("load subscription: %w", err)
	}
	return userID, found && sub.Active(s.now()), nil
}

func (s *QuotaService) unlimited(userID string) domain.QuotaStatus {
	return domain.QuotaStatus{UserID: userID, Limit: s.limit, Unlimited: true}
}

func (s *QuotaService) status(userID string, used int64) domain.QuotaStatus {
	return domain.QuotaStatus{
		UserID:    userID,
		Used:      used,
		Limit:     s.limit,
		Remaining: max(s.limit-used, 0),
	}
}
