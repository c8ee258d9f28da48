package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"LajmeCurator/internal/domain"
)

// GetSubscription loads the plan of userID. The boolean is false when the
// user never subscribed.
func (r *PostgresRepository) GetSubscription(ctx context.Context, userID string) (domain.Subscription, bool, error) {
	if r.pool == nil {
		return domain.Subscription{}, false, errNoPool
	}

	query, args, err := r.psql.
		Select("user_id", "plan", "expires_at", "updated_at").
		From("subscriptions").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return domain.Subscription{}, false, fmt.Errorf("build subscription query: %w", err)
	}

	var sub domain.Subscription
	err = r.pool.QueryRow(ctx, query, args...).Scan(&sub.UserID, &sub.Plan, &sub.ExpiresAt, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Subscription{}, false, nil
	}
	if err != nil {
		return domain.Subscription{}, false, fmt.Errorf("query subscription: %w", err)
	}
	return sub, true, nil
}

// UpsertSubscription creates or replaces the plan of sub.UserID.
func (r *PostgresRepository) UpsertSubscription(ctx context.Context, sub domain.Subscription) error {
	if r.pool == nil {
		return errNoPool
	}

	query, args, err := r.psql.Insert("subscriptions").
		Columns("user_id", "plan", "expires_at", "updated_at").
		Values(sub.UserID, sub.Plan, sub.ExpiresAt, sub.UpdatedAt).
		Suffix(`ON CONFLICT (user_id) DO UPDATE
              SET plan = EXCLUDED.plan,
                  expires_at = EXCLUDED.expires_at,
                  updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build subscription upsert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}
