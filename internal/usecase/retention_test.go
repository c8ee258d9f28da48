package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LajmeCurator/internal/logging"
)

func TestRetentionRun(t *testing.T) {
	t.Parallel()

	store := &fakeStore{expiredN: 12, overflowN: 4}
	report, err := NewRetention(store, 30*24*time.Hour, 5000, logging.Discard()).Run(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, now.Add(-30*24*time.Hour), store.cutoff)
	assert.Equal(t, 5000, store.keep)
	assert.EqualValues(t, 12, report.ExpiredDeleted)
	assert.EqualValues(t, 4, report.OverflowDeleted)
}

func TestRetentionRowCapDisabled(t *testing.T) {
	t.Parallel()

	store := &fakeStore{expiredN: 2, overflowN: 9}
	report, err := NewRetention(store, time.Hour, 0, logging.Discard()).Run(context.Background(), now)
	require.NoError(t, err)

	assert.Zero(t, store.keep)
	assert.EqualValues(t, 2, report.ExpiredDeleted)
	assert.Zero(t, report.OverflowDeleted)
}
