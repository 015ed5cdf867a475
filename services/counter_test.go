package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utcLocations(string) *time.Location { return time.UTC }

func TestDailyCounter_IncrFirstOfDaySetsExpiry(t *testing.T) {
	db, mock := redismock.NewClientMock()
	counter := NewDailyCounter(db, utcLocations)

	day := time.Date(2025, 7, 1, 15, 30, 0, 0, time.UTC)
	key := "redemptions:store:store-1:2025-07-01"

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, counterTTL).SetVal(true)

	err := counter.Incr(context.Background(), "store-1", day)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyCounter_IncrExistingKeySkipsExpiry(t *testing.T) {
	db, mock := redismock.NewClientMock()
	counter := NewDailyCounter(db, utcLocations)

	day := time.Date(2025, 7, 1, 15, 30, 0, 0, time.UTC)
	key := "redemptions:store:store-1:2025-07-01"

	mock.ExpectIncr(key).SetVal(42)

	err := counter.Incr(context.Background(), "store-1", day)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyCounter_Count(t *testing.T) {
	db, mock := redismock.NewClientMock()
	counter := NewDailyCounter(db, utcLocations)

	day := time.Date(2025, 7, 1, 15, 30, 0, 0, time.UTC)
	key := "redemptions:store:store-1:2025-07-01"

	mock.ExpectGet(key).SetVal("7")

	count, err := counter.Count(context.Background(), "store-1", day)

	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyCounter_CountMissingKeyIsZero(t *testing.T) {
	db, mock := redismock.NewClientMock()
	counter := NewDailyCounter(db, utcLocations)

	day := time.Date(2025, 7, 1, 15, 30, 0, 0, time.UTC)

	mock.ExpectGet("redemptions:store:store-1:2025-07-01").RedisNil()

	count, err := counter.Count(context.Background(), "store-1", day)

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyCounter_BucketsByStoreLocalDay(t *testing.T) {
	// A redemption just after local midnight counts toward the store's
	// new day even though UTC is still on the previous date, matching
	// the ledger's "today" view.
	db, mock := redismock.NewClientMock()
	loc := time.FixedZone("UTC+7", 7*3600)
	counter := NewDailyCounter(db, func(string) *time.Location { return loc })

	day := time.Date(2025, 7, 1, 18, 30, 0, 0, time.UTC) // 2025-07-02 01:30 local
	key := "redemptions:store:store-1:2025-07-02"

	mock.ExpectIncr(key).SetVal(5)

	err := counter.Incr(context.Background(), "store-1", day)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreDayKey(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	day := time.Date(2025, 7, 2, 3, 0, 0, 0, loc) // 2025-07-01 22:00 UTC

	assert.Equal(t, "redemptions:store:s:2025-07-02", StoreDayKey("s", day, loc))
	assert.Equal(t, "redemptions:store:s:2025-07-01", StoreDayKey("s", day, time.UTC))
	assert.Equal(t, "redemptions:store:s:2025-07-01", StoreDayKey("s", day, nil))
}
