package database

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orangecat/internal/models"
)

func TestLoadMigrations_Ordered(t *testing.T) {
	ms, err := loadMigrations()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(ms), 2)

	for i, m := range ms {
		assert.NotEmpty(t, strings.TrimSpace(m.SQL), m.Version)
		if i > 0 {
			assert.Less(t, ms[i-1].Version, m.Version)
		}
	}
	assert.Equal(t, "0001_profiles", ms[0].Version)
	assert.Contains(t, ms[1].SQL, "CREATE TABLE IF NOT EXISTS transactions")
}

// testDB connects to ORANGECAT_TEST_DSN, a Supabase Postgres (the schema
// relies on auth.uid()). Tests are skipped without it.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("ORANGECAT_TEST_DSN")
	if dsn == "" {
		t.Skip("ORANGECAT_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = Migrate(ctx, db, zerolog.Nop())
	require.NoError(t, err)
	return db
}

func seedPage(t *testing.T, db *sqlx.DB, owner uuid.UUID) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `INSERT INTO profiles (id, username) VALUES ($1, $2)`, owner, "t"+owner.String()[:8])
	require.NoError(t, err)

	var pageID uuid.UUID
	require.NoError(t, db.GetContext(ctx, &pageID, `
		INSERT INTO funding_pages (user_id, title, goal_amount, currency, status)
		VALUES ($1, 'Test page', 1, 'BTC', 'active') RETURNING id`, owner))
	t.Cleanup(func() { _, _ = db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, owner) })
	return pageID
}

func seedTx(t *testing.T, db *sqlx.DB, pageID, userID uuid.UUID, amount float64) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	require.NoError(t, db.GetContext(context.Background(), &id, `
		INSERT INTO transactions (funding_page_id, user_id, amount, currency, payment_method)
		VALUES ($1, $2, $3, 'BTC', 'lightning') RETURNING id`, pageID, userID, amount))
	return id
}

func TestMigrate_Idempotent(t *testing.T) {
	db := testDB(t)
	applied, err := Migrate(context.Background(), db, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestSettlement_Confirm(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	owner := uuid.New()
	pageID := seedPage(t, db, owner)
	txID := seedTx(t, db, pageID, owner, 0.25)

	store := NewSettlementStore(db)
	res, err := store.Confirm(ctx, txID, "abc123")
	require.NoError(t, err)
	assert.False(t, res.AlreadyConfirmed)
	assert.Equal(t, models.TxConfirmed, res.Transaction.Status)
	assert.Equal(t, "abc123", *res.Transaction.TxID)
	assert.InDelta(t, 0.25, res.Page.RaisedAmount, 1e-9)

	again, err := store.Confirm(ctx, txID, "abc123")
	require.NoError(t, err)
	assert.True(t, again.AlreadyConfirmed)
	assert.InDelta(t, 0.25, again.Page.RaisedAmount, 1e-9)

	_, err = store.Fail(ctx, txID)
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = store.Confirm(ctx, uuid.New(), "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAnalytics(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	owner := uuid.New()
	pageID := seedPage(t, db, owner)
	settle := NewSettlementStore(db)

	for _, amt := range []float64{0.5, 0.7} {
		_, err := settle.Confirm(ctx, seedTx(t, db, pageID, owner, amt), "")
		require.NoError(t, err)
	}
	seedTx(t, db, pageID, owner, 0.1)

	a := NewAnalyticsStore(db)
	cs, err := a.CampaignStats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cs.Total)
	assert.Equal(t, int64(1), cs.Active)
	assert.Equal(t, int64(1), cs.Completed)
	assert.InDelta(t, 1.2, cs.Raised, 1e-9)

	ss, err := a.SupporterStats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ss.Supporters)
	assert.Equal(t, int64(2), ss.Confirmed)
	assert.Equal(t, int64(3), ss.Transactions)
	assert.InDelta(t, 0.6, ss.AvgConfirmed, 1e-9)

	n, err := a.RecentDonations(ctx, owner, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
