package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CampaignStats summarises the funding pages of one owner.
type CampaignStats struct {
	Total  int64   `db:"total"`
	Active int64   `db:"active"`
	Raised float64 `db:"raised"`
	Goal   float64 `db:"goal"`
	// Completed counts pages whose raised amount reached the goal.
	Completed int64 `db:"completed"`
}

// SupporterStats summarises transactions made towards one owner's pages.
type SupporterStats struct {
	Supporters   int64   `db:"supporters"`
	Confirmed    int64   `db:"confirmed"`
	Transactions int64   `db:"transactions"`
	AvgConfirmed float64 `db:"avg_confirmed"`
}

type AnalyticsStore struct {
	db *sqlx.DB
}

func NewAnalyticsStore(db *sqlx.DB) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

func (s *AnalyticsStore) CampaignStats(ctx context.Context, userID uuid.UUID) (CampaignStats, error) {
	var st CampaignStats
	err := s.db.GetContext(ctx, &st, `
		SELECT count(*)                                             AS total,
		       count(*) FILTER (WHERE status = 'active')            AS active,
		       count(*) FILTER (WHERE raised_amount >= goal_amount) AS completed,
		       COALESCE(sum(raised_amount), 0)::float8              AS raised,
		       COALESCE(sum(goal_amount), 0)::float8                AS goal
		FROM funding_pages
		WHERE user_id = $1`, userID)
	if err != nil {
		return st, fmt.Errorf("campaign stats: %w", err)
	}
	return st, nil
}

func (s *AnalyticsStore) SupporterStats(ctx context.Context, userID uuid.UUID) (SupporterStats, error) {
	var st SupporterStats
	err := s.db.GetContext(ctx, &st, `
		SELECT count(DISTINCT t.user_id) FILTER (WHERE t.status = 'confirmed')  AS supporters,
		       count(*) FILTER (WHERE t.status = 'confirmed')                   AS confirmed,
		       count(*)                                                         AS transactions,
		       COALESCE(avg(t.amount) FILTER (WHERE t.status = 'confirmed'), 0)::float8 AS avg_confirmed
		FROM transactions t
		JOIN funding_pages p ON p.id = t.funding_page_id
		WHERE p.user_id = $1`, userID)
	if err != nil {
		return st, fmt.Errorf("supporter stats: %w", err)
	}
	return st, nil
}

// RecentDonations counts confirmed transactions created since the given time.
func (s *AnalyticsStore) RecentDonations(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `
		SELECT count(*)
		FROM transactions t
		JOIN funding_pages p ON p.id = t.funding_page_id
		WHERE p.user_id = $1 AND t.status = 'confirmed' AND t.created_at >= $2`, userID, since)
	if err != nil {
		return 0, fmt.Errorf("recent donations: %w", err)
	}
	return n, nil
}
