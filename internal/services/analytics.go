package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"orangecat/internal/database"
	"orangecat/internal/models"
)

const (
	recentDonationWindow = 30 * 24 * time.Hour
	fundraisingTimeline  = "Available Now"
)

func fundraisingKey(userID uuid.UUID) string { return "fundraising-" + userID.String() }

// AnalyticsService builds the fundraising dashboard numbers. With a direct
// database connection it runs aggregate queries; otherwise it derives what it
// can from the caller's pages through PostgREST.
type AnalyticsService struct {
	stats AnalyticsRepository // nil without a database
	pages FundingRepository
	memo  Memo
	log   zerolog.Logger
	now   func() time.Time
}

func NewAnalyticsService(stats AnalyticsRepository, pages FundingRepository, memo Memo, log zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		stats: stats,
		pages: pages,
		memo:  memo,
		log:   log.With().Str("component", "analytics").Logger(),
		now:   time.Now,
	}
}

// Fundraising never fails: on error it reports zeros with low confidence.
func (s *AnalyticsService) Fundraising(ctx context.Context, token string, userID uuid.UUID) models.FeatureMetrics {
	var out models.FeatureMetrics
	err := s.memo.Do(ctx, fundraisingKey(userID), &out, func(ctx context.Context) (any, error) {
		if s.stats != nil {
			return s.fromDatabase(ctx, userID)
		}
		return s.fromPages(ctx, token, userID)
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("fundraising metrics unavailable")
		return s.fallback()
	}
	return out
}

func (s *AnalyticsService) fromDatabase(ctx context.Context, userID uuid.UUID) (models.FeatureMetrics, error) {
	var (
		campaigns  database.CampaignStats
		supporters database.SupporterStats
		recent     int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		campaigns, err = s.stats.CampaignStats(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		supporters, err = s.stats.SupporterStats(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.stats.RecentDonations(gctx, userID, s.now().Add(-recentDonationWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return models.FeatureMetrics{}, err
	}

	at := s.now().UTC()
	metric := func(v any) models.MetricValue {
		return models.NewMetric(v, models.SourceDatabase, models.ConfidenceHigh, at)
	}
	return models.FeatureMetrics{
		IsEnabled: true,
		Timeline:  fundraisingTimeline,
		Stats: map[string]models.MetricValue{
			"totalCampaigns":  metric(campaigns.Total),
			"totalRaised":     metric(finite(campaigns.Raised)),
			"totalSupporters": metric(supporters.Supporters),
			"activeCampaigns": metric(campaigns.Active),
			"recentDonations": metric(recent),
			"avgDonationSize": metric(finite(supporters.AvgConfirmed)),
			"successRate":     metric(percent(campaigns.Completed, campaigns.Total)),
		},
	}, nil
}

// fromPages covers what the pages alone can tell. Supporter numbers need
// the transactions of every page and are reported as zero with low confidence.
func (s *AnalyticsService) fromPages(ctx context.Context, token string, userID uuid.UUID) (models.FeatureMetrics, error) {
	pages, err := s.pages.ListPages(ctx, token, userID, "")
	if err != nil {
		return models.FeatureMetrics{}, err
	}

	var raised float64
	var active, completed int64
	for _, p := range pages {
		raised += p.RaisedAmount
		if p.Status == models.PageActive {
			active++
		}
		if p.GoalAmount > 0 && p.RaisedAmount >= p.GoalAmount {
			completed++
		}
	}

	at := s.now().UTC()
	api := func(v any) models.MetricValue {
		return models.NewMetric(v, models.SourceAPI, models.ConfidenceMedium, at)
	}
	unknown := models.NewMetric(0, models.SourceAPI, models.ConfidenceLow, at)
	return models.FeatureMetrics{
		IsEnabled: true,
		Timeline:  fundraisingTimeline,
		Stats: map[string]models.MetricValue{
			"totalCampaigns":  api(len(pages)),
			"totalRaised":     api(finite(raised)),
			"totalSupporters": unknown,
			"activeCampaigns": api(active),
			"recentDonations": unknown,
			"avgDonationSize": unknown,
			"successRate":     api(percent(completed, int64(len(pages)))),
		},
	}, nil
}

func (s *AnalyticsService) fallback() models.FeatureMetrics {
	at := s.now().UTC()
	zero := models.NewMetric(0, models.SourceFallback, models.ConfidenceLow, at)
	stats := make(map[string]models.MetricValue, 7)
	for _, k := range []string{"totalCampaigns", "totalRaised", "totalSupporters", "activeCampaigns", "recentDonations", "avgDonationSize", "successRate"} {
		stats[k] = zero
	}
	return models.FeatureMetrics{IsEnabled: true, Timeline: fundraisingTimeline, Stats: stats}
}

func percent(part, total int64) int64 {
	if total <= 0 {
		return 0
	}
	return int64(math.Round(float64(part) / float64(total) * 100))
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
