package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"orangecat/internal/metrics"
	"orangecat/internal/models"
)

const eventDedupTTL = time.Hour

// Webhook outcomes, also used as the response status.
const (
	EventApplied   = "applied"
	EventDuplicate = "duplicate"
)

// SettlementService applies signed payment confirmations.
type SettlementService struct {
	repo      SettlementRepository
	dedup     Deduplicator
	analytics Memo
	alerts    AlertPublisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewSettlementService(repo SettlementRepository, dedup Deduplicator, analytics Memo, alerts AlertPublisher, log zerolog.Logger) *SettlementService {
	return &SettlementService{
		repo:      repo,
		dedup:     dedup,
		analytics: analytics,
		alerts:    alerts,
		log:       log.With().Str("component", "settlement").Logger(),
		now:       time.Now,
	}
}

// Apply settles the transaction named by event. Redelivered events are
// acknowledged without touching the database.
func (s *SettlementService) Apply(ctx context.Context, event models.PaymentEvent) (string, error) {
	log := s.log.With().Str("event_id", event.EventID).Str("transaction_id", event.TransactionID.String()).Logger()

	if !s.dedup.FirstSeen(ctx, event.EventID, eventDedupTTL) {
		metrics.WebhookEventsTotal.WithLabelValues(EventDuplicate).Inc()
		log.Info().Msg("duplicate payment event")
		return EventDuplicate, nil
	}

	status, err := s.apply(ctx, event)
	if err != nil {
		// Let the sender retry.
		s.dedup.Forget(ctx, event.EventID)
		metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("payment event failed")
		return "", err
	}
	metrics.WebhookEventsTotal.WithLabelValues(status).Inc()
	log.Info().Str("status", status).Msg("payment event applied")
	return status, nil
}

func (s *SettlementService) apply(ctx context.Context, event models.PaymentEvent) (string, error) {
	if event.Status == models.TxFailed {
		if _, err := s.repo.Fail(ctx, event.TransactionID); err != nil {
			return "", fmt.Errorf("fail transaction: %w", err)
		}
		return EventApplied, nil
	}

	res, err := s.repo.Confirm(ctx, event.TransactionID, event.ChainTxID)
	if err != nil {
		return "", fmt.Errorf("confirm transaction: %w", err)
	}
	if res.AlreadyConfirmed {
		return EventDuplicate, nil
	}

	owner := res.Page.UserID
	s.analytics.Invalidate(ctx, fundraisingKey(owner))
	if s.alerts != nil {
		s.alerts.Publish(owner, models.Donation{
			TransactionID: res.Transaction.ID,
			FundingPageID: res.Page.ID,
			PageTitle:     res.Page.Title,
			Amount:        res.Transaction.Amount,
			Currency:      res.Transaction.Currency,
			PaymentMethod: res.Transaction.PaymentMethod,
			RaisedAmount:  res.Page.RaisedAmount,
			ConfirmedAt:   s.now().UTC().Format(time.RFC3339),
		})
	}
	return EventApplied, nil
}
