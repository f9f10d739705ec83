package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"orangecat/internal/cache"
	"orangecat/internal/database"
	"orangecat/internal/mocks"
	"orangecat/internal/models"
)

type settlementFixture struct {
	svc    *SettlementService
	repo   *mocks.MockSettlementRepository
	alerts *mocks.MockAlertPublisher
	memo   *cache.Memoizer
}

func newSettlementFixture() settlementFixture {
	f := settlementFixture{
		repo:   &mocks.MockSettlementRepository{},
		alerts: &mocks.MockAlertPublisher{},
		memo:   cache.NewMemoizer("analytics-test", time.Hour, nil, zerolog.Nop()),
	}
	f.svc = NewSettlementService(f.repo, cache.NewDedup("webhook-test", nil, zerolog.Nop()), f.memo, f.alerts, zerolog.Nop())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func TestSettlementService_ConfirmPublishesAndInvalidates(t *testing.T) {
	f := newSettlementFixture()
	owner, txID, pageID := uuid.New(), uuid.New(), uuid.New()

	// prime the analytics cache for the owner
	var calls int
	fn := func(context.Context) (any, error) { calls++; return calls, nil }
	var n int
	require.NoError(t, f.memo.Do(context.Background(), fundraisingKey(owner), &n, fn))

	f.repo.On("Confirm", mock.Anything, txID, "chain").Return(database.Settlement{
		Transaction: models.Transaction{ID: txID, Amount: 0.1, Currency: "BTC", PaymentMethod: "lightning"},
		Page:        models.FundingPage{ID: pageID, UserID: owner, Title: "Relay", RaisedAmount: 0.6},
	}, nil).Once()
	f.alerts.On("Publish", owner, models.Donation{
		TransactionID: txID,
		FundingPageID: pageID,
		PageTitle:     "Relay",
		Amount:        0.1,
		Currency:      "BTC",
		PaymentMethod: "lightning",
		RaisedAmount:  0.6,
		ConfirmedAt:   fixedNow.Format(time.RFC3339),
	}).Once()

	event := models.PaymentEvent{EventID: "evt_1", TransactionID: txID, Status: models.TxConfirmed, ChainTxID: "chain"}
	status, err := f.svc.Apply(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, EventApplied, status)

	require.NoError(t, f.memo.Do(context.Background(), fundraisingKey(owner), &n, fn))
	assert.Equal(t, 2, n, "analytics should be recomputed after a confirmation")

	status, err = f.svc.Apply(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, EventDuplicate, status)

	f.repo.AssertExpectations(t)
	f.alerts.AssertExpectations(t)
}

func TestSettlementService_AlreadyConfirmedDoesNotAlert(t *testing.T) {
	f := newSettlementFixture()
	txID := uuid.New()
	f.repo.On("Confirm", mock.Anything, txID, "").Return(database.Settlement{AlreadyConfirmed: true}, nil)

	status, err := f.svc.Apply(context.Background(), models.PaymentEvent{EventID: "evt_2", TransactionID: txID, Status: models.TxConfirmed})
	require.NoError(t, err)
	assert.Equal(t, EventDuplicate, status)
	f.alerts.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSettlementService_FailureAllowsRetry(t *testing.T) {
	f := newSettlementFixture()
	txID := uuid.New()
	f.repo.On("Confirm", mock.Anything, txID, "").Return(database.Settlement{}, models.ErrUnavailable).Once()
	f.repo.On("Confirm", mock.Anything, txID, "").Return(database.Settlement{AlreadyConfirmed: true}, nil).Once()

	event := models.PaymentEvent{EventID: "evt_3", TransactionID: txID, Status: models.TxConfirmed}
	_, err := f.svc.Apply(context.Background(), event)
	assert.ErrorIs(t, err, models.ErrUnavailable)

	_, err = f.svc.Apply(context.Background(), event)
	assert.NoError(t, err)
	f.repo.AssertNumberOfCalls(t, "Confirm", 2)
}

func TestSettlementService_FailedPayment(t *testing.T) {
	f := newSettlementFixture()
	txID := uuid.New()
	f.repo.On("Fail", mock.Anything, txID).Return(models.Transaction{ID: txID, Status: models.TxFailed}, nil)

	status, err := f.svc.Apply(context.Background(), models.PaymentEvent{EventID: "evt_4", TransactionID: txID, Status: models.TxFailed})
	require.NoError(t, err)
	assert.Equal(t, EventApplied, status)
}
