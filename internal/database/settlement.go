package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"orangecat/internal/models"
)

const (
	txSelect = `id, funding_page_id, user_id, amount::float8 AS amount, currency, payment_method, status, tx_id, created_at`
	pgSelect = `id, user_id, title, description, goal_amount::float8 AS goal_amount, raised_amount::float8 AS raised_amount,
		currency, status, bitcoin_address, lightning_address, created_at, updated_at`
)

// Settlement is the outcome of confirming a payment.
type Settlement struct {
	Transaction models.Transaction
	Page        models.FundingPage
	// AlreadyConfirmed is set when the transaction was confirmed by an
	// earlier delivery; nothing was changed.
	AlreadyConfirmed bool
}

type SettlementStore struct {
	db *sqlx.DB
}

func NewSettlementStore(db *sqlx.DB) *SettlementStore {
	return &SettlementStore{db: db}
}

// Confirm marks a pending transaction confirmed and adds its amount to the
// page's raised_amount in one database transaction.
func (s *SettlementStore) Confirm(ctx context.Context, txID uuid.UUID, chainTxID string) (Settlement, error) {
	var out Settlement
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		current, err := lockTransaction(ctx, tx, txID)
		if err != nil {
			return err
		}

		switch current.Status {
		case models.TxConfirmed:
			out.Transaction = current
			out.AlreadyConfirmed = true
			return tx.GetContext(ctx, &out.Page, `SELECT `+pgSelect+` FROM funding_pages WHERE id = $1`, current.FundingPageID)
		case models.TxFailed:
			return fmt.Errorf("transaction %s already failed: %w", txID, models.ErrConflict)
		}

		var chain *string
		if chainTxID != "" {
			chain = &chainTxID
		}
		if err := tx.GetContext(ctx, &out.Transaction, `
			UPDATE transactions
			SET status = 'confirmed', tx_id = COALESCE($2, tx_id), updated_at = now()
			WHERE id = $1 AND status = 'pending'
			RETURNING `+txSelect, txID, chain); err != nil {
			return fmt.Errorf("confirm transaction: %w", err)
		}

		if err := tx.GetContext(ctx, &out.Page, `
			UPDATE funding_pages
			SET raised_amount = raised_amount + $2, updated_at = now()
			WHERE id = $1
			RETURNING `+pgSelect, out.Transaction.FundingPageID, out.Transaction.Amount); err != nil {
			return fmt.Errorf("credit funding page: %w", err)
		}
		return nil
	})
	return out, err
}

// Fail marks a pending transaction failed. Settled transactions are left alone.
func (s *SettlementStore) Fail(ctx context.Context, txID uuid.UUID) (models.Transaction, error) {
	var out models.Transaction
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		current, err := lockTransaction(ctx, tx, txID)
		if err != nil {
			return err
		}
		if current.Status != models.TxPending {
			out = current
			if current.Status == models.TxConfirmed {
				return fmt.Errorf("transaction %s already confirmed: %w", txID, models.ErrConflict)
			}
			return nil
		}
		return tx.GetContext(ctx, &out, `
			UPDATE transactions SET status = 'failed', updated_at = now()
			WHERE id = $1
			RETURNING `+txSelect, txID)
	})
	return out, err
}

func lockTransaction(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (models.Transaction, error) {
	var t models.Transaction
	err := tx.GetContext(ctx, &t, `SELECT `+txSelect+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("transaction %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return t, fmt.Errorf("lock transaction: %w", err)
	}
	return t, nil
}

func (s *SettlementStore) inTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
