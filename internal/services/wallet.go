package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"orangecat/internal/currency"
	"orangecat/internal/metrics"
	"orangecat/internal/models"
	"orangecat/internal/validation"
)

const (
	walletAttempts   = 3
	walletRetryDelay = time.Second
	walletRecentTxs  = 5
)

// Esplora response subsets.
type esploraAddress struct {
	ChainStats struct {
		FundedTxoSum int64 `json:"funded_txo_sum"`
		SpentTxoSum  int64 `json:"spent_txo_sum"`
	} `json:"chain_stats"`
}

type esploraTx struct {
	TxID string `json:"txid"`
	Vin  []struct {
		Prevout *struct {
			Address string `json:"scriptpubkey_address"`
		} `json:"prevout"`
	} `json:"vin"`
	Vout []struct {
		Address string `json:"scriptpubkey_address"`
		Value   int64  `json:"value"`
	} `json:"vout"`
	Status struct {
		Confirmed bool  `json:"confirmed"`
		BlockTime int64 `json:"block_time"`
	} `json:"status"`
}

// errFinal stops retries against a provider that gave a definite answer.
type errFinal struct{ err error }

func (e errFinal) Error() string { return e.err.Error() }
func (e errFinal) Unwrap() error { return e.err }

// WalletService reads address balances from Esplora-compatible APIs, trying
// providers in order with a few attempts each.
type WalletService struct {
	providers []string
	client    *http.Client
	memo      Memo
	log       zerolog.Logger
	now       func() time.Time
	sleep     func(context.Context, time.Duration) error
}

func NewWalletService(providers []string, client *http.Client, memo Memo, log zerolog.Logger) *WalletService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	trimmed := make([]string, 0, len(providers))
	for _, p := range providers {
		trimmed = append(trimmed, strings.TrimRight(p, "/"))
	}
	return &WalletService{
		providers: trimmed,
		client:    client,
		memo:      memo,
		log:       log.With().Str("component", "wallet").Logger(),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *WalletService) Lookup(ctx context.Context, address string) (models.WalletData, error) {
	clean, verr := validation.CleanBitcoinAddress(address)
	if verr != nil {
		return models.WalletData{}, verr
	}

	var out models.WalletData
	err := s.memo.Do(ctx, "wallet-"+clean, &out, func(ctx context.Context) (any, error) {
		return s.fetch(ctx, clean)
	})
	return out, err
}

func (s *WalletService) fetch(ctx context.Context, address string) (models.WalletData, error) {
	var lastErr error
	for _, provider := range s.providers {
		host := providerName(provider)
		for attempt := 1; attempt <= walletAttempts; attempt++ {
			data, err := s.fetchFrom(ctx, provider, address)
			if err == nil {
				metrics.WalletProviderRequestsTotal.WithLabelValues(host, "ok").Inc()
				data.Provider = host
				return data, nil
			}
			metrics.WalletProviderRequestsTotal.WithLabelValues(host, "error").Inc()
			lastErr = err

			var final errFinal
			if errors.As(err, &final) {
				return models.WalletData{}, final.err
			}
			s.log.Warn().Err(err).Str("provider", host).Int("attempt", attempt).Msg("wallet lookup failed")
			if attempt < walletAttempts {
				if err := s.sleep(ctx, walletRetryDelay*time.Duration(attempt)); err != nil {
					return models.WalletData{}, err
				}
			}
		}
	}
	return models.WalletData{}, fmt.Errorf("fetch wallet data: %w: %v", models.ErrUpstream, lastErr)
}

func (s *WalletService) fetchFrom(ctx context.Context, provider, address string) (models.WalletData, error) {
	var addr esploraAddress
	if err := s.getJSON(ctx, provider+"/address/"+url.PathEscape(address), &addr); err != nil {
		return models.WalletData{}, err
	}
	var txs []esploraTx
	if err := s.getJSON(ctx, provider+"/address/"+url.PathEscape(address)+"/txs", &txs); err != nil {
		return models.WalletData{}, err
	}

	sats := addr.ChainStats.FundedTxoSum - addr.ChainStats.SpentTxoSum
	btc := currency.SatsToBTC(sats)
	balance, _ := btc.Float64()

	out := models.WalletData{
		Address:      address,
		Balance:      balance,
		BalanceSats:  sats,
		Display:      currency.FormatBTC(btc),
		Transactions: make([]models.WalletTx, 0, walletRecentTxs),
		LastUpdated:  s.now().UnixMilli(),
	}
	for _, tx := range txs[:min(len(txs), walletRecentTxs)] {
		out.Transactions = append(out.Transactions, s.summarize(tx, address))
	}
	return out, nil
}

func (s *WalletService) summarize(tx esploraTx, address string) models.WalletTx {
	wt := models.WalletTx{TxID: tx.TxID, Type: "incoming", Status: "pending"}
	for _, in := range tx.Vin {
		if in.Prevout != nil && in.Prevout.Address == address {
			wt.Type = "outgoing"
			break
		}
	}
	var sats int64
	for _, o := range tx.Vout {
		if o.Address == address {
			sats += o.Value
		}
	}
	wt.Value, _ = currency.SatsToBTC(sats).Float64()
	if tx.Status.Confirmed {
		wt.Status = "confirmed"
	}
	if tx.Status.BlockTime > 0 {
		wt.Timestamp = tx.Status.BlockTime * 1000
	} else {
		wt.Timestamp = s.now().UnixMilli()
	}
	return wt
}

func (s *WalletService) getJSON(ctx context.Context, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errFinal{err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return errFinal{models.Invalid("address", "Invalid Bitcoin address")}
	case resp.StatusCode == http.StatusNotFound:
		return errFinal{fmt.Errorf("address: %w", models.ErrNotFound)}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s: status %d", providerName(u), resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", providerName(u), err)
	}
	return nil
}

func providerName(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	return raw
}
