package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zenithmedia_bot/internal/cryptopay"
	"zenithmedia_bot/internal/logger"
	"zenithmedia_bot/internal/metrics"
)

var (
	ErrRateUnavailable   = errors.New("exchange rate unavailable")
	ErrBelowMinimum      = errors.New("converted amount below rail minimum")
	ErrInsufficientFloat = errors.New("settlement reserve too low")
)

const settlementAsset = "USDT"

// dispatchTimeout bounds the transfer call. When it fires the outcome is
// unknown, never a failure: the transfer is never cancelled locally, only
// reconciled against the rail.
const dispatchTimeout = 45 * time.Second

// Rail is the settlement-rail surface the dispatcher needs; satisfied by
// *cryptopay.Client.
type Rail interface {
	TransferSend(ctx context.Context, userID int64, asset string, amount float64, spendID string) (*cryptopay.Transfer, error)
	GetBalance(ctx context.Context) (map[string]float64, error)
}

// RateSource converts RUB to USDT; satisfied by *rates.Gateway.
type RateSource interface {
	Rate(ctx context.Context) (float64, error)
}

// RailFailure wraps a classified transfer error.
type RailFailure struct {
	Kind cryptopay.FailureKind
	Err  error
}

func (f *RailFailure) Error() string {
	return fmt.Sprintf("rail failure (%s): %v", f.Kind, f.Err)
}

func (f *RailFailure) Unwrap() error { return f.Err }

// DispatchResult is a confirmed transfer.
type DispatchResult struct {
	AmountUSDT  float64
	TransferRef string
}

// Dispatcher wraps the external transfer call. It holds no state of its own
// and is safe to retry: the spend key deduplicates on the rail, and callers
// own updating payout and ledger state from the result.
type Dispatcher struct {
	rail    Rail
	rates   RateSource
	minUSDT float64
	log     *slog.Logger
}

func NewDispatcher(rail Rail, rates RateSource, minUSDT float64) *Dispatcher {
	return &Dispatcher{
		rail:    rail,
		rates:   rates,
		minUSDT: minUSDT,
		log:     logger.With("component", "dispatcher"),
	}
}

// Convert turns kopecks into the settlement amount, enforcing the rail
// minimum.
func (d *Dispatcher) Convert(ctx context.Context, amountKop int64) (float64, error) {
	rate, err := d.rates.Rate(ctx)
	if err != nil {
		return 0, ErrRateUnavailable
	}

	usdt := float64(amountKop) / 100 * rate
	if usdt < d.minUSDT {
		return usdt, ErrBelowMinimum
	}
	return usdt, nil
}

// Dispatch converts and submits one transfer under the given spend key.
// A repeated call with the same key and amount cannot create a second real
// transfer; the rail returns the original result for a duplicate key.
func (d *Dispatcher) Dispatch(ctx context.Context, recipientTgID, amountKop int64, spendKey string) (*DispatchResult, error) {
	usdt, err := d.Convert(ctx, amountKop)
	if err != nil {
		metrics.DispatchTotal.WithLabelValues("precheck_failed").Inc()
		return nil, err
	}

	// Optimistic reserve check. A balance lookup failure is not a reason to
	// refuse: the rail itself rejects with insufficient-funds if we are wrong.
	if balances, err := d.rail.GetBalance(ctx); err == nil {
		if balances[settlementAsset] < usdt {
			metrics.DispatchTotal.WithLabelValues("insufficient_float").Inc()
			return nil, ErrInsufficientFloat
		}
	} else {
		d.log.Warn("float check skipped", "error", err)
	}

	d.log.Info("submitting transfer",
		"recipient", recipientTgID,
		"amount_kop", amountKop,
		"amount_usdt", usdt,
		"spend_key", spendKey,
	)

	callCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	transfer, err := d.rail.TransferSend(callCtx, recipientTgID, settlementAsset, usdt, spendKey)
	if err != nil {
		kind := cryptopay.Classify(err)
		metrics.DispatchTotal.WithLabelValues(string(kind)).Inc()
		d.log.Error("transfer failed", "spend_key", spendKey, "kind", kind, "error", err)
		return nil, &RailFailure{Kind: kind, Err: err}
	}

	metrics.DispatchTotal.WithLabelValues("ok").Inc()
	d.log.Info("transfer confirmed", "spend_key", spendKey, "transfer_id", transfer.TransferID)

	return &DispatchResult{
		AmountUSDT:  usdt,
		TransferRef: fmt.Sprintf("%d", transfer.TransferID),
	}, nil
}
