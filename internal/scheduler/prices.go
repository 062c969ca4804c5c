package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/hoteldash/internal/pricing"
)

const priceRefreshJobName = "competitor_price_refresh"

// PriceRefresher is satisfied by *pricing.Refresher.
type PriceRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// RegisterPriceRefreshJob schedules a competitor price refresh on cronExpr.
// Each run is bounded by timeout.
func RegisterPriceRefreshJob(refresher PriceRefresher, cronExpr string, timeout time.Duration) error {
	if refresher == nil {
		return fmt.Errorf("price refresh job requires a refresher")
	}

	_, err := AddJob(priceRefreshJobName, cronExpr, func() {
		RunPriceRefresh(context.Background(), refresher, timeout)
	})
	return err
}

// RunPriceRefresh runs one refresh with a job-scoped logger. Failures are
// logged and otherwise ignored; the next run tries again.
func RunPriceRefresh(ctx context.Context, refresher PriceRefresher, timeout time.Duration) {
	jobLogger := log.With().
		Str("component", "price_refresh_job").
		Str("job_name", priceRefreshJobName).
		Logger()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ctx = jobLogger.WithContext(ctx)

	start := time.Now()
	stored, err := refresher.Refresh(ctx)
	switch {
	case errors.Is(err, pricing.ErrRefreshInProgress):
		jobLogger.Debug().Msg("Price refresh skipped: previous run still active")
	case errors.Is(err, pricing.ErrNoPricesScraped):
		jobLogger.Warn().Dur("took", time.Since(start)).Msg("Price refresh found no prices")
	case err != nil:
		jobLogger.Error().Err(err).Dur("took", time.Since(start)).Msg("Price refresh failed")
	default:
		jobLogger.Info().Int("stored", stored).Dur("took", time.Since(start)).Msg("Price refresh completed")
	}
}
