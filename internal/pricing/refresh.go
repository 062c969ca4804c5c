package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/hoteldash/internal/db"
	"github.com/codr1/hoteldash/internal/metrics"
	"github.com/codr1/hoteldash/internal/models"
)

var (
	ErrRefreshInProgress = errors.New("price refresh already running")
	ErrNoPricesScraped   = errors.New("no competitor prices scraped")
)

// PriceFetcher returns the current price for one competitor.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, hotel string) (models.CompetitorPrice, error)
	SearchURL(hotel string) string
}

// Refresher scrapes every configured competitor and stores the results.
type Refresher struct {
	fetcher     PriceFetcher
	database    *db.DB
	competitors []string
	delay       time.Duration

	mu sync.Mutex
}

func NewRefresher(fetcher PriceFetcher, database *db.DB, competitors []string, delay time.Duration) *Refresher {
	return &Refresher{
		fetcher:     fetcher,
		database:    database,
		competitors: append([]string(nil), competitors...),
		delay:       delay,
	}
}

// Refresh scrapes all competitors, upserts the prices that were found and
// removes stored prices for competitors no longer tracked. A competitor whose
// scrape fails keeps its previous price. It returns the number of prices stored.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	if !r.mu.TryLock() {
		return 0, ErrRefreshInProgress
	}
	defer r.mu.Unlock()

	logger := log.Ctx(ctx)

	type scraped struct {
		price     models.CompetitorPrice
		sourceURL string
		position  int
	}
	results := make([]scraped, 0, len(r.competitors))

	for i, hotel := range r.competitors {
		if i > 0 && r.delay > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(r.delay):
			}
		}

		price, err := r.fetcher.FetchPrice(ctx, hotel)
		if err != nil {
			metrics.PriceScrapes.WithLabelValues("failed").Inc()
			logger.Warn().Err(err).Str("hotel", hotel).Msg("Competitor price not available")
			continue
		}
		metrics.PriceScrapes.WithLabelValues("ok").Inc()
		results = append(results, scraped{price: price, sourceURL: r.fetcher.SearchURL(hotel), position: i})
	}

	fetchedAt := time.Now().UTC()
	err := r.database.RunInTx(ctx, func(tx *db.DB) error {
		for _, result := range results {
			if err := tx.Queries.UpsertCompetitorPrice(ctx, db.UpsertCompetitorPriceParams{
				Name:      result.price.Name,
				Currency:  result.price.Currency,
				Price:     result.price.Price,
				SourceURL: result.sourceURL,
				FetchedAt: fetchedAt,
				Position:  result.position,
			}); err != nil {
				return fmt.Errorf("store price for %s: %w", result.price.Name, err)
			}
		}
		removed, err := tx.Queries.PruneCompetitorPrices(ctx, r.competitors)
		if err != nil {
			return fmt.Errorf("prune competitor prices: %w", err)
		}
		if removed > 0 {
			logger.Info().Int64("removed", removed).Msg("Removed prices for untracked competitors")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info().
		Int("competitors", len(r.competitors)).
		Int("stored", len(results)).
		Msg("Competitor prices refreshed")

	if len(results) == 0 && len(r.competitors) > 0 {
		return 0, ErrNoPricesScraped
	}
	return len(results), nil
}
