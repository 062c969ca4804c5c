package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codr1/hoteldash/internal/db"
	"github.com/codr1/hoteldash/internal/models"
	"github.com/codr1/hoteldash/internal/testutil"
)

type stubFetcher struct {
	prices map[string]models.CompetitorPrice
	calls  []string
}

func (s *stubFetcher) FetchPrice(ctx context.Context, hotel string) (models.CompetitorPrice, error) {
	s.calls = append(s.calls, hotel)
	price, ok := s.prices[hotel]
	if !ok {
		return models.CompetitorPrice{}, ErrPriceNotFound
	}
	return price, nil
}

func (s *stubFetcher) SearchURL(hotel string) string {
	return "https://example.com/?ss=" + hotel
}

func TestRefreshStoresFoundPricesInCompetitorOrder(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	fetcher := &stubFetcher{prices: map[string]models.CompetitorPrice{
		"Masa Square Hotel": {Name: "Masa Square Hotel", Currency: "BWP", Price: 1850},
		"Grand Palm Hotel":  {Name: "Grand Palm Hotel", Currency: "BWP", Price: 1250},
	}}
	competitors := []string{"Masa Square Hotel", "Cresta Lodge Gaborone", "Grand Palm Hotel"}

	stored, err := NewRefresher(fetcher, database, competitors, 0).Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if stored != 2 {
		t.Fatalf("Refresh() stored = %d, want 2", stored)
	}
	if len(fetcher.calls) != 3 {
		t.Fatalf("fetcher called %d times, want 3", len(fetcher.calls))
	}

	prices, err := database.Queries.ListCompetitorPrices(ctx)
	if err != nil {
		t.Fatalf("ListCompetitorPrices() error = %v", err)
	}
	if len(prices) != 2 || prices[0].Name != "Masa Square Hotel" || prices[1].Name != "Grand Palm Hotel" {
		t.Fatalf("stored prices = %+v, want configured order", prices)
	}
}

func TestRefreshKeepsPreviousPriceOnFailureAndPrunesUntracked(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()
	for _, arg := range []db.UpsertCompetitorPriceParams{
		{Name: "Grand Palm Hotel", Currency: "BWP", Price: 1100, FetchedAt: now},
		{Name: "Closed Hotel", Currency: "BWP", Price: 700, FetchedAt: now},
	} {
		if err := database.Queries.UpsertCompetitorPrice(ctx, arg); err != nil {
			t.Fatalf("seed price: %v", err)
		}
	}

	fetcher := &stubFetcher{prices: map[string]models.CompetitorPrice{
		"Masa Square Hotel": {Name: "Masa Square Hotel", Currency: "BWP", Price: 1850},
	}}
	_, err := NewRefresher(fetcher, database, []string{"Grand Palm Hotel", "Masa Square Hotel"}, 0).Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	prices, err := database.Queries.ListCompetitorPrices(ctx)
	if err != nil {
		t.Fatalf("ListCompetitorPrices() error = %v", err)
	}
	byName := make(map[string]float64)
	for _, p := range prices {
		byName[p.Name] = p.Price
	}
	if byName["Grand Palm Hotel"] != 1100 {
		t.Errorf("Grand Palm Hotel price = %v, want previous 1100", byName["Grand Palm Hotel"])
	}
	if _, ok := byName["Closed Hotel"]; ok {
		t.Errorf("untracked competitor was not pruned")
	}
	if byName["Masa Square Hotel"] != 1850 {
		t.Errorf("Masa Square Hotel price = %v, want 1850", byName["Masa Square Hotel"])
	}
}

func TestRefreshNothingScraped(t *testing.T) {
	database := testutil.NewTestDB(t)

	_, err := NewRefresher(&stubFetcher{}, database, []string{"Grand Palm Hotel"}, 0).Refresh(context.Background())
	if !errors.Is(err, ErrNoPricesScraped) {
		t.Fatalf("Refresh() error = %v, want ErrNoPricesScraped", err)
	}
}

func TestRefreshHonoursCancellationBetweenRequests(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &stubFetcher{}
	_, err := NewRefresher(fetcher, database, []string{"A", "B"}, time.Hour).Refresh(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Refresh() error = %v, want context.Canceled", err)
	}
	if len(fetcher.calls) != 1 {
		t.Fatalf("fetcher called %d times, want 1", len(fetcher.calls))
	}
}
