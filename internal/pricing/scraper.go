// Package pricing scrapes competitor nightly rates from a hotel search page.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/codr1/hoteldash/internal/models"
)

var (
	ErrPriceNotFound    = errors.New("price element not found")
	ErrUnparseablePrice = errors.New("price text has no amount")
)

var currencySymbols = map[string]string{
	"$":   "USD",
	"US$": "USD",
	"€":   "EUR",
	"£":   "GBP",
	"R":   "ZAR",
	"P":   "BWP",
}

// Scraper loads one search results page per competitor and reads the first
// element matching the price selector.
type Scraper struct {
	client          *http.Client
	searchURL       string
	selector        string
	defaultCurrency string
	userAgent       string
}

type ScraperSettings struct {
	// SearchURL contains a single %s that receives the query-escaped hotel name.
	SearchURL       string
	PriceSelector   string
	DefaultCurrency string
	UserAgent       string
}

func NewScraper(settings ScraperSettings, client *http.Client) *Scraper {
	if client == nil {
		client = http.DefaultClient
	}
	return &Scraper{
		client:          client,
		searchURL:       settings.SearchURL,
		selector:        settings.PriceSelector,
		defaultCurrency: settings.DefaultCurrency,
		userAgent:       settings.UserAgent,
	}
}

// SearchURL returns the results page URL for a hotel.
func (s *Scraper) SearchURL(hotel string) string {
	return fmt.Sprintf(s.searchURL, url.QueryEscape(hotel))
}

// FetchPrice scrapes the current price for hotel.
func (s *Scraper) FetchPrice(ctx context.Context, hotel string) (models.CompetitorPrice, error) {
	pageURL := s.SearchURL(hotel)
	logger := log.Ctx(ctx).With().Str("hotel", hotel).Str("url", pageURL).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return models.CompetitorPrice{}, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return models.CompetitorPrice{}, fmt.Errorf("fetch search page: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return models.CompetitorPrice{}, fmt.Errorf("unexpected status code: %d %s", res.StatusCode, res.Status)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return models.CompetitorPrice{}, fmt.Errorf("parse search page: %w", err)
	}

	price, err := extractPrice(doc, hotel, s.selector, s.defaultCurrency)
	if err != nil {
		return models.CompetitorPrice{}, err
	}
	logger.Debug().Str("currency", price.Currency).Float64("price", price.Price).Msg("Scraped competitor price")
	return price, nil
}

// extractPrice reads the first element matching selector.
func extractPrice(doc *goquery.Document, hotel, selector, defaultCurrency string) (models.CompetitorPrice, error) {
	selection := doc.Find(selector).First()
	if selection.Length() == 0 {
		return models.CompetitorPrice{}, ErrPriceNotFound
	}

	text := strings.TrimSpace(selection.Text())
	currency, amount, err := ParsePrice(text, defaultCurrency)
	if err != nil {
		return models.CompetitorPrice{}, fmt.Errorf("%w: %q", err, text)
	}
	return models.CompetitorPrice{Name: hotel, Currency: currency, Price: amount}, nil
}

// ParsePrice splits display text such as "BWP 1,250", "P 1 250" or "€95.50"
// into a currency code and amount. Text with no currency marker gets
// defaultCurrency.
func ParsePrice(text, defaultCurrency string) (string, float64, error) {
	text = strings.TrimSpace(strings.NewReplacer("\u00a0", " ", "\u202f", " ").Replace(text))

	start := strings.IndexFunc(text, unicode.IsDigit)
	if start < 0 {
		return "", 0, ErrUnparseablePrice
	}

	end := start
	for end < len(text) {
		ch := text[end]
		if (ch >= '0' && ch <= '9') || ch == ',' || ch == '.' || ch == ' ' {
			end++
			continue
		}
		break
	}

	number := strings.NewReplacer(",", "", " ", "").Replace(text[start:end])
	number = strings.TrimSuffix(number, ".")
	amount, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return "", 0, ErrUnparseablePrice
	}

	marker := strings.TrimSpace(text[:start])
	if marker == "" {
		marker = strings.TrimSpace(text[end:])
	}
	return normalizeCurrency(marker, defaultCurrency), amount, nil
}

func normalizeCurrency(marker, defaultCurrency string) string {
	if marker == "" {
		return defaultCurrency
	}
	if code, ok := currencySymbols[marker]; ok {
		return code
	}
	upper := strings.ToUpper(marker)
	if len(upper) == 3 && strings.IndexFunc(upper, func(r rune) bool { return r < 'A' || r > 'Z' }) < 0 {
		return upper
	}
	return defaultCurrency
}
