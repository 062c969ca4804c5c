package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/codr1/hoteldash/internal/models"
)

const defaultRenderWait = 4 * time.Second

// BrowserScraper renders each search page in headless Chrome before reading
// the price, for result pages that build their listings with JavaScript.
type BrowserScraper struct {
	*Scraper

	renderWait  time.Duration
	pageTimeout time.Duration

	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewBrowserScraper starts a Chrome allocator. Call Close to shut it down.
func NewBrowserScraper(settings ScraperSettings, renderWait, pageTimeout time.Duration) *BrowserScraper {
	if renderWait <= 0 {
		renderWait = defaultRenderWait
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1280, 900),
	)
	if settings.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(settings.UserAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserScraper{
		Scraper:     NewScraper(settings, nil),
		renderWait:  renderWait,
		pageTimeout: pageTimeout,
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
	}
}

// Close stops the browser.
func (b *BrowserScraper) Close() {
	b.cancelAlloc()
}

// FetchPrice loads the hotel's search page in a new tab and reads the first
// price element once the page has rendered.
func (b *BrowserScraper) FetchPrice(ctx context.Context, hotel string) (models.CompetitorPrice, error) {
	pageURL := b.SearchURL(hotel)
	logger := log.Ctx(ctx).With().Str("hotel", hotel).Str("url", pageURL).Str("renderer", "browser").Logger()

	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTab()
	if b.pageTimeout > 0 {
		var cancelTimeout context.CancelFunc
		tabCtx, cancelTimeout = context.WithTimeout(tabCtx, b.pageTimeout)
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.renderWait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return models.CompetitorPrice{}, ctx.Err()
		}
		return models.CompetitorPrice{}, fmt.Errorf("render search page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.CompetitorPrice{}, fmt.Errorf("parse rendered page: %w", err)
	}

	price, err := extractPrice(doc, hotel, b.selector, b.defaultCurrency)
	if err != nil {
		return models.CompetitorPrice{}, err
	}
	logger.Debug().Str("currency", price.Currency).Float64("price", price.Price).Msg("Scraped competitor price")
	return price, nil
}
