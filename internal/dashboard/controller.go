// Package dashboard holds the view state behind the occupancy dashboard and
// the operations that load and update it through the REST API.
package dashboard

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/hoteldash/internal/metrics"
	"github.com/codr1/hoteldash/internal/models"
	"github.com/codr1/hoteldash/internal/occupancy"
)

const DateLayout = "2006-01-02"

// User-facing messages. Failure detail goes to the log only.
const (
	PricesErrorMessage    = "Failed to fetch competitor prices. Please try again later."
	OccupancyErrorMessage = "Failed to fetch occupancy data. Please try again later."
	UploadErrorMessage    = "Failed to upload file. Please check the file format and try again."
)

const (
	opPrices    = "fetch_prices"
	opOccupancy = "fetch_occupancy"
	opUpload    = "upload"
)

// API is the backend the dashboard reads from and writes to.
type API interface {
	GetOccupancy(ctx context.Context) ([]models.OccupancyRecord, error)
	PostOccupancy(ctx context.Context, data map[string]int) error
	GetPrices(ctx context.Context) ([]models.CompetitorPrice, error)
}

type ViewState struct {
	SelectedDate string
	Loading      bool
	Error        string
}

// Snapshot is a copy of everything the view renders.
type Snapshot struct {
	ViewState
	OccupancyData    []models.OccupancyRecord
	CompetitorPrices []models.CompetitorPrice
}

// Controller owns the dashboard state for one page session. It is safe for
// concurrent use.
type Controller struct {
	api API

	mu        sync.Mutex
	state     ViewState
	occupancy []models.OccupancyRecord
	prices    []models.CompetitorPrice
	inFlight  map[uint64]string
	nextToken uint64
}

func NewController(api API, selectedDate string) *Controller {
	if selectedDate == "" {
		selectedDate = time.Now().Format(DateLayout)
	}
	return &Controller{
		api:       api,
		state:     ViewState{SelectedDate: selectedDate},
		occupancy: []models.OccupancyRecord{},
		prices:    []models.CompetitorPrice{},
		inFlight:  make(map[uint64]string),
	}
}

// SelectDate updates the date picker value. It does not trigger a fetch.
func (c *Controller) SelectDate(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SelectedDate = date
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ViewState:        c.state,
		OccupancyData:    append([]models.OccupancyRecord(nil), c.occupancy...),
		CompetitorPrices: append([]models.CompetitorPrice(nil), c.prices...),
	}
}

// Mount runs the initial prices and occupancy fetches concurrently and
// returns when both have settled.
func (c *Controller) Mount(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		c.FetchCompetitorPrices(ctx)
		return nil
	})
	g.Go(func() error {
		c.FetchOccupancyData(ctx)
		return nil
	})
	_ = g.Wait()
}

func (c *Controller) FetchCompetitorPrices(ctx context.Context) {
	token := c.begin(opPrices)
	defer c.end(token)

	prices, err := c.api.GetPrices(ctx)
	if err != nil {
		c.fail(ctx, opPrices, PricesErrorMessage, err)
		return
	}

	c.mu.Lock()
	c.prices = prices
	c.mu.Unlock()
}

// FetchOccupancyData replaces the occupancy records with a fresh copy from the
// API. On failure the previous records are kept.
func (c *Controller) FetchOccupancyData(ctx context.Context) {
	token := c.begin(opOccupancy)
	defer c.end(token)

	records, err := c.api.GetOccupancy(ctx)
	if err != nil {
		c.fail(ctx, opOccupancy, OccupancyErrorMessage, err)
		return
	}

	c.mu.Lock()
	c.occupancy = records
	c.mu.Unlock()
}

// HandleFileUpload parses a "date: value" file, posts the mapping and then
// refreshes occupancy. A nil file is ignored.
func (c *Controller) HandleFileUpload(ctx context.Context, file io.Reader) {
	if file == nil {
		return
	}

	token := c.begin(opUpload)
	defer c.end(token)

	data, err := occupancy.Parse(file)
	if err != nil {
		c.fail(ctx, opUpload, UploadErrorMessage, err)
		return
	}

	log.Ctx(ctx).Debug().Int("records", len(data)).Msg("Posting uploaded occupancy")
	if err := c.api.PostOccupancy(ctx, data); err != nil {
		c.fail(ctx, opUpload, UploadErrorMessage, err)
		return
	}

	c.FetchOccupancyData(ctx)
}

// begin registers an in-flight operation and resets loading and error.
func (c *Controller) begin(operation string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextToken++
	token := c.nextToken
	c.inFlight[token] = operation
	c.state.Loading = true
	c.state.Error = ""
	return token
}

// end settles an operation; loading stays set while any other operation is in flight.
func (c *Controller) end(token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, token)
	c.state.Loading = len(c.inFlight) > 0
}

func (c *Controller) fail(ctx context.Context, operation, message string, err error) {
	log.Ctx(ctx).Error().Err(err).Str("operation", operation).Msg("Dashboard operation failed")
	metrics.DashboardFetchFailures.WithLabelValues(operation).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Error = message
}
