// Package apiclient is the typed REST client for the occupancy and prices API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"

	"github.com/codr1/hoteldash/internal/models"
)

const (
	OccupancyPath = "/api/occupancy"
	PricesPath    = "/api/prices"

	maxResponseBytes = 5 << 20
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

type Settings struct {
	BaseURL string
	Timeout time.Duration

	// Circuit breaker: opens after BreakerFailures consecutive failures,
	// stays open for BreakerOpenFor, then lets HalfOpenProbes requests through.
	BreakerFailures uint32
	BreakerOpenFor  time.Duration
	HalfOpenProbes  uint32
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

type response struct {
	status int
	body   []byte
}

func New(settings Settings, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: settings.Timeout}
	}
	failures := settings.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dashboard-api",
		MaxRequests: settings.HalfOpenProbes,
		Timeout:     settings.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("API circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: strings.TrimRight(settings.BaseURL, "/"),
		http:    httpClient,
		breaker: breaker,
	}
}

// GetOccupancy fetches GET /api/occupancy and returns one record per date in
// the order the dates appear in the response document.
func (c *Client) GetOccupancy(ctx context.Context) ([]models.OccupancyRecord, error) {
	body, err := c.do(ctx, http.MethodGet, OccupancyPath, nil)
	if err != nil {
		return nil, err
	}
	return DecodeOccupancy(body)
}

// PostOccupancy sends a date to percentage mapping to POST /api/occupancy.
func (c *Client) PostOccupancy(ctx context.Context, data map[string]int) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode occupancy payload: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, OccupancyPath, payload)
	return err
}

// GetPrices fetches GET /api/prices.
func (c *Client) GetPrices(ctx context.Context) ([]models.CompetitorPrice, error) {
	body, err := c.do(ctx, http.MethodGet, PricesPath, nil)
	if err != nil {
		return nil, err
	}
	return DecodePrices(body)
}

// DecodeOccupancy converts {"data": {date: value}} into records, keeping
// document order. A repeated date keeps its first position and its last value.
// A missing data field yields no records.
func DecodeOccupancy(body []byte) ([]models.OccupancyRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode occupancy response: invalid JSON")
	}

	data := gjson.GetBytes(body, "data")
	records := []models.OccupancyRecord{}
	if !data.Exists() || data.Type == gjson.Null {
		return records, nil
	}
	if !data.IsObject() {
		return nil, fmt.Errorf("decode occupancy response: data is not an object")
	}

	var decodeErr error
	index := make(map[string]int)
	data.ForEach(func(key, value gjson.Result) bool {
		date := key.String()
		if value.Type != gjson.Number {
			decodeErr = fmt.Errorf("decode occupancy response: value for %q is not a number", date)
			return false
		}
		if value.Num != math.Trunc(value.Num) || value.Num > math.MaxInt32 || value.Num < math.MinInt32 {
			decodeErr = fmt.Errorf("decode occupancy response: value for %q is not a whole percentage: %s", date, value.Raw)
			return false
		}
		occupancy := int(value.Num)
		if i, seen := index[date]; seen {
			records[i].Occupancy = occupancy
			return true
		}
		index[date] = len(records)
		records = append(records, models.OccupancyRecord{Date: date, Occupancy: occupancy})
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return records, nil
}

// DecodePrices reads {"data": [...]}. A missing data field yields no prices.
func DecodePrices(body []byte) ([]models.CompetitorPrice, error) {
	var envelope struct {
		Data []models.CompetitorPrice `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode prices response: %w", err)
	}
	if envelope.Data == nil {
		return []models.CompetitorPrice{}, nil
	}
	return envelope.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
		}

		// Only server errors count against the breaker.
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode}
		}
		return response{status: resp.StatusCode, body: respBody}, nil
	})
	if err != nil {
		return nil, err
	}

	resp := result.(response)
	if resp.status < 200 || resp.status >= 300 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.status}
	}
	return resp.body, nil
}
