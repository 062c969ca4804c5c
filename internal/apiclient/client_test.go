package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/codr1/hoteldash/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Settings{
		BaseURL:         server.URL,
		Timeout:         5 * time.Second,
		BreakerFailures: 3,
		BreakerOpenFor:  time.Minute,
	}, nil)
}

func TestGetOccupancyKeepsDocumentOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != OccupancyPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"2024-01-02": 75, "2024-01-01": 50}}`))
	})

	records, err := client.GetOccupancy(context.Background())
	if err != nil {
		t.Fatalf("GetOccupancy() error = %v", err)
	}
	want := []models.OccupancyRecord{
		{Date: "2024-01-02", Occupancy: 75},
		{Date: "2024-01-01", Occupancy: 50},
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("GetOccupancy() = %+v, want %+v", records, want)
	}
}

func TestDecodeOccupancy(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{name: "two dates", body: `{"data": {"2024-01-01": 50, "2024-01-02": 75}}`, want: 2},
		{name: "missing data", body: `{}`, want: 0},
		{name: "null data", body: `{"data": null}`, want: 0},
		{name: "empty data", body: `{"data": {}}`, want: 0},
		{name: "array data", body: `{"data": [1, 2]}`, wantErr: true},
		{name: "string value", body: `{"data": {"2024-01-01": "50"}}`, wantErr: true},
		{name: "fractional value", body: `{"data": {"2024-01-01": 75.5}}`, wantErr: true},
		{name: "whole float value", body: `{"data": {"2024-01-01": 75.0}}`, want: 1},
		{name: "repeated date", body: `{"data": {"2024-01-01": 50, "2024-01-02": 60, "2024-01-01": 70}}`, want: 2},
		{name: "not json", body: `<html>oops</html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodeOccupancy([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeOccupancy() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeOccupancy() error = %v", err)
			}
			if len(records) != tt.want {
				t.Fatalf("DecodeOccupancy() returned %d records, want %d", len(records), tt.want)
			}
		})
	}
}

func TestDecodeOccupancyRepeatedDateKeepsFirstPositionLastValue(t *testing.T) {
	records, err := DecodeOccupancy([]byte(`{"data": {"2024-01-01": 50, "2024-01-02": 60, "2024-01-01": 70}}`))
	if err != nil {
		t.Fatalf("DecodeOccupancy() error = %v", err)
	}
	want := []models.OccupancyRecord{
		{Date: "2024-01-01", Occupancy: 70},
		{Date: "2024-01-02", Occupancy: 60},
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("DecodeOccupancy() = %+v, want %+v", records, want)
	}
}

func TestGetPrices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"name": "Grand Palm Hotel", "currency": "BWP", "price": 1250}, {"name": "Masa Square Hotel", "currency": "BWP", "price": 1850.5}]}`))
	})

	prices, err := client.GetPrices(context.Background())
	if err != nil {
		t.Fatalf("GetPrices() error = %v", err)
	}
	want := []models.CompetitorPrice{
		{Name: "Grand Palm Hotel", Currency: "BWP", Price: 1250},
		{Name: "Masa Square Hotel", Currency: "BWP", Price: 1850.5},
	}
	if !reflect.DeepEqual(prices, want) {
		t.Fatalf("GetPrices() = %+v, want %+v", prices, want)
	}
}

func TestDecodePricesMissingData(t *testing.T) {
	prices, err := DecodePrices([]byte(`{"status": "ok"}`))
	if err != nil {
		t.Fatalf("DecodePrices() error = %v", err)
	}
	if prices == nil || len(prices) != 0 {
		t.Fatalf("DecodePrices() = %#v, want empty slice", prices)
	}
}

func TestPostOccupancySendsJSON(t *testing.T) {
	var got map[string]int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"status": "ok", "updated": 1}`))
	})

	if err := client.PostOccupancy(context.Background(), map[string]int{"2024-01-01": 60}); err != nil {
		t.Fatalf("PostOccupancy() error = %v", err)
	}
	if !reflect.DeepEqual(got, map[string]int{"2024-01-01": 60}) {
		t.Fatalf("server received %v", got)
	}
}

func TestNon2xxReturnsStatusError(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", code)
		})

		_, err := client.GetPrices(context.Background())
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("status %d: error = %v, want *StatusError", code, err)
		}
		if statusErr.Code != code {
			t.Errorf("StatusError.Code = %d, want %d", statusErr.Code, code)
		}
	}
}

func TestBreakerOpensAfterConsecutiveServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	})

	for i := 0; i < 3; i++ {
		if _, err := client.GetOccupancy(context.Background()); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	_, err := client.GetOccupancy(context.Background())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("error = %v, want gobreaker.ErrOpenState", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("server saw %d calls, want 3", calls.Load())
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad", http.StatusBadRequest)
	})

	for i := 0; i < 5; i++ {
		client.GetPrices(context.Background())
	}
	if calls.Load() != 5 {
		t.Fatalf("server saw %d calls, want 5", calls.Load())
	}
}
