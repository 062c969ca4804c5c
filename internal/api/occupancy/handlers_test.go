package occupancy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appdb "github.com/codr1/hoteldash/internal/db"
	"github.com/codr1/hoteldash/internal/testutil"
)

func setupOccupancyTest(t *testing.T) *appdb.DB {
	t.Helper()

	testDB := testutil.NewTestDB(t)

	prevDatabase := database
	prevLimit := maxBodyBytes
	t.Cleanup(func() {
		database = prevDatabase
		maxBodyBytes = prevLimit
	})
	database = testDB
	maxBodyBytes = defaultMaxBodyBytes

	return testDB
}

func TestHandleOccupancyGet(t *testing.T) {
	testDB := setupOccupancyTest(t)
	ctx := context.Background()
	for date, value := range map[string]int{"2024-01-02": 75, "2024-01-01": 50} {
		if err := testDB.Queries.UpsertOccupancy(ctx, appdb.UpsertOccupancyParams{Date: date, Occupancy: value, UpdatedAt: time.Now()}); err != nil {
			t.Fatalf("seed occupancy: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	HandleOccupancy(rec, httptest.NewRequest(http.MethodGet, "/api/occupancy", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
	want := `{"data":{"2024-01-01":50,"2024-01-02":75}}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestHandleOccupancyGetEmpty(t *testing.T) {
	setupOccupancyTest(t)

	rec := httptest.NewRecorder()
	HandleOccupancy(rec, httptest.NewRequest(http.MethodGet, "/api/occupancy", nil))

	if got := strings.TrimSpace(rec.Body.String()); got != `{"data":{}}` {
		t.Fatalf("body = %s, want empty data object", got)
	}
}

func TestHandleOccupancyPost(t *testing.T) {
	testDB := setupOccupancyTest(t)

	req := httptest.NewRequest(http.MethodPost, "/api/occupancy", strings.NewReader(`{"2024-01-01": 60, "2024-01-02": 81}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	HandleOccupancy(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp saveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Updated != 2 {
		t.Fatalf("response = %+v, want ok/2", resp)
	}

	records, err := testDB.Queries.ListOccupancy(context.Background())
	if err != nil {
		t.Fatalf("ListOccupancy() error = %v", err)
	}
	if len(records) != 2 || records[0].Occupancy != 60 {
		t.Fatalf("stored records = %+v", records)
	}
}

func TestHandleOccupancyPostRejectsBadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `2024-01-01: 60`},
		{name: "array", body: `[60]`},
		{name: "string value", body: `{"2024-01-01": "60"}`},
		{name: "fractional value", body: `{"2024-01-01": 60.5}`},
		{name: "empty date", body: `{"": 60}`},
		{name: "trailing data", body: `{"2024-01-01": 60} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupOccupancyTest(t)

			rec := httptest.NewRecorder()
			HandleOccupancy(rec, httptest.NewRequest(http.MethodPost, "/api/occupancy", strings.NewReader(tt.body)))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleOccupancyMethodNotAllowed(t *testing.T) {
	setupOccupancyTest(t)

	rec := httptest.NewRecorder()
	HandleOccupancy(rec, httptest.NewRequest(http.MethodDelete, "/api/occupancy", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, POST" {
		t.Fatalf("Allow = %q, want GET, POST", allow)
	}
}
