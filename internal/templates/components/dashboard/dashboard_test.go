package dashboard

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/codr1/hoteldash/internal/models"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestCompetitorListRendersEntriesInOrder(t *testing.T) {
	items := NewPriceItems([]models.CompetitorPrice{
		{Name: "Masa Square Hotel", Currency: "BWP", Price: 1850},
		{Name: "Grand Palm Hotel", Currency: "BWP", Price: 1250},
	})
	html := render(t, CompetitorList(items, false, ""))

	if got := strings.Count(html, `<li class="competitor">`); got != 2 {
		t.Fatalf("rendered %d entries, want 2", got)
	}
	first := strings.Index(html, "Masa Square Hotel")
	second := strings.Index(html, "Grand Palm Hotel")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("entries out of order in %s", html)
	}
	if !strings.Contains(html, "BWP 1,850") || !strings.Contains(html, "BWP 1,250") {
		t.Errorf("prices not formatted in %s", html)
	}
}

func TestCompetitorListLoadingPlaceholder(t *testing.T) {
	items := []PriceItem{{Name: "Grand Palm Hotel", Display: "BWP 1,250"}}
	html := render(t, CompetitorList(items, true, "Current rates"))

	if !strings.Contains(html, "Loading...") {
		t.Errorf("loading placeholder missing in %s", html)
	}
	if strings.Contains(html, "Grand Palm Hotel") {
		t.Errorf("list rendered while loading: %s", html)
	}
}

func TestContentShowsErrorOnlyWhenSet(t *testing.T) {
	data := DashboardData{SelectedDate: "2024-01-01", ActiveTab: TabOverview}
	if html := render(t, Content(data)); strings.Contains(html, `role="alert"`) {
		t.Errorf("alert rendered without error: %s", html)
	}

	data.Error = "Failed to fetch occupancy data. Please try again later."
	html := render(t, Content(data))
	if !strings.Contains(html, `role="alert"`) || !strings.Contains(html, data.Error) {
		t.Errorf("alert missing for error: %s", html)
	}
}

func TestTabsSelectPanel(t *testing.T) {
	data := DashboardData{
		SelectedDate: "2024-01-01",
		ActiveTab:    TabCompetitors,
		Bars:         NewChartBars([]models.OccupancyRecord{{Date: "2024-01-01", Occupancy: 50}}),
		Prices:       []PriceItem{{Name: "Grand Palm Hotel", Display: "BWP 1,250"}},
	}
	html := render(t, Tabs(data))
	if !strings.Contains(html, "Competitor Prices") || strings.Contains(html, "Occupancy Overview") {
		t.Errorf("competitors tab not rendered: %s", html)
	}
	if !strings.Contains(html, `<input type="hidden" name="date" value="2024-01-01">`) {
		t.Errorf("tab form does not carry the selected date: %s", html)
	}
	if !strings.Contains(html, `value="competitors" class="tab tab-active" role="tab" aria-selected="true"`) {
		t.Errorf("competitors tab not marked active: %s", html)
	}
	if !strings.Contains(html, `value="overview" class="tab" role="tab" aria-selected="false"`) {
		t.Errorf("overview tab button missing: %s", html)
	}

	data.ActiveTab = "unknown"
	html = render(t, Tabs(data))
	if !strings.Contains(html, "Occupancy Overview") || !strings.Contains(html, `y="50%" width="100%" height="50%"`) {
		t.Errorf("overview tab not rendered: %s", html)
	}
}

func TestOccupancyChartAxisAndTitles(t *testing.T) {
	html := render(t, OccupancyChart(NewChartBars([]models.OccupancyRecord{{Date: "2024-01-02", Occupancy: 64}})))
	for _, want := range []string{
		"<span>100%</span>",
		"<span>0%</span>",
		`title="2024-01-02: 64%"`,
		`height="64%"`,
		`<span class="bar-label">2024-01-02</span>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("chart missing %q: %s", want, html)
		}
	}
}

func TestHeaderEscapesBranding(t *testing.T) {
	html := render(t, Header(Branding{HotelName: "Tom & Jerry's <Inn>", Initials: "TJ"}))
	if !strings.Contains(html, "Tom &amp; Jerry&#39;s &lt;Inn&gt;") {
		t.Errorf("hotel name not escaped: %s", html)
	}
	if !strings.Contains(html, `aria-label="Notifications"`) || !strings.Contains(html, ">TJ<") {
		t.Errorf("header actions missing: %s", html)
	}
}

func TestNewChartBarsScale(t *testing.T) {
	bars := NewChartBars([]models.OccupancyRecord{
		{Date: "2024-01-01", Occupancy: 50},
		{Date: "2024-01-02", Occupancy: 75},
	})
	if len(bars) != 2 || bars[0].Height != 50 || bars[1].Height != 75 {
		t.Fatalf("bars = %+v", bars)
	}

	bars = NewChartBars([]models.OccupancyRecord{
		{Date: "2024-01-01", Occupancy: 200},
		{Date: "2024-01-02", Occupancy: 100},
		{Date: "2024-01-03", Occupancy: -5},
	})
	if bars[0].Height != 100 || bars[1].Height != 50 || bars[2].Height != 0 {
		t.Fatalf("scaled bars = %+v", bars)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price models.CompetitorPrice
		want  string
	}{
		{models.CompetitorPrice{Currency: "BWP", Price: 1250}, "BWP 1,250"},
		{models.CompetitorPrice{Currency: "USD", Price: 99.5}, "USD 99.5"},
		{models.CompetitorPrice{Currency: "EUR", Price: 1234567.891}, "EUR 1,234,567.891"},
		{models.CompetitorPrice{Currency: "ZAR", Price: 0}, "ZAR 0"},
		{models.CompetitorPrice{Currency: "GBP", Price: -1500}, "GBP -1,500"},
		{models.CompetitorPrice{Currency: "BWP", Price: 1250.12345}, "BWP 1,250.123"},
		{models.CompetitorPrice{Price: 100}, "100"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.price); got != tt.want {
			t.Errorf("FormatPrice(%+v) = %q, want %q", tt.price, got, tt.want)
		}
	}
}
