package dashboard

import (
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/codr1/hoteldash/internal/models"
)

const (
	TabOverview    = "overview"
	TabCompetitors = "competitors"
)

const (
	// ContentID is the element HTMX swaps after a tab change, date change or upload.
	ContentID   = "dashboard-content"
	UploadField = "file"
)

var yAxisTicks = []int{100, 75, 50, 25, 0}

type TabLink struct {
	ID    string
	Label string
}

var tabLinks = []TabLink{
	{ID: TabOverview, Label: "Overview"},
	{ID: TabCompetitors, Label: "Competitors"},
}

// Branding is the hotel identity shown in the header.
type Branding struct {
	HotelName          string
	Initials           string
	PricingDescription string
}

type ChartBar struct {
	Date      string
	Occupancy int
	// Height is the bar height as a percentage of the plot area.
	Height int
}

// Title is the hover text for the bar.
func (b ChartBar) Title() string {
	return fmt.Sprintf("%s: %d%%", b.Date, b.Occupancy)
}

// HeightAttr and OffsetAttr position the bar inside a 100% tall plot.
func (b ChartBar) HeightAttr() string {
	return strconv.Itoa(b.Height) + "%"
}

func (b ChartBar) OffsetAttr() string {
	return strconv.Itoa(100-b.Height) + "%"
}

type PriceItem struct {
	Name    string
	Display string
}

type DashboardData struct {
	Branding     Branding
	SelectedDate string
	ActiveTab    string
	Loading      bool
	Error        string
	Bars         []ChartBar
	Prices       []PriceItem
}

// NormalizeTab maps unknown tab names to the overview tab.
func NormalizeTab(tab string) string {
	if tab == TabCompetitors {
		return TabCompetitors
	}
	return TabOverview
}

// NewChartBars scales records against a 100% axis, growing the axis when a
// record exceeds 100.
func NewChartBars(records []models.OccupancyRecord) []ChartBar {
	scale := 100
	for _, record := range records {
		if record.Occupancy > scale {
			scale = record.Occupancy
		}
	}

	bars := make([]ChartBar, len(records))
	for i, record := range records {
		height := 0
		if record.Occupancy > 0 {
			height = record.Occupancy * 100 / scale
		}
		bars[i] = ChartBar{Date: record.Date, Occupancy: record.Occupancy, Height: height}
	}
	return bars
}

func NewPriceItems(prices []models.CompetitorPrice) []PriceItem {
	items := make([]PriceItem, len(prices))
	for i, price := range prices {
		items[i] = PriceItem{Name: price.Name, Display: FormatPrice(price)}
	}
	return items
}

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders a price as "CUR 1,250", keeping up to three decimals.
func FormatPrice(price models.CompetitorPrice) string {
	amount := pricePrinter.Sprint(number.Decimal(price.Price, number.MaxFractionDigits(3)))
	if price.Currency == "" {
		return amount
	}
	return price.Currency + " " + amount
}
