package models

// OccupancyRecord is one bar of the occupancy chart: the percentage of rooms
// booked on a calendar date.
type OccupancyRecord struct {
	Date      string `json:"date"`
	Occupancy int    `json:"occupancy"`
}

// CompetitorPrice is the nightly rate quoted by a comparable hotel.
type CompetitorPrice struct {
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Price    float64 `json:"price"`
}
