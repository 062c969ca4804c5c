package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/codr1/hoteldash/internal/models"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

const listOccupancy = `
SELECT date, occupancy
FROM occupancy
ORDER BY date
`

func (q *Queries) ListOccupancy(ctx context.Context) ([]models.OccupancyRecord, error) {
	rows, err := q.db.QueryContext(ctx, listOccupancy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OccupancyRecord{}
	for rows.Next() {
		var i models.OccupancyRecord
		if err := rows.Scan(&i.Date, &i.Occupancy); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertOccupancy = `
INSERT INTO occupancy (date, occupancy, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
    occupancy = excluded.occupancy,
    updated_at = excluded.updated_at
`

type UpsertOccupancyParams struct {
	Date      string
	Occupancy int
	UpdatedAt time.Time
}

func (q *Queries) UpsertOccupancy(ctx context.Context, arg UpsertOccupancyParams) error {
	_, err := q.db.ExecContext(ctx, upsertOccupancy, arg.Date, arg.Occupancy, arg.UpdatedAt)
	return err
}

const listCompetitorPrices = `
SELECT name, currency, price
FROM competitor_prices
ORDER BY position, name
`

func (q *Queries) ListCompetitorPrices(ctx context.Context) ([]models.CompetitorPrice, error) {
	rows, err := q.db.QueryContext(ctx, listCompetitorPrices)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.CompetitorPrice{}
	for rows.Next() {
		var i models.CompetitorPrice
		if err := rows.Scan(&i.Name, &i.Currency, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertCompetitorPrice = `
INSERT INTO competitor_prices (name, currency, price, source_url, fetched_at, position)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    currency = excluded.currency,
    price = excluded.price,
    source_url = excluded.source_url,
    fetched_at = excluded.fetched_at,
    position = excluded.position
`

type UpsertCompetitorPriceParams struct {
	Name      string
	Currency  string
	Price     float64
	SourceURL string
	FetchedAt time.Time
	Position  int
}

func (q *Queries) UpsertCompetitorPrice(ctx context.Context, arg UpsertCompetitorPriceParams) error {
	_, err := q.db.ExecContext(ctx, upsertCompetitorPrice,
		arg.Name,
		arg.Currency,
		arg.Price,
		arg.SourceURL,
		arg.FetchedAt,
		arg.Position,
	)
	return err
}

// PruneCompetitorPrices deletes every stored price whose competitor is not in keep.
// An empty keep list deletes all rows.
func (q *Queries) PruneCompetitorPrices(ctx context.Context, keep []string) (int64, error) {
	query := "DELETE FROM competitor_prices"
	args := make([]interface{}, 0, len(keep))
	if len(keep) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keep)), ",")
		query = fmt.Sprintf("%s WHERE name NOT IN (%s)", query, placeholders)
		for _, name := range keep {
			args = append(args, name)
		}
	}

	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
