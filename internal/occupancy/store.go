package occupancy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/hoteldash/internal/db"
)

var ErrEmptyDate = errors.New("occupancy date is required")

// Save upserts every date in data inside a single transaction and returns
// the number of rows written.
func Save(ctx context.Context, database *db.DB, data map[string]int) (int, error) {
	dates := make([]string, 0, len(data))
	for date := range data {
		if date == "" {
			return 0, ErrEmptyDate
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)

	now := time.Now().UTC()
	err := database.RunInTx(ctx, func(tx *db.DB) error {
		for _, date := range dates {
			if err := tx.Queries.UpsertOccupancy(ctx, db.UpsertOccupancyParams{
				Date:      date,
				Occupancy: data[date],
				UpdatedAt: now,
			}); err != nil {
				return fmt.Errorf("upsert occupancy %s: %w", date, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(dates), nil
}

// SeedFromFile loads a "date: value" file into an empty occupancy table. A
// missing file or a table that already has rows is a no-op.
func SeedFromFile(ctx context.Context, database *db.DB, path string) (int, error) {
	if path == "" {
		return 0, nil
	}

	existing, err := database.Queries.ListOccupancy(ctx)
	if err != nil {
		return 0, fmt.Errorf("check existing occupancy: %w", err)
	}
	if len(existing) > 0 {
		log.Debug().Str("path", path).Int("existing", len(existing)).Msg("Occupancy already present; seed skipped")
		return 0, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("Occupancy seed file not found")
			return 0, nil
		}
		return 0, fmt.Errorf("open occupancy seed file: %w", err)
	}
	defer file.Close()

	data, err := Parse(file)
	if err != nil {
		return 0, err
	}

	count, err := Save(ctx, database, data)
	if err != nil {
		return 0, fmt.Errorf("save occupancy seed: %w", err)
	}
	log.Info().Str("path", path).Int("records", count).Msg("Seeded occupancy data")
	return count, nil
}
