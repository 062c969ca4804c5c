package occupancy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/codr1/hoteldash/internal/testutil"
)

func TestSaveUpsertsAllDates(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	count, err := Save(ctx, database, map[string]int{"2024-01-02": 75, "2024-01-01": 50})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("Save() count = %d, want 2", count)
	}

	records, err := database.Queries.ListOccupancy(ctx)
	if err != nil {
		t.Fatalf("ListOccupancy() error = %v", err)
	}
	if len(records) != 2 || records[0].Date != "2024-01-01" || records[1].Occupancy != 75 {
		t.Fatalf("ListOccupancy() = %+v", records)
	}
}

func TestSaveRejectsEmptyDate(t *testing.T) {
	database := testutil.NewTestDB(t)

	_, err := Save(context.Background(), database, map[string]int{"": 10})
	if !errors.Is(err, ErrEmptyDate) {
		t.Fatalf("Save() error = %v, want ErrEmptyDate", err)
	}
}

func TestSeedFromFile(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "upload.txt")
	if err := os.WriteFile(path, []byte("Monday: 64\nTuesday: 71\nbroken line\n"), 0644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	count, err := SeedFromFile(ctx, database, path)
	if err != nil {
		t.Fatalf("SeedFromFile() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("SeedFromFile() count = %d, want 2", count)
	}

	count, err = SeedFromFile(ctx, database, path)
	if err != nil {
		t.Fatalf("second SeedFromFile() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("second SeedFromFile() count = %d, want 0 for populated table", count)
	}
}

func TestSeedFromFileMissingIsNoop(t *testing.T) {
	database := testutil.NewTestDB(t)

	count, err := SeedFromFile(context.Background(), database, filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatalf("SeedFromFile() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("SeedFromFile() count = %d, want 0", count)
	}
}
