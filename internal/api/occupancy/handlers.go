// internal/api/occupancy/handlers.go
package occupancy

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/hoteldash/internal/api/apiutil"
	appdb "github.com/codr1/hoteldash/internal/db"
	"github.com/codr1/hoteldash/internal/metrics"
	occupancystore "github.com/codr1/hoteldash/internal/occupancy"
)

const (
	occupancyQueryTimeout = 5 * time.Second
	defaultMaxBodyBytes   = 1 << 20
)

var (
	database     *appdb.DB
	maxBodyBytes int64 = defaultMaxBodyBytes
	initOnce     sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(db *appdb.DB, bodyLimit int64) {
	if db == nil {
		log.Warn().Msg("InitHandlers called with nil database; occupancy handlers will be unavailable")
		return
	}
	initOnce.Do(func() {
		database = db
		if bodyLimit > 0 {
			maxBodyBytes = bodyLimit
		}
	})
}

type occupancyResponse struct {
	Data map[string]int `json:"data"`
}

type saveResponse struct {
	Status  string `json:"status"`
	Updated int    `json:"updated"`
}

// HandleOccupancy serves GET and POST /api/occupancy.
func HandleOccupancy(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		handleList(w, r)
	case http.MethodPost:
		handleSave(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func handleList(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		apiutil.WriteHandlerError(w, r, errors.New("database not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), occupancyQueryTimeout)
	defer cancel()

	records, err := database.Queries.ListOccupancy(ctx)
	if err != nil {
		apiutil.WriteHandlerError(w, r, apiutil.HandlerError{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load occupancy data",
			Err:     err,
		})
		return
	}

	data := make(map[string]int, len(records))
	for _, record := range records {
		data[record.Date] = record.Occupancy
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, occupancyResponse{Data: data}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write occupancy response")
	}
}

func handleSave(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		apiutil.WriteHandlerError(w, r, errors.New("database not initialized"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var payload map[string]int
	if err := apiutil.DecodeJSON(r, &payload); err != nil {
		apiutil.WriteHandlerError(w, r, apiutil.HandlerError{
			Status:  http.StatusBadRequest,
			Message: "Request body must be a JSON object of date to integer occupancy",
			Err:     err,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), occupancyQueryTimeout)
	defer cancel()

	count, err := occupancystore.Save(ctx, database, payload)
	if err != nil {
		if errors.Is(err, occupancystore.ErrEmptyDate) {
			apiutil.WriteHandlerError(w, r, apiutil.HandlerError{
				Status:  http.StatusBadRequest,
				Message: "Occupancy dates must not be empty",
				Err:     err,
			})
			return
		}
		apiutil.WriteHandlerError(w, r, apiutil.HandlerError{
			Status:  http.StatusInternalServerError,
			Message: "Failed to save occupancy data",
			Err:     err,
		})
		return
	}

	metrics.OccupancyRecordsWritten.Add(float64(count))
	log.Ctx(r.Context()).Info().Int("records", count).Msg("Occupancy data updated")

	if err := apiutil.WriteJSON(w, http.StatusOK, saveResponse{Status: "ok", Updated: count}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write occupancy save response")
	}
}
