// internal/api/prices/handlers.go
package prices

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/hoteldash/internal/api/apiutil"
	"github.com/codr1/hoteldash/internal/models"
)

const pricesQueryTimeout = 5 * time.Second

// Lister is the read side of the competitor price store.
type Lister interface {
	ListCompetitorPrices(ctx context.Context) ([]models.CompetitorPrice, error)
}

var queries Lister

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q Lister) {
	queries = q
}

type pricesResponse struct {
	Data []models.CompetitorPrice `json:"data"`
}

// HandlePrices serves GET /api/prices.
func HandlePrices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if queries == nil {
		log.Ctx(r.Context()).Error().Msg("Price queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pricesQueryTimeout)
	defer cancel()

	prices, err := queries.ListCompetitorPrices(ctx)
	if err != nil {
		apiutil.WriteHandlerError(w, r, apiutil.HandlerError{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load competitor prices",
			Err:     err,
		})
		return
	}
	if prices == nil {
		prices = []models.CompetitorPrice{}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, pricesResponse{Data: prices}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write prices response")
	}
}
