// internal/api/nav/handlers.go
package nav

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/hoteldash/internal/api/apiutil"
)

const DashboardPath = "/dashboard"

var apiEndpoints = []string{"/api/prices", "/api/occupancy"}

type indexResponse struct {
	Endpoints []string `json:"endpoints"`
	Status    string   `json:"status"`
}

// HandleRoot sends "/" to the dashboard. Other unmatched paths are 404.
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, DashboardPath, http.StatusFound)
}

// HandleAPIIndex lists the REST endpoints for GET /api.
func HandleAPIIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		apiutil.WriteHandlerError(w, r, apiutil.HandlerError{Status: http.StatusMethodNotAllowed, Message: "Method not allowed"})
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, indexResponse{Endpoints: apiEndpoints, Status: "ok"}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write API index")
	}
}
