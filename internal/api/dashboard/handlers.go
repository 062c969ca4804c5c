// internal/api/dashboard/handlers.go
package dashboard

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/codr1/hoteldash/internal/api/apiutil"
	"github.com/codr1/hoteldash/internal/api/htmx"
	"github.com/codr1/hoteldash/internal/dashboard"
	"github.com/codr1/hoteldash/internal/models"
	dashboardtempl "github.com/codr1/hoteldash/internal/templates/components/dashboard"
	"github.com/codr1/hoteldash/internal/templates/layouts"
)

const (
	defaultMaxUploadBytes = 10 << 20
	pageTitle             = "Hotel Dashboard"
)

// Settings configures the dashboard page handlers.
type Settings struct {
	API            dashboard.API
	Branding       dashboardtempl.Branding
	Theme          models.Theme
	MaxUploadBytes int64
	// Now is used for the default selected date. Defaults to time.Now.
	Now func() time.Time
}

var (
	settings     Settings
	settingsOnce sync.Once
	initialized  bool
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s Settings) {
	if s.API == nil {
		log.Warn().Msg("InitHandlers called with nil API client; dashboard handlers will be unavailable")
		return
	}
	settingsOnce.Do(func() {
		if s.MaxUploadBytes <= 0 {
			s.MaxUploadBytes = defaultMaxUploadBytes
		}
		if s.Now == nil {
			s.Now = time.Now
		}
		settings = s
		initialized = true
	})
}

// HandleDashboardPage renders the dashboard for GET /dashboard after loading
// occupancy and competitor prices.
func HandleDashboardPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !initialized {
		log.Ctx(r.Context()).Error().Msg("Dashboard handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	controller := newController(query.Get("date"))
	controller.Mount(r.Context())

	renderDashboard(w, r, controller.Snapshot(), query.Get("tab"))
}

// HandleUpload accepts a multipart occupancy file for POST /dashboard/upload.
// The request replays a page session: load the dashboard, then upload.
func HandleUpload(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !initialized {
		logger.Error().Msg("Dashboard handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, settings.MaxUploadBytes)
	if err := r.ParseMultipartForm(settings.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apiutil.WriteHandlerError(w, r, apiutil.HandlerError{Status: http.StatusRequestEntityTooLarge, Message: "Upload too large", Err: err})
			return
		}
		apiutil.WriteHandlerError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid upload form", Err: err})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	controller := newController(r.FormValue("date"))
	controller.Mount(r.Context())

	var upload io.Reader
	file, header, err := r.FormFile(dashboardtempl.UploadField)
	switch {
	case err == nil:
		defer file.Close()
		logger.Info().Str("filename", header.Filename).Int64("size", header.Size).Msg("Occupancy file uploaded")
		upload = file
	case errors.Is(err, http.ErrMissingFile):
		logger.Debug().Msg("Upload submitted without a file")
	default:
		apiutil.WriteHandlerError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid upload form", Err: err})
		return
	}

	controller.HandleFileUpload(r.Context(), upload)

	renderDashboard(w, r, controller.Snapshot(), r.FormValue("tab"))
}

func newController(selectedDate string) *dashboard.Controller {
	if selectedDate == "" {
		selectedDate = settings.Now().Format(dashboard.DateLayout)
	}
	return dashboard.NewController(settings.API, selectedDate)
}

func buildDashboardData(snapshot dashboard.Snapshot, tab string) dashboardtempl.DashboardData {
	return dashboardtempl.DashboardData{
		Branding:     settings.Branding,
		SelectedDate: snapshot.SelectedDate,
		ActiveTab:    dashboardtempl.NormalizeTab(tab),
		Loading:      snapshot.Loading,
		Error:        snapshot.Error,
		Bars:         dashboardtempl.NewChartBars(snapshot.OccupancyData),
		Prices:       dashboardtempl.NewPriceItems(snapshot.CompetitorPrices),
	}
}

func renderDashboard(w http.ResponseWriter, r *http.Request, snapshot dashboard.Snapshot, tab string) {
	data := buildDashboardData(snapshot, tab)

	var component templ.Component
	if htmx.IsRequest(r) {
		component = dashboardtempl.Content(data)
	} else {
		theme := settings.Theme
		component = layouts.Base(pageTitle+" | "+data.Branding.HotelName, dashboardtempl.Page(data), &theme)
	}

	if htmx.IsRequest(r) && r.Method == http.MethodPost {
		htmx.PushURL(w, "/dashboard?"+url.Values{"date": {data.SelectedDate}, "tab": {data.ActiveTab}}.Encode())
	}
	apiutil.RenderHTMLComponent(r.Context(), w, component, map[string]string{"Cache-Control": "no-store"}, "Failed to render dashboard", "Failed to render page")
}
