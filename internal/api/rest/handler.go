package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/geometry"
	"github.com/oshokin/safehome/internal/service/security"
)

// Service abstracts the read operations the HTTP surface depends on.
type Service interface {
	Snapshot() security.Status
	SecurityZone(id int) (security.ZoneStatus, error)
	Logs(ctx context.Context) ([]domain.LogEntry, error)
}

// Handler serves the HTTP routes.
type Handler struct {
	service  Service
	gatherer prometheus.Gatherer
}

// NewHandler returns a handler reading from service and exposing metrics from gatherer.
func NewHandler(service Service, gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		service:  service,
		gatherer: gatherer,
	}
}

// RegisterRoutes registers every route on r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.getHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/status", h.getStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/logs", h.getLogs).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/zones/{id:[0-9]+}", h.getZone).Methods(http.MethodGet)

	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
}

// Router builds the router with request logging and panic recovery.
func (h *Handler) Router(ctx context.Context) http.Handler {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	r.Use(requestLogger(ctx))

	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{ctx: ctx}),
		handlers.PrintRecoveryStack(false),
	)(r)
}

func (h *Handler) getHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toStatusView(h.service.Snapshot()))
}

func (h *Handler) getLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Logs(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)

		return
	}

	views := make([]logView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, logView{
			ID:          entry.ID,
			Timestamp:   entry.Timestamp,
			Description: entry.Description,
		})
	}

	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) getZone(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid zone id", http.StatusBadRequest)

		return
	}

	zone, err := h.service.SecurityZone(id)
	if err != nil {
		writeError(r.Context(), w, err)

		return
	}

	writeJSON(w, http.StatusOK, toZoneView(zone))
}

type statusView struct {
	ActiveMode   *string      `json:"active_mode"`
	AlarmPending bool         `json:"alarm_pending"`
	Sensors      []sensorView `json:"sensors"`
	Zones        []zoneView   `json:"zones"`
	Modes        []modeView   `json:"modes"`
}

type sensorView struct {
	Handle   domain.Handle `json:"handle"`
	Kind     string        `json:"kind"`
	ID       int           `json:"id"`
	Area     string        `json:"area"`
	On       bool          `json:"on"`
	Arm      *bool         `json:"arm"`
	Armed    bool          `json:"armed"`
	Tripped  bool          `json:"tripped"`
	Bypassed bool          `json:"bypassed"`
}

type rectView struct {
	Up    float64 `json:"up"`
	Down  float64 `json:"down"`
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

type zoneView struct {
	ID      int             `json:"id"`
	Rect    rectView        `json:"rect"`
	Enabled bool            `json:"enabled"`
	Sensors []domain.Handle `json:"sensors"`
}

type modeView struct {
	Name    string          `json:"name"`
	Sensors []domain.Handle `json:"sensors"`
	Active  bool            `json:"active"`
}

type logView struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

func toStatusView(status security.Status) statusView {
	view := statusView{
		AlarmPending: status.AlarmPending,
		Sensors:      make([]sensorView, 0, len(status.Sensors)),
		Zones:        make([]zoneView, 0, len(status.Zones)),
		Modes:        make([]modeView, 0, len(status.Modes)),
	}

	if status.ActiveMode != "" {
		view.ActiveMode = &status.ActiveMode
	}

	for _, s := range status.Sensors {
		view.Sensors = append(view.Sensors, sensorView{
			Handle:   s.Handle,
			Kind:     s.Ref.Kind.String(),
			ID:       s.Ref.ID,
			Area:     s.Area.String(),
			On:       s.On,
			Arm:      s.Arm,
			Armed:    s.Armed,
			Tripped:  s.Tripped,
			Bypassed: s.Bypassed,
		})
	}

	for _, z := range status.Zones {
		view.Zones = append(view.Zones, toZoneView(z))
	}

	for _, m := range status.Modes {
		view.Modes = append(view.Modes, modeView{
			Name:    m.Name,
			Sensors: nonNil(m.Sensors),
			Active:  m.Active,
		})
	}

	return view
}

func toZoneView(zone security.ZoneStatus) zoneView {
	return zoneView{
		ID:      zone.ID,
		Rect:    toRectView(zone.Area),
		Enabled: zone.Enabled,
		Sensors: nonNil(zone.Sensors),
	}
}

func toRectView(r geometry.Rect) rectView {
	return rectView{
		Up:    r.UpLeft.Y,
		Down:  r.DownRight.Y,
		Left:  r.UpLeft.X,
		Right: r.DownRight.X,
	}
}

func nonNil(handles []domain.Handle) []domain.Handle {
	if handles == nil {
		return []domain.Handle{}
	}

	return handles
}
