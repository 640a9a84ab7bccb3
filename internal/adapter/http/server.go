// Package http exposes the chatbot, reference data, weather, and alert
// operations over REST, plus health and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrisahel/smartagribot/internal/domain"
	"github.com/agrisahel/smartagribot/internal/store"
)

// Chatbot is the conversational core behind the chat endpoints.
type Chatbot interface {
	ProcessMessage(ctx context.Context, message string, userCtx *domain.UserContext) domain.Reply
	AlertsReply(ctx context.Context, regionID int64) domain.Reply
}

// AlertManager fronts the alert lifecycle endpoints.
type AlertManager interface {
	ListForUser(ctx context.Context, f store.AlertFilter) ([]domain.Alert, error)
	MarkRead(ctx context.Context, alertID int64) error
	MarkAllRead(ctx context.Context, regionID int64) error
	CheckRegions(ctx context.Context, regionIDs []int64) ([]domain.Alert, error)
	Stats(ctx context.Context) (domain.AlertStats, error)
}

// DataStore serves the static reference data endpoints.
type DataStore interface {
	Regions(ctx context.Context) ([]domain.Region, error)
	Crops(ctx context.Context) ([]domain.Crop, error)
	Calendar(ctx context.Context, cropID, regionID int64) (*domain.CalendarEntry, error)
	Diseases(ctx context.Context, cropID int64) ([]domain.Disease, error)
	Advice(ctx context.Context, cropID int64) ([]domain.AdviceEntry, error)
}

// WeatherSource yields current readings for the weather endpoints.
type WeatherSource interface {
	ForRegion(ctx context.Context, regionID int64) (domain.WeatherReading, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server is the REST front of the service.
type Server struct {
	httpServer *http.Server
	chatbot    Chatbot
	alerts     AlertManager
	data       DataStore
	weather    WeatherSource
	logger     *slog.Logger
}

// NewServer creates the HTTP server with every API route registered.
func NewServer(addr string, cb Chatbot, alerts AlertManager, data DataStore, weather WeatherSource, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		chatbot: cb,
		alerts:  alerts,
		data:    data,
		weather: weather,
		logger:  logger,
	}

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/alertes", s.handleChatAlertes)

	mux.HandleFunc("GET /api/regions", s.handleRegions)
	mux.HandleFunc("GET /api/cultures", s.handleCultures)
	mux.HandleFunc("GET /api/calendrier/{culture_id}/{region_id}", s.handleCalendrier)
	mux.HandleFunc("GET /api/maladies/{culture_id}", s.handleMaladies)
	mux.HandleFunc("GET /api/conseils/{culture_id}", s.handleConseils)

	mux.HandleFunc("GET /api/meteo/all", s.handleMeteoAll)
	mux.HandleFunc("GET /api/meteo/{region_id}", s.handleMeteo)

	mux.HandleFunc("GET /api/alertes", s.handleAlertes)
	mux.HandleFunc("POST /api/alertes/{id}/marquer-lue", s.handleMarquerLue)
	mux.HandleFunc("POST /api/alertes/marquer-toutes-lues", s.handleMarquerToutesLues)
	mux.HandleFunc("POST /api/alertes/verifier-nouvelles", s.handleVerifierNouvelles)
	mux.HandleFunc("GET /api/alertes/statistiques", s.handleStatistiques)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// --- chat ---

type chatRequest struct {
	Message string              `json:"message"`
	Context *domain.UserContext `json:"context,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Message vide",
			"message": `Le champ "message" est requis`,
		})
		return
	}

	reply := s.chatbot.ProcessMessage(r.Context(), req.Message, req.Context)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"response":    reply.Response,
		"suggestions": reply.Suggestions,
		"data":        reply.Data,
		"has_alerts":  reply.HasAlerts,
		"timestamp":   domain.Now().UTC().Format(time.RFC3339),
	})
}

type chatAlertesRequest struct {
	UserContext *domain.UserContext `json:"user_context,omitempty"`
}

func (s *Server) handleChatAlertes(w http.ResponseWriter, r *http.Request) {
	var req chatAlertesRequest
	json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck // an empty body means no context

	var regionID int64
	if req.UserContext != nil {
		regionID = req.UserContext.DefaultRegionID
	}

	reply := s.chatbot.AlertsReply(r.Context(), regionID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"response":    reply.Response,
		"data":        reply.Data,
		"has_alerts":  reply.HasAlerts,
		"suggestions": reply.Suggestions,
		"timestamp":   domain.Now().UTC().Format(time.RFC3339),
	})
}

// --- reference data ---

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.data.Regions(r.Context())
	if err != nil {
		s.serverError(w, "list regions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(regions), "data": regions})
}

func (s *Server) handleCultures(w http.ResponseWriter, r *http.Request) {
	crops, err := s.data.Crops(r.Context())
	if err != nil {
		s.serverError(w, "list crops", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(crops), "data": crops})
}

func (s *Server) handleCalendrier(w http.ResponseWriter, r *http.Request) {
	cropID, ok1 := pathID(r, "culture_id")
	regionID, ok2 := pathID(r, "region_id")
	if !ok1 || !ok2 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Identifiant invalide"})
		return
	}

	calendar, err := s.data.Calendar(r.Context(), cropID, regionID)
	if err != nil {
		s.serverError(w, "load calendar", err)
		return
	}
	if calendar == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Calendrier non trouvé"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": calendar})
}

func (s *Server) handleMaladies(w http.ResponseWriter, r *http.Request) {
	cropID, ok := pathID(r, "culture_id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Identifiant invalide"})
		return
	}

	diseases, err := s.data.Diseases(r.Context(), cropID)
	if err != nil {
		s.serverError(w, "list diseases", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(diseases), "data": diseases})
}

func (s *Server) handleConseils(w http.ResponseWriter, r *http.Request) {
	cropID, ok := pathID(r, "culture_id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Identifiant invalide"})
		return
	}

	advice, err := s.data.Advice(r.Context(), cropID)
	if err != nil {
		s.serverError(w, "list advice", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(advice), "data": advice})
}

// --- weather ---

func (s *Server) handleMeteo(w http.ResponseWriter, r *http.Request) {
	regionID, ok := pathID(r, "region_id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Identifiant invalide"})
		return
	}

	weather, err := s.weather.ForRegion(r.Context(), regionID)
	if err != nil {
		s.serverError(w, "fetch weather", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": weather})
}

func (s *Server) handleMeteoAll(w http.ResponseWriter, r *http.Request) {
	regions, err := s.data.Regions(r.Context())
	if err != nil {
		s.serverError(w, "list regions", err)
		return
	}

	// Regions whose fetch fails are simply absent from the map.
	readings := make(map[string]domain.WeatherReading)
	for _, region := range regions {
		weather, err := s.weather.ForRegion(r.Context(), region.ID)
		if err != nil {
			s.logger.Warn("weather fetch skipped", "region_id", region.ID, "error", err)
			continue
		}
		readings[strconv.FormatInt(region.ID, 10)] = weather
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(readings), "data": readings})
}

// --- alerts ---

func (s *Server) handleAlertes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.AlertFilter{UnreadOnly: true}
	if v := q.Get("region_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "region_id invalide"})
			return
		}
		filter.RegionID = id
	}
	if v := q.Get("non_lues_seulement"); v != "" {
		filter.UnreadOnly = v == "true"
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}

	alerts, err := s.alerts.ListForUser(r.Context(), filter)
	if err != nil {
		s.serverError(w, "list alerts", err)
		return
	}

	hasNew := false
	for _, a := range alerts {
		if !a.Read {
			hasNew = true
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"alertes":        alerts,
		"count":          len(alerts),
		"has_new_alerts": hasNew,
	})
}

func (s *Server) handleMarquerLue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Identifiant invalide"})
		return
	}

	if err := s.alerts.MarkRead(r.Context(), id); err != nil {
		s.serverError(w, "mark alert read", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Alerte marquée comme lue"})
}

type markAllRequest struct {
	RegionID int64 `json:"region_id,omitempty"`
}

func (s *Server) handleMarquerToutesLues(w http.ResponseWriter, r *http.Request) {
	var req markAllRequest
	json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck // an empty body means every region

	if err := s.alerts.MarkAllRead(r.Context(), req.RegionID); err != nil {
		s.serverError(w, "mark all alerts read", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Toutes les alertes marquées comme lues"})
}

type checkRequest struct {
	Regions []int64 `json:"regions,omitempty"`
}

func (s *Server) handleVerifierNouvelles(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck // an empty body means every region

	detected, err := s.alerts.CheckRegions(r.Context(), req.Regions)
	if err != nil {
		s.serverError(w, "check alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"nouvelles_alertes": detected,
		"count":             len(detected),
		"message":           fmt.Sprintf("%d nouvelle(s) alerte(s) détectée(s)", len(detected)),
	})
}

func (s *Server) handleStatistiques(w http.ResponseWriter, r *http.Request) {
	stats, err := s.alerts.Stats(r.Context())
	if err != nil {
		s.serverError(w, "alert stats", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "statistiques": stats})
}

// --- health ---

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "SmartAgriBot API",
		"endpoints": []string{
			"POST /api/chat",
			"POST /api/chat/alertes",
			"GET /api/regions",
			"GET /api/cultures",
			"GET /api/calendrier/{culture_id}/{region_id}",
			"GET /api/maladies/{culture_id}",
			"GET /api/conseils/{culture_id}",
			"GET /api/meteo/{region_id}",
			"GET /api/meteo/all",
			"GET /api/alertes",
			"POST /api/alertes/{id}/marquer-lue",
			"POST /api/alertes/marquer-toutes-lues",
			"POST /api/alertes/verifier-nouvelles",
			"GET /api/alertes/statistiques",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// --- helpers ---

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("request failed", "op", op, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
