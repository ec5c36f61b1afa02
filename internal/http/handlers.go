package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DanielHu2018/PoolParty/internal/dispatch"
	"github.com/DanielHu2018/PoolParty/internal/eta"
	"github.com/DanielHu2018/PoolParty/internal/geo"
	"github.com/DanielHu2018/PoolParty/internal/ingest"
	"github.com/DanielHu2018/PoolParty/internal/models"
	"github.com/DanielHu2018/PoolParty/internal/payments"
	"github.com/DanielHu2018/PoolParty/internal/storage"
)

type Server struct {
	Store    storage.PoolStore
	ETA      *eta.Service
	Locator  geo.Locator
	Kafka    *ingest.KafkaProducer
	WSReg    *dispatch.WSRegistry
	Notify   dispatch.Notifier
	Payments *payments.StripeClient

	logger *slog.Logger
	mux    *mux.Router
}

func NewServer(logger *slog.Logger, store storage.PoolStore, etaSvc *eta.Service, locator geo.Locator, kafka *ingest.KafkaProducer, wsreg *dispatch.WSRegistry, notify dispatch.Notifier, pay *payments.StripeClient) *Server {
	s := &Server{
		Store:    store,
		ETA:      etaSvc,
		Locator:  locator,
		Kafka:    kafka,
		WSReg:    wsreg,
		Notify:   notify,
		Payments: pay,
		logger:   logger,
		mux:      mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/pools", s.handleCreatePool).Methods("POST")
	s.mux.HandleFunc("/api/v1/pools", s.handleListPools).Methods("GET")
	s.mux.HandleFunc("/api/v1/pools/{id}", s.handleGetPool).Methods("GET")
	s.mux.HandleFunc("/api/v1/pools/{id}", s.handleUpdatePool).Methods("PUT")
	s.mux.HandleFunc("/api/v1/pools/{id}", s.handleCancelPool).Methods("DELETE")
	s.mux.HandleFunc("/api/v1/pools/{id}/complete", s.handleCompletePool).Methods("POST")
	s.mux.HandleFunc("/api/v1/pools/{id}/detour", s.handleDetour).Methods("POST")
	s.mux.HandleFunc("/api/v1/pools/{id}/join", s.handleJoinPool).Methods("POST")
	s.mux.HandleFunc("/api/v1/requests/{id}/accept", s.decideJoinRequest("accepted")).Methods("POST")
	s.mux.HandleFunc("/api/v1/requests/{id}/reject", s.decideJoinRequest("rejected")).Methods("POST")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/{user_id}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// poolView pairs the persisted pool with its computed, display-only ETA
// resolution. The resolution is never written back to the pool here.
type poolView struct {
	*models.Pool
	ETA           eta.Resolution `json:"eta"`
	DirectionsURL string         `json:"directions_url"`
	CostPerSeat   *float64       `json:"cost_per_seat,omitempty"`
}

type createPoolRequest struct {
	Title       string     `json:"title"`
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	DepartTime  *time.Time `json:"depart_time,omitempty"`
	Seats       int        `json:"seats"`
	Description string     `json:"description,omitempty"`
	OwnerID     string     `json:"owner_id"`
}

func (s *Server) handleCreatePool(w http.ResponseWriter, r *http.Request) {
	var req createPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Origin == "" || req.Destination == "" {
		http.Error(w, "title, origin and destination are required", http.StatusBadRequest)
		return
	}
	if req.Seats < 1 {
		req.Seats = 1
	}
	now := time.Now().UTC()
	p := &models.Pool{
		ID:          newID(),
		Title:       req.Title,
		Origin:      req.Origin,
		Destination: req.Destination,
		DepartTime:  req.DepartTime,
		Seats:       req.Seats,
		Description: req.Description,
		OwnerID:     req.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Best-effort estimation: a pool is perfectly valid without coordinates
	// or an ETA, so none of this can fail the create.
	s.ETA.PrepareCoordinates(r.Context(), p)
	if sec, _, ok := s.ETA.ComputeETA(r.Context(), p); ok {
		p.ETASeconds = &sec
		t := now
		p.ETAUpdatedAt = &t
	}

	if err := s.Store.SavePool(p); err != nil {
		s.logger.Error("save pool failed", "error", err)
		http.Error(w, "could not save pool", http.StatusInternalServerError)
		return
	}
	s.indexAndPublish(p, "created")
	s.writeJSON(w, http.StatusCreated, s.viewOf(r, p, false))
}

func (s *Server) handleListPools(w http.ResponseWriter, r *http.Request) {
	var pools []*models.Pool
	if near := r.URL.Query().Get("near"); near != "" && s.Locator != nil {
		lat, lon, ok := parseLatLon(near)
		if !ok {
			http.Error(w, "near must be lat,lon", http.StatusBadRequest)
			return
		}
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		for _, pin := range s.Locator.Nearby(lat, lon, limit) {
			if p, err := s.Store.GetPool(pin.PoolID); err == nil {
				pools = append(pools, p)
			}
		}
	} else {
		var err error
		pools, err = s.Store.ListPools()
		if err != nil {
			s.logger.Error("list pools failed", "error", err)
			http.Error(w, "could not list pools", http.StatusInternalServerError)
			return
		}
	}

	views := make([]poolView, 0, len(pools))
	for _, p := range pools {
		if p.Cancelled {
			continue
		}
		views = append(views, s.viewOf(r, p, false))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPool(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.viewOf(r, p, true))
}

type updatePoolRequest struct {
	Title       *string    `json:"title,omitempty"`
	Origin      *string    `json:"origin,omitempty"`
	Destination *string    `json:"destination,omitempty"`
	DepartTime  *time.Time `json:"depart_time,omitempty"`
	Seats       *int       `json:"seats,omitempty"`
	Description *string    `json:"description,omitempty"`
}

func (s *Server) handleUpdatePool(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPool(w, r)
	if !ok {
		return
	}
	var req updatePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	rewired := false
	if req.Origin != nil && *req.Origin != p.Origin {
		p.Origin = *req.Origin
		p.OriginCoord = nil
		rewired = true
	}
	if req.Destination != nil && *req.Destination != p.Destination {
		p.Destination = *req.Destination
		p.DestCoord = nil
		rewired = true
	}
	if req.DepartTime != nil {
		p.DepartTime = req.DepartTime
	}
	if req.Seats != nil && *req.Seats >= 1 {
		p.Seats = *req.Seats
	}
	if req.Description != nil {
		p.Description = *req.Description
	}

	if rewired {
		// Endpoints changed: the old ETA no longer describes this trip.
		p.ETASeconds = nil
		p.ETAUpdatedAt = nil
		s.ETA.PrepareCoordinates(r.Context(), p)
		if sec, _, ok := s.ETA.ComputeETA(r.Context(), p); ok {
			now := time.Now().UTC()
			p.ETASeconds = &sec
			p.ETAUpdatedAt = &now
		}
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.Store.UpdatePool(p); err != nil {
		s.logger.Error("update pool failed", "error", err)
		http.Error(w, "could not update pool", http.StatusInternalServerError)
		return
	}
	s.indexAndPublish(p, "eta_updated")
	s.writeJSON(w, http.StatusOK, s.viewOf(r, p, false))
}

func (s *Server) handleCancelPool(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPool(w, r)
	if !ok {
		return
	}
	p.Cancelled = true
	p.UpdatedAt = time.Now().UTC()
	if err := s.Store.UpdatePool(p); err != nil {
		s.logger.Error("cancel pool failed", "error", err)
		http.Error(w, "could not cancel pool", http.StatusInternalServerError)
		return
	}
	s.releaseHolds(r, p)
	s.settleRides(p.ID, "cancelled")
	if s.Locator != nil {
		s.Locator.Remove(p.ID)
	}
	if s.Kafka != nil {
		_ = s.Kafka.PublishPoolEvent(models.PoolEvent{Kind: "cancelled", PoolID: p.ID, Seats: p.Seats})
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCompletePool settles a finished trip: scheduled rides become
// completed, held cost shares are captured, and the pool leaves the origin
// index since it is no longer joinable.
func (s *Server) handleCompletePool(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPool(w, r)
	if !ok {
		return
	}
	if p.Cancelled {
		http.Error(w, "pool is cancelled", http.StatusConflict)
		return
	}
	rides := s.settleRides(p.ID, "completed")
	s.captureHolds(r, p)
	if s.Locator != nil {
		s.Locator.Remove(p.ID)
	}
	if s.Kafka != nil {
		_ = s.Kafka.PublishPoolEvent(models.PoolEvent{Kind: "completed", PoolID: p.ID, Seats: p.Seats})
	}
	s.writeJSON(w, http.StatusOK, rides)
}

func (s *Server) settleRides(poolID, status string) []*models.Ride {
	rides, err := s.Store.ListRides(poolID)
	if err != nil {
		return nil
	}
	for _, ride := range rides {
		if ride.Status != "scheduled" {
			continue
		}
		ride.Status = status
		if err := s.Store.UpdateRide(ride); err != nil {
			s.logger.Error("update ride failed", "ride_id", ride.ID, "error", err)
		}
	}
	return rides
}

type detourRequest struct {
	Pickup models.Coord `json:"pickup"`
}

type detourResponse struct {
	Available bool   `json:"available"`
	Added     *int   `json:"added_seconds,omitempty"`
	AddedText string `json:"added_human,omitempty"`
}

func (s *Server) handleDetour(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPool(w, r)
	if !ok {
		return
	}
	var req detourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, ok := s.ETA.DetourAdded(r.Context(), p, req.Pickup)
	if !ok {
		s.writeJSON(w, http.StatusOK, detourResponse{Available: false})
		return
	}
	s.writeJSON(w, http.StatusOK, detourResponse{Available: true, Added: &res.AddedSeconds, AddedText: res.AddedHuman})
}

type joinRequestBody struct {
	UserID  string `json:"user_id"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleJoinPool(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPool(w, r)
	if !ok {
		return
	}
	if p.Cancelled {
		http.Error(w, "pool is cancelled", http.StatusConflict)
		return
	}
	var req joinRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	j := &models.JoinRequest{
		ID:        newID(),
		UserID:    req.UserID,
		PoolID:    p.ID,
		Message:   req.Message,
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.SaveJoinRequest(j); err != nil {
		s.logger.Error("save join request failed", "error", err)
		http.Error(w, "could not save request", http.StatusInternalServerError)
		return
	}
	if s.Notify != nil {
		_ = s.Notify.Notify(p.OwnerID, dispatch.JoinNotice{RequestID: j.ID, PoolID: p.ID, UserID: j.UserID, Status: j.Status, Message: j.Message})
	}
	s.writeJSON(w, http.StatusCreated, j)
}

func (s *Server) decideJoinRequest(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		j, err := s.Store.GetJoinRequest(id)
		if err != nil {
			http.Error(w, "request not found", http.StatusNotFound)
			return
		}
		if j.Status != "pending" {
			http.Error(w, "request already decided", http.StatusConflict)
			return
		}
		j.Status = status

		if status == "accepted" {
			if p, err := s.Store.GetPool(j.PoolID); err == nil {
				s.holdCostShare(r, p, j)
			}
			ride := &models.Ride{ID: newID(), PoolID: j.PoolID, UserID: j.UserID, Status: "scheduled", CreatedAt: time.Now().UTC()}
			if err := s.Store.SaveRide(ride); err != nil {
				s.logger.Error("save ride failed", "request_id", j.ID, "error", err)
			}
		}
		if err := s.Store.UpdateJoinRequest(j); err != nil {
			s.logger.Error("update join request failed", "error", err)
			http.Error(w, "could not update request", http.StatusInternalServerError)
			return
		}
		if s.Notify != nil {
			_ = s.Notify.Notify(j.UserID, dispatch.JoinNotice{RequestID: j.ID, PoolID: j.PoolID, UserID: j.UserID, Status: j.Status})
		}
		s.writeJSON(w, http.StatusOK, j)
	}
}

// holdCostShare puts a hold on the rider's estimated fuel share. Needs a
// routed distance and a configured stripe key; silently skipped otherwise.
func (s *Server) holdCostShare(r *http.Request, p *models.Pool, j *models.JoinRequest) {
	if s.Payments == nil || !s.Payments.Enabled() {
		return
	}
	dist, ok := s.ETA.TripDistanceMeters(r.Context(), p)
	if !ok {
		return
	}
	share := s.ETA.EstimateCost(dist, p.Seats)
	cents := int64(math.Round(share * 100))
	if cents <= 0 {
		return
	}
	id, err := s.Payments.HoldShare(r.Context(), cents, "usd", j.UserID)
	if err != nil {
		s.logger.Warn("cost share hold failed", "request_id", j.ID, "error", err)
		return
	}
	j.PaymentID = id
}

func (s *Server) releaseHolds(r *http.Request, p *models.Pool) {
	if s.Payments == nil || !s.Payments.Enabled() {
		return
	}
	reqs, err := s.Store.ListJoinRequests(p.ID)
	if err != nil {
		return
	}
	for _, j := range reqs {
		if j.Status == "accepted" && j.PaymentID != "" {
			if err := s.Payments.ReleaseShare(r.Context(), j.PaymentID); err != nil {
				s.logger.Warn("release hold failed", "request_id", j.ID, "error", err)
			}
		}
	}
}

func (s *Server) captureHolds(r *http.Request, p *models.Pool) {
	if s.Payments == nil || !s.Payments.Enabled() {
		return
	}
	reqs, err := s.Store.ListJoinRequests(p.ID)
	if err != nil {
		return
	}
	for _, j := range reqs {
		if j.Status == "accepted" && j.PaymentID != "" {
			if err := s.Payments.CaptureShare(r.Context(), j.PaymentID); err != nil {
				s.logger.Warn("capture hold failed", "request_id", j.ID, "error", err)
			}
		}
	}
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["user_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.WSReg.Add(id, conn)
}

// viewOf builds the read model: the stored pool plus the resolved ETA view.
// withCost additionally prices the trip, which may cost a routing call.
func (s *Server) viewOf(r *http.Request, p *models.Pool, withCost bool) poolView {
	v := poolView{
		Pool:          p,
		ETA:           s.ETA.Resolve(r.Context(), p),
		DirectionsURL: geo.DirectionsURL(p.Origin, p.Destination, p.OriginCoord, p.DestCoord),
	}
	if withCost {
		if dist, ok := s.ETA.TripDistanceMeters(r.Context(), p); ok {
			cost := s.ETA.EstimateCost(dist, p.Seats)
			v.CostPerSeat = &cost
		}
	}
	return v
}

func (s *Server) indexAndPublish(p *models.Pool, kind string) {
	if p.OriginCoord != nil {
		if s.Locator != nil {
			s.Locator.Upsert(geo.PoolPin{PoolID: p.ID, Origin: *p.OriginCoord, Seats: p.Seats})
		}
		if s.Kafka != nil {
			_ = s.Kafka.PublishPoolEvent(models.PoolEvent{Kind: kind, PoolID: p.ID, Origin: p.OriginCoord, ETASeconds: p.ETASeconds, Seats: p.Seats})
		}
	}
}

func (s *Server) loadPool(w http.ResponseWriter, r *http.Request) (*models.Pool, bool) {
	id := mux.Vars(r)["id"]
	p, err := s.Store.GetPool(id)
	if err != nil {
		http.Error(w, "pool not found", http.StatusNotFound)
		return nil, false
	}
	return p, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func parseLatLon(v string) (float64, float64, bool) {
	parts := strings.SplitN(v, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
