// Package api provides the HTTP API for playing the game.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (player control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/talgya/estate-world/internal/economy"
	"github.com/talgya/estate-world/internal/engine"
	"github.com/talgya/estate-world/internal/realty"
)

const maxStreamConns = 4

// Saver persists a captured game state.
type Saver interface {
	SaveWorldState(state engine.WorldState) error
}

// Server serves the game over HTTP.
type Server struct {
	Sim         *engine.Simulation
	DB          Saver // nil disables snapshots
	Port        int
	AdminKey    string // Bearer token for POST endpoints. Empty = POST disabled.
	CORSOrigins []string

	// Active stream connection count (atomic).
	streamConns int32
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	// Credit and purchases are limited per client to keep scripted play in check.
	loanLimiter := NewRateLimiter(20, time.Minute)
	buyLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", getOnly(s.handleStatus))
	mux.HandleFunc("/api/v1/market", getOnly(s.handleMarket))
	mux.HandleFunc("/api/v1/properties", getOnly(s.handleProperties))
	mux.HandleFunc("/api/v1/listings", getOnly(s.handleListings))
	mux.HandleFunc("/api/v1/lots", getOnly(s.handleLots))
	mux.HandleFunc("/api/v1/loans", getOnly(s.handleLoans))
	mux.HandleFunc("/api/v1/achievements", getOnly(s.handleAchievements))
	mux.HandleFunc("/api/v1/reports", getOnly(s.handleReports))
	mux.HandleFunc("/api/v1/notifications", getOnly(s.handleNotifications))

	// Websocket notification stream.
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Player endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/loan", s.adminOnly(RateLimitMiddleware(loanLimiter, s.handleLoan)))
	mux.HandleFunc("/api/v1/buy", s.adminOnly(RateLimitMiddleware(buyLimiter, s.handleBuy)))
	mux.HandleFunc("/api/v1/renovate", s.adminOnly(s.handleRenovate))
	mux.HandleFunc("/api/v1/sell", s.adminOnly(s.handleSell))
	mux.HandleFunc("/api/v1/build", s.adminOnly(s.handleBuild))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(s.CORSOrigins, mux)
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "")

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	slog.Info("HTTP API stopped")
	return nil
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(extra []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range extra {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a POST handler with bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "player endpoints disabled (no ESTATE_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Status())
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Market())
}

func (s *Server) handleProperties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Owned())
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Listings())
}

func (s *Server) handleLots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Lots())
}

func (s *Server) handleLoans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Loans())
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Achievements())
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Reports())
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Feed().Recent())
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.Sim.SetSpeed(req.Speed); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]float64{"speed": req.Speed})
}

func (s *Server) handleLoan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount            float64 `json:"amount"`
		AnnualRatePercent float64 `json:"annual_rate_percent"`
		TermMonths        int     `json:"term_months"`
	}
	if !decode(w, r, &req) {
		return
	}
	loan, err := s.Sim.TakeLoan(req.Amount, req.AnnualRatePercent, req.TermMonths)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, loan)
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ListingID string `json:"listing_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	prop, err := s.Sim.Buy(req.ListingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, prop)
}

func (s *Server) handleRenovate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PropertyID string                 `json:"property_id"`
		Level      realty.RenovationLevel `json:"level"`
	}
	if !decode(w, r, &req) {
		return
	}
	prop, err := s.Sim.Renovate(req.PropertyID, req.Level)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, prop)
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PropertyID string `json:"property_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	value, err := s.Sim.Sell(req.PropertyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"property_id": req.PropertyID, "sale_price": value})
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LotID        string `json:"lot_id"`
		BuildingType string `json:"building_type"`
	}
	if !decode(w, r, &req) {
		return
	}
	proj, err := s.Sim.Build(req.LotID, req.BuildingType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, proj)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	state := s.Sim.State()
	if err := s.DB.SaveWorldState(state); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"day":     state.Clock.Day(),
		"message": "snapshot saved",
	})
}

// decode reads a JSON request body, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, economy.ErrCreditDenied),
		errors.Is(err, economy.ErrInsufficientFunds),
		errors.Is(err, economy.ErrZoning):
		return http.StatusUnprocessableEntity
	case errors.Is(err, economy.ErrUnknownProperty),
		errors.Is(err, economy.ErrUnknownLot):
		return http.StatusNotFound
	case errors.Is(err, economy.ErrInvalidLoan),
		errors.Is(err, economy.ErrInvalidBuilding),
		errors.Is(err, economy.ErrInvalidRenovation),
		errors.Is(err, engine.ErrInvalidSpeed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
