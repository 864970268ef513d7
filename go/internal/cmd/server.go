package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/triviacast/go/internal/gateway"
	"github.com/mcdev12/triviacast/go/internal/quiz"
)

func setupServer(cfg *Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	// WebSocket routes
	wsHandler := gateway.NewWebSocketHandler(services.Hub)
	wsHandler.RegisterRoutes(mux)

	// Host control routes
	registerHostRoutes(mux, services)

	setupHealthCheck(mux)

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      c.Handler(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// registerHostRoutes exposes the host console's control surface. Every
// endpoint drives the phase manager; invalid transitions come back as 409.
func registerHostRoutes(mux *http.ServeMux, services *Services) {
	m := services.Manager

	mux.HandleFunc("POST /api/host/show", func(w http.ResponseWriter, r *http.Request) {
		writeControlResult(w, m, m.ShowCurrentQuestion())
	})
	mux.HandleFunc("POST /api/host/lock", func(w http.ResponseWriter, r *http.Request) {
		writeControlResult(w, m, m.LockAnswers())
	})
	mux.HandleFunc("POST /api/host/reveal", func(w http.ResponseWriter, r *http.Request) {
		writeControlResult(w, m, m.Reveal())
	})
	mux.HandleFunc("POST /api/host/next", func(w http.ResponseWriter, r *http.Request) {
		writeControlResult(w, m, m.NextQuestion())
	})
	mux.HandleFunc("POST /api/host/reset", func(w http.ResponseWriter, r *http.Request) {
		writeControlResult(w, m, m.ResetQuestion())
	})
	mux.HandleFunc("POST /api/host/score-panel", func(w http.ResponseWriter, r *http.Request) {
		writeControlResult(w, m, m.ToggleScorePanel())
	})

	mux.HandleFunc("POST /api/host/winners", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerIDs []string `json:"player_ids"`
			Points    *int     `json:"points,omitempty"`
			Remove    bool     `json:"remove,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if len(req.PlayerIDs) == 0 {
			http.Error(w, "player_ids is required", http.StatusBadRequest)
			return
		}
		writeControlResult(w, m, m.ApplyWinners(req.PlayerIDs, req.Points, req.Remove))
	})

	mux.HandleFunc("POST /api/host/buzzer/wrong", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerID string `json:"player_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.PlayerID == "" {
			http.Error(w, "player_id is required", http.StatusBadRequest)
			return
		}
		marked := m.MarkBuzzerWrong(req.PlayerID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"marked": marked,
			"phase":  string(m.Phase()),
		})
	})

	mux.HandleFunc("GET /api/host/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"phase":          string(m.Phase()),
			"votes":          m.VoteCounts(),
			"pending_acks":   services.Broadcaster.PendingCount(),
			"timed_out_acks": services.Broadcaster.TimedOutCount(),
			"connections":    services.Hub.ConnectionCount(),
			"tracked_users":  services.Limits.TrackedUsers(),
		})
	})
}

func writeControlResult(w http.ResponseWriter, m interface{ Phase() quiz.Phase }, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, quiz.ErrInvalidTransition):
			status = http.StatusConflict
		case errors.Is(err, quiz.ErrNoActiveSession),
			errors.Is(err, quiz.ErrNoCurrentQuestion),
			errors.Is(err, quiz.ErrNoNextQuestion),
			errors.Is(err, quiz.ErrUnknownEntity):
			status = http.StatusUnprocessableEntity
		}
		log.Warn().Err(err).Int("status", status).Msg("host control request failed")
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"phase": string(m.Phase())})
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Warn().Err(err).Msg("failed to write health check response")
		}
	})
}
