// Package remote bridges observation-driven agents over HTTP: a Server
// exposes one agent, a Client plays it from the engine side. Bodies are
// JSON; transport failures degrade to a pass and never reach the session.
package remote

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nicksrusso/generals-bots/agents"
	"github.com/nicksrusso/generals-bots/game"
)

// Server serves one agent: POST /act maps an observation to an action,
// POST /reset clears per-session state, GET /healthz answers liveness.
type Server struct {
	agent agents.Agent
	mux   *http.ServeMux
}

func NewServer(agent agents.Agent) *Server {
	s := &Server{agent: agent, mux: http.NewServeMux()}
	s.mux.HandleFunc("/act", s.handleAct)
	s.mux.HandleFunc("/reset", s.handleReset)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleAct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var observation game.Observation
	if err := json.NewDecoder(r.Body).Decode(&observation); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	action := s.agent.Act(observation)
	log.Info().Msgf("%s answered step %d with %s in %s",
		s.agent.Name(), observation.Timestep, action, time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(action); err != nil {
		log.Warn().Msgf("failed to encode action: %v", err)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.agent.Reset()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
