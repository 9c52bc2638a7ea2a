package server

import (
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wordrush/internal/config"
	"wordrush/internal/deck"
	"wordrush/internal/game"
	"wordrush/internal/history"
	"wordrush/internal/rooms"
)

func Run(cfg *config.Config) error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	words, err := deck.Load()
	if err != nil {
		return err
	}

	// Optional database connection
	var recorder game.Recorder = game.NoopRecorder{}
	var hist *history.Store
	if cfg.DatabaseURL != "" {
		hist, err = history.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("database unavailable, running without history")
			hist = nil
		} else if err := hist.Migrate(); err != nil {
			log.Warn().Err(err).Msg("migration failed, running without history")
			hist.Close()
			hist = nil
		} else {
			recorder = hist
		}
	} else {
		log.Info().Msg("no database configured, running without history")
	}

	store := rooms.NewStore(words, recorder, clockwork.NewRealClock(), rooms.Options{
		LobbyTTL:      cfg.LobbyTTL,
		EndedGrace:    cfg.EndedGrace,
		SweepInterval: cfg.SweepInterval,
		TabooPenalty:  cfg.TabooPenalty,
	})

	srv := &Server{
		Rooms:   store,
		History: hist,
	}

	log.Info().Str("addr", cfg.Addr()).Msg("server listening")
	return http.ListenAndServe(cfg.Addr(), srv.Routes())
}

// Routes builds the full handler tree.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rooms/create", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms/{code}", s.handleRoomInfo)
	mux.HandleFunc("GET /ws/game/{code}", s.handleGameSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
