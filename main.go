package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS layer in front of the mux;
	// the websocket handshake accepts what it lets through.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func main() {
	_ = godotenv.Load()

	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	feed := NewFeed(os.Getenv("KAFKA_ENDPOINT"))
	registry := NewRegistry(feed)
	RegisterRules(RaceRules{})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleConnection(w, r, registry)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":    true,
			"rooms": registry.RoomCount(),
		})
	})

	handler := corsFromEnv().Handler(mux)

	port := getEnv("PORT", "5000")
	log.Info().Str("port", port).Msg("starting wordrace server")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func handleConnection(w http.ResponseWriter, r *http.Request, registry *Registry) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	NewWSClient(conn, registry).HandleClient()
}

// corsFromEnv pins CORS to CLIENT_ORIGIN when set; development keeps
// the permissive default.
func corsFromEnv() *cors.Cors {
	if origin := os.Getenv("CLIENT_ORIGIN"); origin != "" {
		return cors.New(cors.Options{
			AllowedOrigins:   []string{origin},
			AllowCredentials: true,
		})
	}
	return cors.Default()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
