package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dekkerglen/dr4ft/internal/presence"
	"github.com/dekkerglen/dr4ft/internal/registry"
	"github.com/dekkerglen/dr4ft/internal/ws"
)

func SetupRoutes(reg *registry.Registry, hub *presence.Hub, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/api/games", CreateGame(reg, logger))
	r.Get("/api/games/{id}/status", GameStatus(reg))
	r.Get("/api/games/{id}/decks", GameDecks(reg))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.GameHandler(reg, logger))
	r.Get("/ws/lobby", ws.LobbyHandler(hub, logger))
	return r
}
