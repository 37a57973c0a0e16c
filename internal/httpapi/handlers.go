package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dekkerglen/dr4ft/internal/game"
	"github.com/dekkerglen/dr4ft/internal/registry"
	"github.com/dekkerglen/dr4ft/pkg/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// CreateGame registers a new game and returns its id plus the host secret.
func CreateGame(reg *registry.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		params := game.Params{
			HostID:     req.HostID,
			Title:      req.Title,
			Seats:      req.Seats,
			Type:       game.Type(req.Type),
			Sets:       req.Sets,
			IsPrivate:  req.IsPrivate,
			ModernOnly: req.ModernOnly,
			TotalChaos: req.TotalChaos,
			ChaosPacks: req.ChaosPacks,
		}
		if req.Cube != nil {
			params.Cube = &game.CubeSpec{
				List:     req.Cube.List,
				Packs:    req.Cube.Packs,
				Cards:    req.Cube.Cards,
				PoolSize: req.Cube.PoolSize,
			}
		}

		g, err := reg.Create(params)
		if err != nil {
			if errors.Is(err, game.ErrUnknownType) || errors.Is(err, game.ErrBadParams) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			logger.Error("create game", zap.Error(err))
			http.Error(w, "failed to create game", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, types.CreateGameResponse{ID: g.ID(), Secret: g.Secret()})
	}
}

// GameStatus reports seat assignments and round progress.
func GameStatus(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ok := reg.Get(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, g.GetStatus())
	}
}

// GameDecks returns picked decks, filtered by ?seat= or ?playerId= when
// given, all seats otherwise.
func GameDecks(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ok := reg.Get(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		var sel game.DeckSelector
		if s := r.URL.Query().Get("seat"); s != "" {
			seat, err := strconv.Atoi(s)
			if err != nil {
				http.Error(w, "bad seat", http.StatusBadRequest)
				return
			}
			sel.Seat = &seat
		}
		sel.PlayerID = r.URL.Query().Get("playerId")

		decks := g.GetDecks(sel)
		if decks == nil {
			http.Error(w, "no such seat", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, decks)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
