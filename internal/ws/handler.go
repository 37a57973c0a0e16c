// Package ws is the websocket transport: one handler for players inside a
// game, one for lobby watchers.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dekkerglen/dr4ft/internal/game"
	"github.com/dekkerglen/dr4ft/internal/presence"
	"github.com/dekkerglen/dr4ft/internal/registry"
	"github.com/dekkerglen/dr4ft/pkg/types"
)

const writeTimeout = 3 * time.Second

// GameHandler upgrades the connection and seats the caller in the game
// named by the query string. `playerId` is the stable identity used for
// reconnects; omitting it makes every connection a new player.
func GameHandler(reg *registry.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		g, ok := reg.Get(id)
		if !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		playerID := r.URL.Query().Get("playerId")
		if playerID == "" {
			playerID = uuid.NewString()
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "Anonymous"
		}

		sock, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer sock.Close(websocket.StatusNormalClosure, "bye")

		c := newConn(logger)
		go writeLoop(r.Context(), sock, c)

		h, err := g.Join(playerID, name, c)
		if err != nil {
			data, _ := json.Marshal(err.Error())
			payload, _ := json.Marshal(types.ServerMessage{Type: "error", Data: data})
			ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
			_ = sock.Write(ctx, websocket.MessageText, payload)
			cancel()
			return
		}
		defer g.Exit(h)

		readLoop(r.Context(), sock, c, g, h)
	}
}

func writeLoop(parent context.Context, sock *websocket.Conn, c *conn) {
	for {
		select {
		case <-c.closed():
			sock.Close(websocket.StatusNormalClosure, "bye")
			return
		case <-parent.Done():
			return
		case msg := <-c.out:
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			ctx, cancel := context.WithTimeout(parent, writeTimeout)
			err = sock.Write(ctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				c.Close()
				return
			}
		}
	}
}

func readLoop(ctx context.Context, sock *websocket.Conn, c *conn, g *game.Game, h *game.Human) {
	for {
		select {
		case <-c.closed():
			return
		default:
		}

		_, data, err := sock.Read(ctx)
		if err != nil {
			return
		}

		var m types.ClientMessage
		if err := json.Unmarshal(data, &m); err != nil {
			c.Err("bad json")
			continue
		}
		dispatch(c, g, h, m)
	}
}

func dispatch(c *conn, g *game.Game, h *game.Human, m types.ClientMessage) {
	switch m.Type {
	case "start":
		if !h.IsHost() {
			c.Err(game.ErrNotHost.Error())
			return
		}
		err := g.Start(game.StartOptions{
			AddBots:        m.AddBots,
			UseTimer:       m.UseTimer,
			TimerLength:    m.TimerLength,
			ShufflePlayers: m.ShufflePlayers,
		})
		if err != nil && errors.Is(err, game.ErrGameStarted) {
			c.Err(err.Error())
		}
	case "pick":
		g.Pick(h, m.Index)
	case "swap":
		if h.IsHost() {
			g.Swap(m.I, m.J)
		}
	case "kick":
		if h.IsHost() {
			g.Kick(m.Seat)
		}
	case "name":
		g.SetName(h, m.Name)
	case "hash":
		g.SetHash(h, m.Hash)
	default:
		c.Err("unknown type")
	}
}

// LobbyHandler streams aggregate counts and the open-room listing.
func LobbyHandler(hub *presence.Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sock, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer sock.Close(websocket.StatusNormalClosure, "bye")

		id := uuid.NewString()
		events := hub.Subscribe(id)
		defer hub.Unsubscribe(id)

		// Reads are only for detecting the peer going away. A dead peer
		// must release its subscription even when nothing is being
		// published, so the read pump unsubscribes, which closes events
		// and unblocks the write loop below.
		go func() {
			for {
				if _, _, err := sock.Read(r.Context()); err != nil {
					hub.Unsubscribe(id)
					return
				}
			}
		}()

		for msg := range events {
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
			err = sock.Write(ctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
