// Package presence pushes lobby aggregates (player/game counts and the
// open-room listing) to every subscribed lobby connection.
package presence

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/dekkerglen/dr4ft/pkg/types"
)

const outboxSize = 8

// Hub fans lobby events out to subscriber channels. A subscriber that
// cannot keep up is dropped rather than allowed to stall the rest.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]chan types.ServerMessage
	last   []types.ServerMessage
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]chan types.ServerMessage),
		logger: logger,
	}
}

// Subscribe registers a lobby listener and immediately replays the latest
// aggregates so a fresh connection is never blank.
func (h *Hub) Subscribe(id string) <-chan types.ServerMessage {
	ch := make(chan types.ServerMessage, outboxSize)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[id] = ch
	for _, msg := range h.last {
		ch <- msg
	}
	return ch
}

// NumSubscribers reports how many lobby connections are attached.
func (h *Hub) NumSubscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *Hub) PublishCounts(c types.Counts) {
	h.publishSet(0, map[string]any{
		"numPlayers":     c.NumPlayers,
		"numGames":       c.NumGames,
		"numActiveGames": c.NumActiveGames,
	})
}

func (h *Hub) PublishRooms(rooms []types.RoomInfo) {
	h.publishSet(1, map[string]any{"roomInfo": rooms})
}

// publishSet broadcasts one "set" event and remembers it (by slot) for
// replay to future subscribers.
func (h *Hub) publishSet(slot int, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal lobby event", zap.Error(err))
		return
	}
	msg := types.ServerMessage{Type: "set", Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()
	for len(h.last) <= slot {
		h.last = append(h.last, types.ServerMessage{})
	}
	h.last[slot] = msg

	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			// Slow subscriber: drop it.
			close(ch)
			delete(h.subs, id)
		}
	}
}
