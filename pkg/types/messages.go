package types

import "encoding/json"

// ClientMessage is the envelope for everything a player connection sends us.
// Fields are a union; Type decides which ones matter.
type ClientMessage struct {
	Type string `json:"type"`

	// "pick": index into the player's current pack.
	Index int `json:"index,omitempty"`

	// "swap": the two seat positions to exchange.
	I int `json:"i,omitempty"`
	J int `json:"j,omitempty"`

	// "kick": seat position to kick.
	Seat int `json:"seat,omitempty"`

	// "name": new display name.
	Name string `json:"name,omitempty"`

	// "hash": deck fingerprint reported by the client.
	Hash string `json:"hash,omitempty"`

	// "start": host-only draft options.
	AddBots        bool `json:"addBots,omitempty"`
	UseTimer       bool `json:"useTimer,omitempty"`
	TimerLength    int  `json:"timerLength,omitempty"`
	ShufflePlayers bool `json:"shufflePlayers,omitempty"`
}

// ServerMessage is the envelope for everything we push to a player
// connection: an event name plus an opaque payload.
type ServerMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// CreateGameRequest creates a new game over the HTTP API.
type CreateGameRequest struct {
	HostID     string   `json:"hostId"`
	Title      string   `json:"title"`
	Seats      int      `json:"seats"`
	Type       string   `json:"type"`
	Sets       []string `json:"sets,omitempty"`
	Cube       *Cube    `json:"cube,omitempty"`
	IsPrivate  bool     `json:"isPrivate"`
	ModernOnly bool     `json:"modernOnly,omitempty"`
	TotalChaos bool     `json:"totalChaos,omitempty"`
	ChaosPacks int      `json:"chaosPacksNumber,omitempty"`
}

// Cube describes a custom card list and how to cut it into packs or pools.
type Cube struct {
	List     []string `json:"list"`
	Packs    int      `json:"packs"`
	Cards    int      `json:"cards"`
	PoolSize int      `json:"cubePoolSize"`
}

type CreateGameResponse struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}
