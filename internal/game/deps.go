package game

import "time"

// Card is one draftable item. Content generation lives in the pool package;
// the state machine only moves cards around.
type Card struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Set  string `json:"set"`
}

// PoolSpec is everything a supplier needs to build the pack supply for one
// game. Draft types must yield rounds*players packs; sealed types must yield
// one pool per player.
type PoolSpec struct {
	Type       Type
	Sets       []string
	Cube       *CubeSpec
	Players    int
	Rounds     int
	ChaosPacks int
	ModernOnly bool
	TotalChaos bool
}

// PoolSupplier builds the ordered pack supply for a game.
type PoolSupplier interface {
	BuildPool(spec PoolSpec) ([][]Card, error)
}

// SeatCapture is one seat's final record inside a capture summary.
type SeatCapture struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Seat     int              `json:"seat"`
	Picks    map[int][]string `json:"picks"`
	CubeHash string           `json:"cubeHash"`
}

// CaptureSummary is the append-only record persisted when a game ends.
type CaptureSummary struct {
	GameID  string        `json:"gameID"`
	Players int           `json:"players"`
	Type    Type          `json:"type"`
	Sets    []string      `json:"sets"`
	Seats   int           `json:"seats"`
	Time    time.Time     `json:"time"`
	Cap     []SeatCapture `json:"cap"`
}

// PickStats is the full per-player pick breakdown exported after
// draft-style games.
type PickStats struct {
	GameID   string                      `json:"id"`
	Sets     []string                    `json:"sets,omitempty"`
	CubeList []string                    `json:"list,omitempty"`
	Draft    map[string]map[int][]string `json:"draft"`
}

// Archiver persists finalized results. Both calls are fire-and-forget:
// implementations log failures instead of returning them.
type Archiver interface {
	AppendCaptureSummary(rec CaptureSummary)
	ExportPickStats(stats PickStats)
}

// Lifecycle is what a game needs from whoever registered it: removal on
// kill, and a nudge to republish lobby aggregates after state changes.
type Lifecycle interface {
	Deregister(id string)
	Announce()
}
