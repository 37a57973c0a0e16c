package game

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Type discriminates pack supply strategy and round count.
type Type string

const (
	TypeDraft       Type = "draft"
	TypeSealed      Type = "sealed"
	TypeCubeDraft   Type = "cube draft"
	TypeCubeSealed  Type = "cube sealed"
	TypeChaosDraft  Type = "chaos draft"
	TypeChaosSealed Type = "chaos sealed"
)

func (t Type) sealed() bool { return strings.Contains(string(t), "sealed") }
func (t Type) cube() bool   { return strings.Contains(string(t), "cube") }

// CubeSpec configures cube games: a custom card list plus how to cut it.
type CubeSpec struct {
	List     []string
	Packs    int
	Cards    int
	PoolSize int
}

// Params are the creation parameters for a game.
type Params struct {
	HostID     string
	Title      string
	Seats      int
	Type       Type
	Sets       []string
	Cube       *CubeSpec
	IsPrivate  bool
	ModernOnly bool
	TotalChaos bool
	ChaosPacks int
}

// expiryWindow is how far the expiry deadline is pushed on creation, start
// and end. The expiry sweep reaps anything past it.
const expiryWindow = time.Hour

// Game is one drafting event. All exported methods serialize on mu; every
// internal transition (pass, startRound, end, the bot drain) runs to
// completion under that lock, so a game never interleaves two operations.
type Game struct {
	mu sync.Mutex

	id     string
	secret string
	hostID string
	title  string
	seats  int
	typ    Type
	sets   []string
	cube   *CubeSpec

	isPrivate  bool
	modernOnly bool
	totalChaos bool
	chaosPacks int

	// round: 0 pending, 1..rounds in progress, -1 finished.
	round  int
	rounds int
	// delta is the pass direction, flipped every round.
	delta int

	players   []Player
	bots      int
	packCount int
	pool      [][]Card

	packsInfo   string
	timeCreated time.Time
	expires     time.Time
	killed      bool

	// suppressMeta silences broadcasts while bot seats drain inside
	// startRound; a single broadcast goes out once the drain finishes.
	suppressMeta bool

	logger    *zap.Logger
	supplier  PoolSupplier
	archiver  Archiver
	lifecycle Lifecycle
}

// New validates params, derives the round count from the game type and
// returns an unregistered game at round 0. Registration is the caller's
// job (see registry.Create).
func New(params Params, logger *zap.Logger, supplier PoolSupplier, archiver Archiver, lifecycle Lifecycle) (*Game, error) {
	if params.Seats < 1 {
		return nil, fmt.Errorf("%w: seats must be positive", ErrBadParams)
	}

	g := &Game{
		id:          uuid.NewString(),
		secret:      uuid.NewString(),
		hostID:      params.HostID,
		title:       params.Title,
		seats:       params.Seats,
		typ:         params.Type,
		sets:        params.Sets,
		cube:        params.Cube,
		isPrivate:   params.IsPrivate,
		modernOnly:  params.ModernOnly,
		totalChaos:  params.TotalChaos,
		chaosPacks:  params.ChaosPacks,
		delta:       -1,
		timeCreated: time.Now(),
		supplier:    supplier,
		archiver:    archiver,
		lifecycle:   lifecycle,
	}
	g.logger = logger.With(zap.String("game_id", g.id))

	switch params.Type {
	case TypeDraft, TypeSealed:
		g.packsInfo = strings.Join(params.Sets, " / ")
		g.rounds = len(params.Sets)
	case TypeCubeDraft:
		if params.Cube == nil {
			return nil, fmt.Errorf("%w: cube game without cube", ErrBadParams)
		}
		g.packsInfo = fmt.Sprintf("%d packs with %d cards from a pool of %d cards",
			params.Cube.Packs, params.Cube.Cards, len(params.Cube.List))
		g.rounds = params.Cube.Packs
	case TypeCubeSealed:
		if params.Cube == nil {
			return nil, fmt.Errorf("%w: cube game without cube", ErrBadParams)
		}
		g.packsInfo = fmt.Sprintf("%d cards per player from a pool of %d cards",
			params.Cube.PoolSize, len(params.Cube.List))
		g.rounds = params.Cube.Packs
	case TypeChaosDraft, TypeChaosSealed:
		opts := []string{fmt.Sprintf("%d Packs", params.ChaosPacks)}
		if params.ModernOnly {
			opts = append(opts, "Modern sets only")
		}
		if params.TotalChaos {
			opts = append(opts, "Total Chaos")
		}
		g.packsInfo = strings.Join(opts, ", ")
		g.rounds = params.ChaosPacks
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, params.Type)
	}

	g.renew()
	return g, nil
}

func (g *Game) ID() string        { return g.id }
func (g *Game) Secret() string    { return g.secret }
func (g *Game) Type() Type        { return g.typ }
func (g *Game) Title() string     { return g.title }
func (g *Game) Seats() int        { return g.seats }
func (g *Game) PacksInfo() string { return g.packsInfo }

func (g *Game) TimeCreated() time.Time { return g.timeCreated }

func (g *Game) renew() { g.expires = time.Now().Add(expiryWindow) }

// Expired reports whether the expiry deadline has passed.
func (g *Game) Expired(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return now.After(g.expires)
}

func (g *Game) didStart() bool   { return g.round != 0 }
func (g *Game) finished() bool   { return g.round == -1 }
func (g *Game) inProgress() bool { return g.didStart() && !g.finished() }

func (g *Game) isActive() bool {
	for _, p := range g.players {
		if !p.IsBot() && p.IsConnected() {
			return true
		}
	}
	return false
}

// IsActive reports whether any human is still connected.
func (g *Game) IsActive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isActive()
}

func (g *Game) DidStart() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.didStart()
}

func (g *Game) IsFinished() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.finished()
}

func (g *Game) IsInProgress() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inProgress()
}

// ConnectedHumans counts seated, connected, non-bot players.
func (g *Game) ConnectedHumans() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, p := range g.players {
		if !p.IsBot() && p.IsConnected() {
			n++
		}
	}
	return n
}

// Joinable reports whether the game should appear in the open-room listing.
func (g *Game) Joinable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.isPrivate || g.didStart() || !g.isActive() {
		return false
	}
	return len(g.players) < g.seats
}

func (g *Game) UsedSeats() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// Join seats a new human, or re-attaches a returning one. A returning
// identity gets its old seat back even mid-game; fresh joins are rejected
// once the game has started.
func (g *Game) Join(id, name string, conn Conn) (*Human, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.killed {
		return nil, ErrGameStarted
	}

	for _, p := range g.players {
		h, ok := p.(*Human)
		if !ok || h.id != id {
			continue
		}
		h.attach(conn)
		g.greet(h)
		g.meta(nil)
		return h, nil
	}

	if g.didStart() {
		return nil, ErrGameStarted
	}
	if len(g.players) >= g.seats {
		return nil, ErrGameFull
	}

	h := NewHuman(id, name, conn)
	if h.id == g.hostID {
		h.isHost = true
	}
	h.seat = len(g.players)
	g.players = append(g.players, h)
	g.greet(h)
	g.meta(nil)
	return h, nil
}

// greet sends a freshly (re)connected human its full snapshot.
func (g *Game) greet(h *Human) {
	h.Send("set", map[string]any{
		"isHost": h.isHost,
		"round":  g.round,
		"self":   h.seat,
		"sets":   g.sets,
	})
	h.Send("gameInfos", map[string]any{
		"type":      g.typ,
		"packsInfo": g.packsInfo,
		"sets":      g.sets,
	})
	if g.finished() {
		h.Send("log", h.draftRound)
	}
}

// Swap exchanges two seat positions. Pre-start only; out-of-range indexes
// are ignored.
func (g *Game) Swap(i, j int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.didStart() {
		return
	}
	n := len(g.players)
	if i < 0 || i >= n || j < 0 || j >= n {
		return
	}
	g.players[i], g.players[j] = g.players[j], g.players[i]
	g.renumber()
	g.meta(nil)
}

// Kick removes the human at seat i. Mid-game the seat survives for pack
// accounting and only the connection drops; pre-start the seat goes away.
// Kicking a bot or a bad index does nothing.
func (g *Game) Kick(i int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if i < 0 || i >= len(g.players) {
		return
	}
	h, ok := g.players[i].(*Human)
	if !ok {
		return
	}

	h.SendError("you were kicked")
	if g.didStart() {
		h.disconnect()
	} else {
		g.removeSeat(i)
		h.disconnect()
	}
	g.meta(nil)
}

// Exit handles a player leaving. Pre-start the seat is removed and the rest
// renumbered; after start only the connection state changes.
func (g *Game) Exit(p Player) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if h, ok := p.(*Human); ok {
		h.connected = false
		h.conn = nil
	}
	if g.didStart() {
		g.meta(nil)
		return
	}
	for i, q := range g.players {
		if q == p {
			g.removeSeat(i)
			break
		}
	}
	g.meta(nil)
}

func (g *Game) removeSeat(i int) {
	g.players = append(g.players[:i], g.players[i+1:]...)
	g.renumber()
}

func (g *Game) renumber() {
	for i, p := range g.players {
		p.state().seat = i
		p.Send("set", map[string]any{"self": i})
	}
}

// SetName updates a player's display name.
func (g *Game) SetName(p Player, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p.state().name = name
	g.meta(nil)
}

// SetHash records the deck fingerprint a client reported for itself.
func (g *Game) SetHash(p Player, hash string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p.state().hash = hash
	g.meta(nil)
}

// meta broadcasts per-seat state to everyone, then nudges the lobby
// aggregates. Callers hold the lock. Suppressed during the bot drain.
func (g *Game) meta(extra map[string]any) {
	if g.suppressMeta {
		return
	}
	summary := make([]map[string]any, len(g.players))
	for i, p := range g.players {
		st := p.state()
		packs := 0
		if h, ok := p.(*Human); ok {
			packs = len(h.packs)
		}
		summary[i] = map[string]any{
			"hash":        st.hash,
			"name":        st.name,
			"time":        st.countdown,
			"packs":       packs,
			"isBot":       p.IsBot(),
			"isConnected": p.IsConnected(),
		}
	}
	state := map[string]any{"players": summary}
	for k, v := range extra {
		state[k] = v
	}
	for _, p := range g.players {
		p.Send("set", state)
	}
	g.lifecycle.Announce()
}

// Kill tears the game down from any state: players are told why, the
// registry entry goes away, and no further operation has any effect.
func (g *Game) Kill(reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.killed {
		return
	}
	if !g.finished() {
		for _, p := range g.players {
			p.SendError(reason)
		}
	}
	g.killed = true
	g.logger.Info("game killed", zap.String("reason", reason))
	g.lifecycle.Deregister(g.id)
	g.lifecycle.Announce()
}

// Status is the HTTP-facing view of a game.
type Status struct {
	DidGameStart bool         `json:"didGameStart"`
	CurrentPack  int          `json:"currentPack"`
	Players      []SeatStatus `json:"players"`
}

type SeatStatus struct {
	PlayerName string `json:"playerName"`
	ID         string `json:"id"`
	SeatNumber int    `json:"seatNumber"`
}

func (g *Game) GetStatus() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Status{
		DidGameStart: g.didStart(),
		CurrentPack:  g.round,
		Players:      make([]SeatStatus, len(g.players)),
	}
	for i, p := range g.players {
		s.Players[i] = SeatStatus{PlayerName: p.Name(), ID: p.ID(), SeatNumber: i}
	}
	return s
}

// Deck is one seat's accumulated result: round-indexed picks for draft
// games, a flat pool for sealed ones.
type Deck struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Picks map[int][]Card `json:"picks,omitempty"`
	Pool  []Card         `json:"pool,omitempty"`
}

// DeckSelector picks decks by seat, by player identity, or (zero value) all.
type DeckSelector struct {
	Seat     *int
	PlayerID string
}

func (g *Game) GetDecks(sel DeckSelector) []Deck {
	g.mu.Lock()
	defer g.mu.Unlock()

	if sel.Seat != nil {
		i := *sel.Seat
		if i < 0 || i >= len(g.players) {
			return nil
		}
		return []Deck{g.deckOf(g.players[i])}
	}
	if sel.PlayerID != "" {
		for _, p := range g.players {
			if p.ID() == sel.PlayerID {
				return []Deck{g.deckOf(p)}
			}
		}
		return nil
	}
	decks := make([]Deck, len(g.players))
	for i, p := range g.players {
		decks[i] = g.deckOf(p)
	}
	return decks
}

func (g *Game) deckOf(p Player) Deck {
	st := p.state()
	d := Deck{ID: st.id, Name: st.name, Pool: st.pool}
	if len(st.captures) > 0 || len(st.picks) > 0 {
		d.Picks = make(map[int][]Card, len(st.captures)+1)
		for r, picks := range st.captures {
			d.Picks[r] = picks
		}
		if len(st.picks) > 0 && g.round > 0 {
			d.Picks[g.round] = st.picks
		}
	}
	return d
}

// Listing is the lobby-listing view of a joinable game.
type Listing struct {
	ID          string
	Title       string
	Type        Type
	UsedSeats   int
	TotalSeats  int
	PacksInfo   string
	TimeCreated time.Time
}

func (g *Game) RoomListing() Listing {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Listing{
		ID:          g.id,
		Title:       g.title,
		Type:        g.typ,
		UsedSeats:   len(g.players),
		TotalSeats:  g.seats,
		PacksInfo:   g.packsInfo,
		TimeCreated: g.timeCreated,
	}
}
