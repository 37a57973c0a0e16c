package game

import (
	"fmt"

	"github.com/google/uuid"
)

// Conn is the transport side of a human player: the websocket layer
// implements it, tests use fakes.
type Conn interface {
	Send(event string, payload any)
	Err(msg string)
	Close()
}

// Player is a seat occupant. Exactly two implementations exist, Human and
// Bot; the state machine never branches on the concrete type beyond IsBot.
type Player interface {
	ID() string
	Name() string
	IsBot() bool
	IsConnected() bool
	Send(event string, payload any)
	SendError(msg string)

	deliverPack(pack []Card)
	forceDefaultPick()
	state() *seatState
}

// seatState is the per-seat bookkeeping shared by humans and bots. It is
// owned by the game and only ever touched under the game's lock.
type seatState struct {
	id   string
	name string
	seat int
	hash string

	// picks is the working buffer for the round in progress; captures is
	// the round-indexed log it gets archived into when the round advances.
	picks    []Card
	captures map[int][]Card

	// pool is only set for sealed-style games.
	pool []Card

	countdown   int
	useTimer    bool
	timerLength int
	pickNumber  int

	// passFn hands a remaining pack back to the owning game. Wired during
	// start; calling it assumes the game lock is already held.
	passFn func(p Player, pack []Card)
}

func newSeatState(id, name string) seatState {
	return seatState{
		id:       id,
		name:     name,
		captures: make(map[int][]Card),
	}
}

func (s *seatState) ID() string   { return s.id }
func (s *seatState) Name() string { return s.name }

// Human is a websocket-backed seat. A disconnected human keeps its seat and
// all of its state; only conn comes and goes.
type Human struct {
	seatState
	conn      Conn
	connected bool
	isHost    bool

	// packs queue up when upstream passes faster than this player picks.
	packs [][]Card

	draftPack  []string
	draftRound map[int][]string
}

func NewHuman(id, name string, conn Conn) *Human {
	return &Human{
		seatState:  newSeatState(id, name),
		conn:       conn,
		connected:  conn != nil,
		draftRound: make(map[int][]string),
	}
}

func (h *Human) IsBot() bool       { return false }
func (h *Human) IsConnected() bool { return h.connected }
func (h *Human) IsHost() bool      { return h.isHost }
func (h *Human) state() *seatState { return &h.seatState }

func (h *Human) Send(event string, payload any) {
	if h.connected && h.conn != nil {
		h.conn.Send(event, payload)
	}
}

func (h *Human) SendError(msg string) {
	if h.connected && h.conn != nil {
		h.conn.Err(msg)
	}
}

// attach re-binds a (re)connecting transport to this seat and replays the
// pack at the head of the queue, so a returning player can keep picking.
// The countdown keeps running across reconnects, so no notifyPack here.
func (h *Human) attach(conn Conn) {
	h.conn = conn
	h.connected = true
	if len(h.packs) > 0 {
		h.Send("pack", h.packs[0])
		h.Send("packSize", len(h.packs[0]))
	}
}

func (h *Human) disconnect() {
	if h.conn != nil {
		h.conn.Close()
	}
	h.conn = nil
	h.connected = false
}

func (h *Human) deliverPack(pack []Card) {
	h.packs = append(h.packs, pack)
	if len(h.packs) == 1 {
		h.notifyPack()
	}
}

func (h *Human) notifyPack() {
	if h.useTimer {
		h.countdown = h.timerLength
	}
	h.Send("pack", h.packs[0])
	h.Send("packSize", len(h.packs[0]))
}

// pick removes card i from the current pack and hands the remainder back to
// the game. Out-of-range indexes fall back to the first card.
func (h *Human) pick(i int) {
	if len(h.packs) == 0 {
		return
	}
	pack := h.packs[0]
	h.packs = h.packs[1:]
	if i < 0 || i >= len(pack) {
		i = 0
	}
	card := pack[i]
	h.picks = append(h.picks, card)
	h.draftPack = append(h.draftPack, card.Name)
	h.pickNumber++
	h.countdown = 0

	rest := make([]Card, 0, len(pack)-1)
	rest = append(rest, pack[:i]...)
	rest = append(rest, pack[i+1:]...)

	if len(h.packs) > 0 {
		h.notifyPack()
	}
	h.passFn(h, rest)
}

// forceDefaultPick is the pick-timeout behavior: take the top card.
func (h *Human) forceDefaultPick() {
	h.pick(0)
}

// PickStrategy decides which card a bot takes from a pack. The returned
// index is clamped by the caller, so strategies may be sloppy.
type PickStrategy func(pack []Card) int

// FirstPick takes the top card of every pack.
func FirstPick([]Card) int { return 0 }

// Bot fills an empty seat. It never holds a pack: a delivered pack is
// picked from and re-passed in the same call.
type Bot struct {
	seatState
	strategy PickStrategy
}

func NewBot(n int, strategy PickStrategy) *Bot {
	if strategy == nil {
		strategy = FirstPick
	}
	return &Bot{
		seatState: newSeatState(uuid.NewString(), fmt.Sprintf("Bot %d", n)),
		strategy:  strategy,
	}
}

func (b *Bot) IsBot() bool       { return true }
func (b *Bot) IsConnected() bool { return true }
func (b *Bot) Send(string, any)  {}
func (b *Bot) SendError(string)  {}
func (b *Bot) forceDefaultPick() {}
func (b *Bot) state() *seatState { return &b.seatState }

func (b *Bot) deliverPack(pack []Card) {
	i := b.strategy(pack)
	if i < 0 || i >= len(pack) {
		i = 0
	}
	b.picks = append(b.picks, pack[i])
	rest := make([]Card, 0, len(pack)-1)
	rest = append(rest, pack[:i]...)
	rest = append(rest, pack[i+1:]...)
	b.passFn(b, rest)
}
