package game

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StartOptions are the host's choices when starting a draft-style game.
// Ignored for sealed types.
type StartOptions struct {
	AddBots        bool
	UseTimer       bool
	TimerLength    int
	ShufflePlayers bool
}

const startFailureMsg = "Whoops! An error occurred while starting the game. " +
	"Please try again later."

// Start transitions the game out of the pending state. Sealed types hand
// each seat its pool and finish immediately; draft types begin round 1.
// Start is fail-atomic: on any error every connected human is told and
// evicted, the game is deregistered, and the error is returned.
func (g *Game) Start(opts StartOptions) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.killed || g.didStart() {
		return ErrGameStarted
	}
	g.renew()

	var err error
	if g.typ.sealed() {
		err = g.handleSealed()
	} else {
		err = g.handleDraft(opts)
	}
	if err != nil {
		g.logger.Error("start failed", zap.Error(err))
		for _, p := range g.players {
			if h, ok := p.(*Human); ok && h.connected {
				h.SendError(startFailureMsg)
				h.disconnect()
			}
		}
		g.killed = true
		g.lifecycle.Deregister(g.id)
		g.lifecycle.Announce()
		return fmt.Errorf("start game %s: %w", g.id, err)
	}

	g.logger.Info("game started",
		zap.String("type", string(g.typ)),
		zap.Int("players", len(g.players)),
		zap.Int("bots", g.bots),
		zap.Int("rounds", g.rounds))
	g.lifecycle.Announce()
	return nil
}

// handleSealed skips pack-passing entirely: build the per-seat pools, mark
// the game finished, hand everyone their pool.
func (g *Game) handleSealed() error {
	if err := g.buildPool(); err != nil {
		return err
	}
	g.round = -1
	for _, p := range g.players {
		st := p.state()
		st.pool = g.nextPack()
		p.Send("pool", st.pool)
		p.Send("set", map[string]any{"round": -1})
	}
	return nil
}

func (g *Game) handleDraft(opts StartOptions) error {
	for _, p := range g.players {
		st := p.state()
		st.useTimer = opts.UseTimer
		st.timerLength = opts.TimerLength
	}

	if opts.AddBots {
		for len(g.players) < g.seats {
			g.bots++
			g.players = append(g.players, NewBot(g.bots, FirstPick))
		}
	}

	if opts.ShufflePlayers {
		rand.Shuffle(len(g.players), func(i, j int) {
			g.players[i], g.players[j] = g.players[j], g.players[i]
		})
	}

	for i, p := range g.players {
		st := p.state()
		st.seat = i
		st.passFn = g.pass
		p.Send("set", map[string]any{"self": i})
	}

	if err := g.buildPool(); err != nil {
		return err
	}
	g.startRound()
	return nil
}

func (g *Game) buildPool() error {
	pool, err := g.supplier.BuildPool(PoolSpec{
		Type:       g.typ,
		Sets:       g.sets,
		Cube:       g.cube,
		Players:    len(g.players),
		Rounds:     g.rounds,
		ChaosPacks: g.chaosPacks,
		ModernOnly: g.modernOnly,
		TotalChaos: g.totalChaos,
	})
	if err != nil {
		return fmt.Errorf("build pool: %w", err)
	}
	g.pool = pool
	return nil
}

func (g *Game) nextPack() []Card {
	pack := g.pool[0]
	g.pool = g.pool[1:]
	return pack
}

// playerAt resolves any integer, including negatives, to a seat via true
// modulo; the alternating pass direction depends on this.
func (g *Game) playerAt(index int) Player {
	n := len(g.players)
	return g.players[(index%n+n)%n]
}

func (g *Game) firstHumanIndex() int {
	for i, p := range g.players {
		if !p.IsBot() {
			return i
		}
	}
	return -1
}

// Pass is the transport-facing entry point for handing back a pack.
func (g *Game) Pass(p Player, pack []Card) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.killed || !g.inProgress() {
		return
	}
	g.pass(p, pack)
}

// Pick removes card i from p's current pack and passes the remainder on.
func (g *Game) Pick(p Player, i int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.killed || !g.inProgress() {
		return
	}
	if h, ok := p.(*Human); ok {
		h.pick(i)
	}
}

// pass is the per-pick transition. An emptied pack decrements the round's
// in-flight counter and may advance the round; a non-empty pack moves one
// seat along the current direction. The two paths never mix. Callers hold
// the lock.
func (g *Game) pass(p Player, pack []Card) {
	if len(pack) == 0 {
		g.packCount--
		if g.packCount == 0 {
			g.startRound()
		} else {
			g.meta(nil)
		}
		return
	}

	next := g.playerAt(p.state().seat + g.delta)
	next.deliverPack(pack)
	if !next.IsBot() {
		g.meta(nil)
	}
}

// startRound archives the finished round and deals the next one, or ends
// the game once `rounds` playable rounds have completed. Bot seats are
// drained synchronously with broadcasts suppressed, so no bot is ever left
// holding a pack.
func (g *Game) startRound() {
	if g.round != 0 {
		for _, p := range g.players {
			st := p.state()
			st.captures[g.round] = st.picks
			st.picks = nil
			if h, ok := p.(*Human); ok {
				h.draftRound[g.round] = h.draftPack
				h.draftPack = nil
			}
		}
	}

	if g.round == g.rounds {
		g.end()
		return
	}
	g.round++
	g.packCount = len(g.players)
	g.delta = -g.delta

	for _, p := range g.players {
		if p.IsBot() {
			continue
		}
		p.state().pickNumber = 0
		p.deliverPack(g.nextPack())
	}

	// Walk backward through the pass order from the first human seat so
	// every bot pack cascades forward until a human holds it.
	g.suppressMeta = true
	index := g.firstHumanIndex()
	for count := len(g.players) - 1; count > 0; count-- {
		index -= g.delta
		p := g.playerAt(index)
		if p.IsBot() {
			p.deliverPack(g.nextPack())
		}
	}
	g.suppressMeta = false

	g.meta(map[string]any{"round": g.round})
}

// end finalizes the game: round -1, per-human logs, capture summary,
// refreshed expiry, and (for draft types) async pick-stats export.
func (g *Game) end() {
	for _, p := range g.players {
		if h, ok := p.(*Human); ok {
			h.Send("log", h.draftRound)
		}
	}

	cubeHash := ""
	if g.typ.cube() && g.cube != nil {
		sum := sha512.Sum512([]byte(strings.Join(g.cube.List, "")))
		cubeHash = hex.EncodeToString(sum[:])
	}

	rec := CaptureSummary{
		GameID:  g.id,
		Players: len(g.players) - g.bots,
		Type:    g.typ,
		Sets:    g.sets,
		Seats:   g.seats,
		Time:    time.Now(),
		Cap:     make([]SeatCapture, len(g.players)),
	}
	for i, p := range g.players {
		rec.Cap[i] = SeatCapture{
			ID:       p.ID(),
			Name:     p.Name(),
			Seat:     i,
			Picks:    captureNames(p.state().captures),
			CubeHash: cubeHash,
		}
	}
	g.archiver.AppendCaptureSummary(rec)

	g.renew()
	g.round = -1
	g.meta(map[string]any{"round": -1})
	g.logger.Info("game finished")

	if g.typ == TypeDraft || g.typ == TypeCubeDraft {
		stats := g.pickStats()
		go g.archiver.ExportPickStats(stats)
	}
}

func (g *Game) pickStats() PickStats {
	stats := PickStats{
		GameID: g.id,
		Draft:  make(map[string]map[int][]string),
	}
	if g.cube != nil {
		stats.CubeList = g.cube.List
	} else {
		stats.Sets = g.sets
	}
	for _, p := range g.players {
		if p.IsBot() {
			continue
		}
		stats.Draft[p.ID()] = captureNames(p.state().captures)
	}
	return stats
}

func captureNames(captures map[int][]Card) map[int][]string {
	out := make(map[int][]string, len(captures))
	for r, picks := range captures {
		names := make([]string, len(picks))
		for i, c := range picks {
			names[i] = c.Name
		}
		out[r] = names
	}
	return out
}

// TickTimers is the 1-second sweep entry point: decrement every running
// pick countdown and force a default pick when one hits zero. Pending and
// finished games are skipped.
func (g *Game) TickTimers() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.round < 1 {
		return
	}
	for _, p := range g.players {
		st := p.state()
		if st.countdown > 0 {
			st.countdown--
			if st.countdown == 0 {
				p.forceDefaultPick()
			}
		}
	}
}
