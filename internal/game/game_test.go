package game

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"
)

// fakeConn records everything the game pushes at a player.
type fakeConn struct {
	sent   []sentMsg
	errs   []string
	closed int
}

type sentMsg struct {
	event   string
	payload any
}

func (c *fakeConn) Send(event string, payload any) {
	c.sent = append(c.sent, sentMsg{event: event, payload: payload})
}

func (c *fakeConn) Err(msg string) { c.errs = append(c.errs, msg) }
func (c *fakeConn) Close()         { c.closed++ }

func (c *fakeConn) countEvent(event string) int {
	n := 0
	for _, m := range c.sent {
		if m.event == event {
			n++
		}
	}
	return n
}

type fakeLifecycle struct {
	deregistered []string
	announces    int
}

func (l *fakeLifecycle) Deregister(id string) { l.deregistered = append(l.deregistered, id) }
func (l *fakeLifecycle) Announce()            { l.announces++ }

// stubSupplier builds deterministic pools: sequentially named cards cut
// into packs of packSize (draft) or one pool of packSize per seat (sealed).
type stubSupplier struct {
	packSize int
	err      error
}

func (s stubSupplier) BuildPool(spec PoolSpec) ([][]Card, error) {
	if s.err != nil {
		return nil, s.err
	}
	n := spec.Rounds * spec.Players
	if spec.Type.sealed() {
		n = spec.Players
	}
	serial := 0
	pool := make([][]Card, n)
	for i := range pool {
		pack := make([]Card, s.packSize)
		for j := range pack {
			serial++
			pack[j] = Card{UUID: fmt.Sprintf("u%d", serial), Name: fmt.Sprintf("card-%d", serial)}
		}
		pool[i] = pack
	}
	return pool, nil
}

type fakeArchiver struct {
	summaries []CaptureSummary
	stats     chan PickStats
}

func newFakeArchiver() *fakeArchiver {
	return &fakeArchiver{stats: make(chan PickStats, 1)}
}

func (a *fakeArchiver) AppendCaptureSummary(rec CaptureSummary) {
	a.summaries = append(a.summaries, rec)
}

func (a *fakeArchiver) ExportPickStats(stats PickStats) {
	a.stats <- stats
}

func newTestGame(t *testing.T, params Params, supplier PoolSupplier) (*Game, *fakeLifecycle, *fakeArchiver) {
	t.Helper()
	lc := &fakeLifecycle{}
	ar := newFakeArchiver()
	g, err := New(params, zap.NewNop(), supplier, ar, lc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g, lc, ar
}

func draftParams(seats int, sets ...string) Params {
	return Params{HostID: "host", Title: "test", Seats: seats, Type: TypeDraft, Sets: sets}
}

func TestNewDerivesRounds(t *testing.T) {
	cases := []struct {
		name       string
		params     Params
		wantRounds int
		wantErr    error
	}{
		{
			name:       "draft rounds follow sets",
			params:     draftParams(4, "AAA", "BBB", "CCC"),
			wantRounds: 3,
		},
		{
			name:       "sealed rounds follow sets",
			params:     Params{HostID: "h", Seats: 2, Type: TypeSealed, Sets: []string{"AAA", "BBB"}},
			wantRounds: 2,
		},
		{
			name: "cube draft rounds follow pack count",
			params: Params{HostID: "h", Seats: 2, Type: TypeCubeDraft,
				Cube: &CubeSpec{List: []string{"a", "b"}, Packs: 4, Cards: 15}},
			wantRounds: 4,
		},
		{
			name:       "chaos draft rounds follow pack number",
			params:     Params{HostID: "h", Seats: 2, Type: TypeChaosDraft, ChaosPacks: 5},
			wantRounds: 5,
		},
		{
			name:    "unknown type is a configuration error",
			params:  Params{HostID: "h", Seats: 2, Type: "winston"},
			wantErr: ErrUnknownType,
		},
		{
			name:    "cube draft without cube is a parameter error",
			params:  Params{HostID: "h", Seats: 2, Type: TypeCubeDraft},
			wantErr: ErrBadParams,
		},
		{
			name:    "zero seats is a parameter error",
			params:  Params{HostID: "h", Seats: 0, Type: TypeDraft, Sets: []string{"AAA"}},
			wantErr: ErrBadParams,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := New(tc.params, zap.NewNop(), stubSupplier{packSize: 15}, newFakeArchiver(), &fakeLifecycle{})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if g.rounds != tc.wantRounds {
				t.Fatalf("rounds: want %d, got %d", tc.wantRounds, g.rounds)
			}
			if g.round != 0 {
				t.Fatalf("new game must be pending, round=%d", g.round)
			}
		})
	}
}

func TestJoinGrantsHostAndSeats(t *testing.T) {
	g, _, _ := newTestGame(t, draftParams(4, "AAA"), stubSupplier{packSize: 15})

	hostConn := &fakeConn{}
	h, err := g.Join("host", "alice", hostConn)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !h.IsHost() {
		t.Fatalf("host identity must get host privilege")
	}

	other, err := g.Join("p2", "bob", &fakeConn{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if other.IsHost() {
		t.Fatalf("non-host identity must not get host privilege")
	}
	if other.seat != 1 {
		t.Fatalf("second join seat: want 1, got %d", other.seat)
	}
	if hostConn.countEvent("gameInfos") != 1 {
		t.Fatalf("greeting must include gameInfos")
	}
}

func TestJoinReconnectReattaches(t *testing.T) {
	// Scenario: a previously-seated identity joins again; it must get its
	// old seat back, not a new one, and must be re-sent the full snapshot.
	g, _, _ := newTestGame(t, draftParams(4, "AAA"), stubSupplier{packSize: 15})

	if _, err := g.Join("host", "alice", &fakeConn{}); err != nil {
		t.Fatalf("join: %v", err)
	}
	h1, err := g.Join("p2", "bob", &fakeConn{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	g.Exit(h1)
	if len(g.players) != 1 {
		t.Fatalf("pre-start exit must remove the seat; have %d", len(g.players))
	}

	// Re-join pre-start after exit appends a fresh seat.
	if _, err := g.Join("p2", "bob", &fakeConn{}); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if len(g.players) != 2 {
		t.Fatalf("rejoin must not duplicate seats; have %d", len(g.players))
	}

	// Disconnect without exiting (connection drop mid-pending), then join
	// with the same identity: same seat, fresh snapshot.
	h2 := g.players[1].(*Human)
	h2.connected = false
	h2.conn = nil

	conn := &fakeConn{}
	h3, err := g.Join("p2", "bob", conn)
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if h3 != h2 {
		t.Fatalf("reconnect must re-attach the existing seat")
	}
	if len(g.players) != 2 {
		t.Fatalf("reconnect must not add a seat; have %d", len(g.players))
	}
	if conn.countEvent("set") == 0 || conn.countEvent("gameInfos") != 1 {
		t.Fatalf("reconnect must re-send the full snapshot; sent=%v", conn.sent)
	}
}

func TestJoinMidGameReconnectResendsPack(t *testing.T) {
	// A player whose connection drops mid-draft must get the pack it was
	// looking at again on reconnect, or it can never make the next pick.
	g, _, _ := newTestGame(t, draftParams(4, "AAA"), stubSupplier{packSize: 15})
	h, err := g.Join("host", "alice", &fakeConn{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := g.Start(StartOptions{AddBots: true}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(h.packs) != 4 {
		t.Fatalf("expected a queued pack backlog, got %d", len(h.packs))
	}

	// Connection drop without an exit.
	h.connected = false
	h.conn = nil

	conn := &fakeConn{}
	h2, err := g.Join("host", "alice", conn)
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if h2 != h {
		t.Fatalf("reconnect must re-attach the existing seat")
	}
	if conn.countEvent("pack") != 1 || conn.countEvent("packSize") != 1 {
		t.Fatalf("reconnect must replay the current pack exactly once; sent=%v", conn.sent)
	}
	for _, m := range conn.sent {
		if m.event != "pack" {
			continue
		}
		pack, ok := m.payload.([]Card)
		if !ok || len(pack) != len(h.packs[0]) {
			t.Fatalf("replayed pack must be the head of the queue; got %v", m.payload)
		}
	}
}

func TestJoinAfterStartRejected(t *testing.T) {
	g, _, _ := newTestGame(t, draftParams(4, "AAA"), stubSupplier{packSize: 15})
	if _, err := g.Join("host", "alice", &fakeConn{}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := g.Start(StartOptions{AddBots: true}); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := g.Join("late", "carol", &fakeConn{}); !errors.Is(err, ErrGameStarted) {
		t.Fatalf("want ErrGameStarted, got %v", err)
	}
}

func TestSwapPreStartOnly(t *testing.T) {
	g, _, _ := newTestGame(t, draftParams(4, "AAA"), stubSupplier{packSize: 15})
	g.Join("host", "alice", &fakeConn{})
	g.Join("p2", "bob", &fakeConn{})

	g.Swap(0, 1)
	if g.players[0].ID() != "p2" || g.players[1].ID() != "host" {
		t.Fatalf("swap did not exchange seats")
	}
	if g.players[0].state().seat != 0 || g.players[1].state().seat != 1 {
		t.Fatalf("swap must renumber seat indexes")
	}

	// Out-of-range indexes are silently ignored.
	g.Swap(0, 5)
	g.Swap(-1, 1)
	if g.players[0].ID() != "p2" {
		t.Fatalf("out-of-range swap must be a no-op")
	}

	if err := g.Start(StartOptions{AddBots: true}); err != nil {
		t.Fatalf("start: %v", err)
	}
	g.Swap(0, 1)
	if g.players[0].ID() != "p2" {
		t.Fatalf("post-start swap must be a no-op")
	}
}

func TestKick(t *testing.T) {
	t.Run("pre-start removes the seat", func(t *testing.T) {
		g, _, _ := newTestGame(t, draftParams(4, "AAA"), stubSupplier{packSize: 15})
		g.Join("host", "alice", &fakeConn{})
		conn := &fakeConn{}
		g.Join("p2", "bob", conn)

		g.Kick(1)
		if len(g.players) != 1 {
			t.Fatalf("kick pre-start must remove the seat; have %d", len(g.players))
		}
		if len(conn.errs) != 1 {
			t.Fatalf("kicked player must be told why; errs=%v", conn.errs)
		}
		if conn.closed == 0 {
			t.Fatalf("kicked player must be disconnected")
		}
	})

	t.Run("mid-game keeps the seat", func(t *testing.T) {
		g, _, _ := newTestGame(t, draftParams(4, "AAA"), stubSupplier{packSize: 15})
		g.Join("host", "alice", &fakeConn{})
		conn := &fakeConn{}
		g.Join("p2", "bob", conn)
		if err := g.Start(StartOptions{AddBots: true}); err != nil {
			t.Fatalf("start: %v", err)
		}

		g.Kick(1)
		if len(g.players) != 4 {
			t.Fatalf("mid-game kick must keep the seat; have %d", len(g.players))
		}
		kicked := g.players[1].(*Human)
		if kicked.IsConnected() {
			t.Fatalf("mid-game kick must disconnect the player")
		}
	})

	t.Run("kicking a bot is a no-op", func(t *testing.T) {
		// Scenario D.
		g, _, _ := newTestGame(t, draftParams(4, "AAA"), stubSupplier{packSize: 15})
		g.Join("host", "alice", &fakeConn{})
		if err := g.Start(StartOptions{AddBots: true}); err != nil {
			t.Fatalf("start: %v", err)
		}
		if !g.players[1].IsBot() {
			t.Fatalf("expected a bot at seat 1")
		}

		g.Kick(1)
		if len(g.players) != 4 || !g.players[1].IsBot() {
			t.Fatalf("kicking a bot must change nothing")
		}
	})

	t.Run("bad index is a no-op", func(t *testing.T) {
		g, _, _ := newTestGame(t, draftParams(4, "AAA"), stubSupplier{packSize: 15})
		g.Join("host", "alice", &fakeConn{})
		g.Kick(-1)
		g.Kick(9)
		if len(g.players) != 1 {
			t.Fatalf("bad-index kick must change nothing")
		}
	})
}

func TestKillNotifiesAndDeregisters(t *testing.T) {
	g, lc, _ := newTestGame(t, draftParams(4, "AAA"), stubSupplier{packSize: 15})
	conn := &fakeConn{}
	g.Join("host", "alice", conn)

	g.Kill("game over")
	if len(conn.errs) != 1 || conn.errs[0] != "game over" {
		t.Fatalf("kill must tell players why; errs=%v", conn.errs)
	}
	if len(lc.deregistered) != 1 || lc.deregistered[0] != g.ID() {
		t.Fatalf("kill must deregister the game; got %v", lc.deregistered)
	}

	// Killed is terminal.
	g.Kill("again")
	if len(lc.deregistered) != 1 {
		t.Fatalf("second kill must be a no-op")
	}
	if err := g.Start(StartOptions{}); !errors.Is(err, ErrGameStarted) {
		t.Fatalf("operations on a killed game must be rejected")
	}
}

func TestKillAfterFinishStaysQuiet(t *testing.T) {
	g, _, _ := newTestGame(t, Params{HostID: "host", Seats: 2, Type: TypeSealed, Sets: []string{"AAA"}},
		stubSupplier{packSize: 15})
	conn := &fakeConn{}
	g.Join("host", "alice", conn)
	if err := g.Start(StartOptions{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !g.IsFinished() {
		t.Fatalf("sealed start must finish immediately")
	}

	before := len(conn.errs)
	g.Kill("game over")
	if len(conn.errs) != before {
		t.Fatalf("killing a finished game must not spam players")
	}
}

func TestGetStatusAndDecks(t *testing.T) {
	g, _, _ := newTestGame(t, draftParams(2, "AAA"), stubSupplier{packSize: 2})
	g.Join("host", "alice", &fakeConn{})
	g.Join("p2", "bob", &fakeConn{})

	st := g.GetStatus()
	if st.DidGameStart || len(st.Players) != 2 || st.Players[1].SeatNumber != 1 {
		t.Fatalf("unexpected status: %+v", st)
	}

	if err := g.Start(StartOptions{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Drive the single round to completion: 2 players x 2-card packs.
	for g.IsInProgress() {
		progressed := false
		for _, p := range g.players {
			if h, ok := p.(*Human); ok && len(h.packs) > 0 {
				g.Pick(h, 0)
				progressed = true
				break
			}
		}
		if !progressed {
			t.Fatalf("draft stalled: round=%d packCount=%d", g.round, g.packCount)
		}
	}

	seat := 0
	decks := g.GetDecks(DeckSelector{Seat: &seat})
	if len(decks) != 1 || len(decks[0].Picks[1]) != 2 {
		t.Fatalf("seat deck: %+v", decks)
	}
	decks = g.GetDecks(DeckSelector{PlayerID: "p2"})
	if len(decks) != 1 || decks[0].ID != "p2" {
		t.Fatalf("id deck: %+v", decks)
	}
	if got := g.GetDecks(DeckSelector{}); len(got) != 2 {
		t.Fatalf("all decks: %+v", got)
	}
	if got := g.GetDecks(DeckSelector{PlayerID: "ghost"}); got != nil {
		t.Fatalf("unknown id must return nil, got %+v", got)
	}
}
