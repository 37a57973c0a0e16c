// Package registry owns the process-wide table of live games and the two
// periodic sweeps that police it: a 1-second pick-timeout sweep and a
// 1-minute expiry sweep.
package registry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dekkerglen/dr4ft/internal/game"
	"github.com/dekkerglen/dr4ft/pkg/types"
)

// Publisher receives lobby aggregates whenever game state changes.
type Publisher interface {
	PublishCounts(c types.Counts)
	PublishRooms(rooms []types.RoomInfo)
}

// Registry is the only authoritative mapping from game id to game. Entries
// are added by Create and removed by a game's own Kill (through the
// Lifecycle hook) or the expiry sweep.
type Registry struct {
	mu    sync.RWMutex
	games map[string]*game.Game

	// notify coalesces announce requests; Run drains it. Games call
	// Announce while holding their own lock, so publication has to happen
	// on this side of the fence.
	notify chan struct{}

	logger    *zap.Logger
	publisher Publisher
	supplier  game.PoolSupplier
	archiver  game.Archiver
}

func New(logger *zap.Logger, publisher Publisher, supplier game.PoolSupplier, archiver game.Archiver) *Registry {
	return &Registry{
		games:     make(map[string]*game.Game),
		notify:    make(chan struct{}, 1),
		logger:    logger,
		publisher: publisher,
		supplier:  supplier,
		archiver:  archiver,
	}
}

// Create validates params, registers the new game and publishes updated
// lobby aggregates.
func (r *Registry) Create(params game.Params) (*game.Game, error) {
	g, err := game.New(params, r.logger, r.supplier, r.archiver, r)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.games[g.ID()] = g
	r.mu.Unlock()

	r.logger.Info("game created",
		zap.String("game_id", g.ID()),
		zap.String("type", string(g.Type())),
		zap.Int("seats", g.Seats()))
	r.Publish()
	return g, nil
}

func (r *Registry) Get(id string) (*game.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	return g, ok
}

// Deregister implements game.Lifecycle; games call it on kill and on
// failed starts.
func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	delete(r.games, id)
	r.mu.Unlock()
}

// Announce implements game.Lifecycle. It only pokes Run; actual
// publication never happens under a game's lock.
func (r *Registry) Announce() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *Registry) snapshot() []*game.Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*game.Game, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, g)
	}
	return out
}

// NumGames counts every registered game, abandoned ones included.
func (r *Registry) NumGames() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// NumActiveGames counts games with at least one connected human.
func (r *Registry) NumActiveGames() int {
	n := 0
	for _, g := range r.snapshot() {
		if g.IsActive() {
			n++
		}
	}
	return n
}

// TotalPlayers counts connected humans across active games.
func (r *Registry) TotalPlayers() int {
	n := 0
	for _, g := range r.snapshot() {
		if g.IsActive() {
			n += g.ConnectedHumans()
		}
	}
	return n
}

// Publish pushes current aggregate counts and the open-room listing.
func (r *Registry) Publish() {
	games := r.snapshot()

	counts := types.Counts{NumGames: len(games)}
	rooms := make([]types.RoomInfo, 0)
	for _, g := range games {
		if g.IsActive() {
			counts.NumActiveGames++
			counts.NumPlayers += g.ConnectedHumans()
		}
		if g.Joinable() {
			l := g.RoomListing()
			rooms = append(rooms, types.RoomInfo{
				ID:          l.ID,
				Title:       l.Title,
				Type:        string(l.Type),
				UsedSeats:   l.UsedSeats,
				TotalSeats:  l.TotalSeats,
				PacksInfo:   l.PacksInfo,
				TimeCreated: l.TimeCreated.UnixMilli(),
			})
		}
	}
	r.publisher.PublishCounts(counts)
	r.publisher.PublishRooms(rooms)
}

// Run drives the sweeps until ctx is canceled. Both sweeps work on a
// snapshot of the table so neither blocks registration or each other.
func (r *Registry) Run(ctx context.Context) error {
	pick := time.NewTicker(time.Second)
	defer pick.Stop()
	expiry := time.NewTicker(time.Minute)
	defer expiry.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.notify:
			r.Publish()
		case <-pick.C:
			r.SweepTimers()
		case <-expiry.C:
			r.SweepExpired(time.Now())
		}
	}
}

// SweepTimers runs one pick-timeout pass. Games that have not started are
// skipped inside TickTimers.
func (r *Registry) SweepTimers() {
	for _, g := range r.snapshot() {
		g.TickTimers()
	}
}

// SweepExpired force-kills every game whose deadline has passed.
func (r *Registry) SweepExpired(now time.Time) {
	for _, g := range r.snapshot() {
		if g.Expired(now) {
			r.logger.Info("reaping expired game", zap.String("game_id", g.ID()))
			g.Kill("game over")
		}
	}
}
