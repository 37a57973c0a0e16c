// Package pool builds the pack supply for a game. The only hard contract
// is shape: draft types get rounds*players packs, sealed types one pool per
// player. How cards are drawn is deliberately simple.
package pool

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/dekkerglen/dr4ft/internal/game"
)

var ErrUnknownSet = errors.New("unknown set")
var ErrCubeTooSmall = errors.New("cube list too small")

// PackSize is the card count of a booster built from a set.
const PackSize = 15

// Supplier implements game.PoolSupplier on top of a set catalog.
type Supplier struct {
	catalog *Catalog
}

func NewSupplier(catalog *Catalog) *Supplier {
	return &Supplier{catalog: catalog}
}

func (s *Supplier) BuildPool(spec game.PoolSpec) ([][]game.Card, error) {
	switch spec.Type {
	case game.TypeDraft:
		return s.draftNormal(spec)
	case game.TypeSealed:
		return s.sealedNormal(spec)
	case game.TypeCubeDraft:
		return cubeDraft(spec)
	case game.TypeCubeSealed:
		return cubeSealed(spec)
	case game.TypeChaosDraft:
		return s.chaosDraft(spec)
	case game.TypeChaosSealed:
		return s.chaosSealed(spec)
	default:
		return nil, fmt.Errorf("%w: %q", game.ErrUnknownType, spec.Type)
	}
}

// draftNormal yields one pack per player per set, ordered so the first
// round consumes the first set.
func (s *Supplier) draftNormal(spec game.PoolSpec) ([][]game.Card, error) {
	pool := make([][]game.Card, 0, len(spec.Sets)*spec.Players)
	for _, set := range spec.Sets {
		for i := 0; i < spec.Players; i++ {
			pack, err := s.catalog.Pack(set, PackSize)
			if err != nil {
				return nil, err
			}
			pool = append(pool, pack)
		}
	}
	return pool, nil
}

// sealedNormal yields one pool per player: every configured set's pack
// merged together.
func (s *Supplier) sealedNormal(spec game.PoolSpec) ([][]game.Card, error) {
	pool := make([][]game.Card, spec.Players)
	for i := 0; i < spec.Players; i++ {
		var merged []game.Card
		for _, set := range spec.Sets {
			pack, err := s.catalog.Pack(set, PackSize)
			if err != nil {
				return nil, err
			}
			merged = append(merged, pack...)
		}
		pool[i] = merged
	}
	return pool, nil
}

func cubeCards(spec game.PoolSpec, need int) ([]game.Card, error) {
	if len(spec.Cube.List) < need {
		return nil, fmt.Errorf("%w: have %d cards, need %d", ErrCubeTooSmall, len(spec.Cube.List), need)
	}
	cards := make([]game.Card, len(spec.Cube.List))
	for i, name := range spec.Cube.List {
		cards[i] = game.Card{UUID: uuid.NewString(), Name: name, Set: "cube"}
	}
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards[:need], nil
}

func cubeDraft(spec game.PoolSpec) ([][]game.Card, error) {
	packs := spec.Cube.Packs * spec.Players
	cards, err := cubeCards(spec, packs*spec.Cube.Cards)
	if err != nil {
		return nil, err
	}
	pool := make([][]game.Card, packs)
	for i := range pool {
		pool[i] = cards[i*spec.Cube.Cards : (i+1)*spec.Cube.Cards]
	}
	return pool, nil
}

func cubeSealed(spec game.PoolSpec) ([][]game.Card, error) {
	cards, err := cubeCards(spec, spec.Cube.PoolSize*spec.Players)
	if err != nil {
		return nil, err
	}
	pool := make([][]game.Card, spec.Players)
	for i := range pool {
		pool[i] = cards[i*spec.Cube.PoolSize : (i+1)*spec.Cube.PoolSize]
	}
	return pool, nil
}

func (s *Supplier) chaosDraft(spec game.PoolSpec) ([][]game.Card, error) {
	pool := make([][]game.Card, 0, spec.ChaosPacks*spec.Players)
	for r := 0; r < spec.ChaosPacks; r++ {
		for i := 0; i < spec.Players; i++ {
			pack, err := s.chaosPack(spec.TotalChaos)
			if err != nil {
				return nil, err
			}
			pool = append(pool, pack)
		}
	}
	return pool, nil
}

func (s *Supplier) chaosSealed(spec game.PoolSpec) ([][]game.Card, error) {
	pool := make([][]game.Card, spec.Players)
	for i := 0; i < spec.Players; i++ {
		var merged []game.Card
		for r := 0; r < spec.ChaosPacks; r++ {
			pack, err := s.chaosPack(spec.TotalChaos)
			if err != nil {
				return nil, err
			}
			merged = append(merged, pack...)
		}
		pool[i] = merged
	}
	return pool, nil
}

// chaosPack draws from one random set, or card-by-card across all sets
// when totalChaos is on.
func (s *Supplier) chaosPack(totalChaos bool) ([]game.Card, error) {
	sets := s.catalog.Sets()
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: empty catalog", ErrUnknownSet)
	}
	if !totalChaos {
		return s.catalog.Pack(sets[rand.Intn(len(sets))], PackSize)
	}
	pack := make([]game.Card, 0, PackSize)
	for len(pack) < PackSize {
		one, err := s.catalog.Pack(sets[rand.Intn(len(sets))], 1)
		if err != nil {
			return nil, err
		}
		pack = append(pack, one...)
	}
	return pack, nil
}
