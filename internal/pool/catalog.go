package pool

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/google/uuid"

	"github.com/dekkerglen/dr4ft/internal/game"
)

// Catalog maps set codes to their card names. Read-only after construction,
// so it is safe to share across games.
type Catalog struct {
	sets map[string][]string
}

func NewCatalog(sets map[string][]string) *Catalog {
	return &Catalog{sets: sets}
}

// LoadCatalog reads a JSON file of the form {"SET": ["Card", ...], ...}.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	var sets map[string][]string
	if err := json.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return &Catalog{sets: sets}, nil
}

// Sets lists the known set codes in stable order.
func (c *Catalog) Sets() []string {
	out := make([]string, 0, len(c.sets))
	for code := range c.sets {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Pack draws size cards at random from a set. Sets smaller than size are
// drawn with replacement so tiny test catalogs still work.
func (c *Catalog) Pack(set string, size int) ([]game.Card, error) {
	names, ok := c.sets[set]
	if !ok || len(names) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSet, set)
	}

	pack := make([]game.Card, size)
	if len(names) >= size {
		perm := rand.Perm(len(names))
		for i := 0; i < size; i++ {
			pack[i] = game.Card{UUID: uuid.NewString(), Name: names[perm[i]], Set: set}
		}
		return pack, nil
	}
	for i := 0; i < size; i++ {
		pack[i] = game.Card{UUID: uuid.NewString(), Name: names[rand.Intn(len(names))], Set: set}
	}
	return pack, nil
}
