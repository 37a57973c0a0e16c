// Package archive persists finalized game results. Both implementations
// are fire-and-forget: the state machine never waits on, or hears about,
// archival failures.
package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/dekkerglen/dr4ft/internal/game"
)

// FileArchiver appends capture summaries to cap.json and writes one
// draftStats/<id>.json per exported game.
type FileArchiver struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
}

func NewFileArchiver(dir string, logger *zap.Logger) (*FileArchiver, error) {
	if err := os.MkdirAll(filepath.Join(dir, "draftStats"), 0o755); err != nil {
		return nil, err
	}
	return &FileArchiver{dir: dir, logger: logger}, nil
}

func (a *FileArchiver) AppendCaptureSummary(rec game.CaptureSummary) {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(a.dir, "cap.json"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		a.logger.Error("append capture summary", zap.Error(err), zap.String("game_id", rec.GameID))
		return
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(rec); err != nil {
		a.logger.Error("append capture summary", zap.Error(err), zap.String("game_id", rec.GameID))
	}
}

func (a *FileArchiver) ExportPickStats(stats game.PickStats) {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		a.logger.Error("export pick stats", zap.Error(err), zap.String("game_id", stats.GameID))
		return
	}
	path := filepath.Join(a.dir, "draftStats", stats.GameID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		a.logger.Error("export pick stats", zap.Error(err), zap.String("game_id", stats.GameID))
	}
}
