package archive

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dekkerglen/dr4ft/internal/game"
)

// GormArchiver persists results to postgres. Rows carry the full record as
// JSON; only game id and time are queryable columns.
type GormArchiver struct {
	db     *gorm.DB
	logger *zap.Logger
}

type captureRow struct {
	ID        uint   `gorm:"primaryKey"`
	GameID    string `gorm:"index"`
	CreatedAt time.Time
	Payload   []byte `gorm:"type:jsonb"`
}

func (captureRow) TableName() string { return "capture_summaries" }

type statsRow struct {
	ID        uint   `gorm:"primaryKey"`
	GameID    string `gorm:"index"`
	CreatedAt time.Time
	Payload   []byte `gorm:"type:jsonb"`
}

func (statsRow) TableName() string { return "pick_stats" }

func NewGormArchiver(dsn string, logger *zap.Logger) (*GormArchiver, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&captureRow{}, &statsRow{}); err != nil {
		return nil, err
	}
	return &GormArchiver{db: db, logger: logger}, nil
}

func (a *GormArchiver) AppendCaptureSummary(rec game.CaptureSummary) {
	payload, err := json.Marshal(rec)
	if err != nil {
		a.logger.Error("append capture summary", zap.Error(err), zap.String("game_id", rec.GameID))
		return
	}
	row := captureRow{GameID: rec.GameID, Payload: payload}
	if err := a.db.Create(&row).Error; err != nil {
		a.logger.Error("append capture summary", zap.Error(err), zap.String("game_id", rec.GameID))
	}
}

func (a *GormArchiver) ExportPickStats(stats game.PickStats) {
	payload, err := json.Marshal(stats)
	if err != nil {
		a.logger.Error("export pick stats", zap.Error(err), zap.String("game_id", stats.GameID))
		return
	}
	row := statsRow{GameID: stats.GameID, Payload: payload}
	if err := a.db.Create(&row).Error; err != nil {
		a.logger.Error("export pick stats", zap.Error(err), zap.String("game_id", stats.GameID))
	}
}
