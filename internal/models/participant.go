package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TeamUnassigned = 0
	Team1          = 1
	Team2          = 2
)

type ScrimPlayer struct {
	ScrimID    uint      `gorm:"primaryKey;autoIncrement:false"`
	PlayerID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	PlayerName string    `gorm:"not null"`
	Team       int       `gorm:"not null;default:0"`
	JoinedAt   time.Time
}
