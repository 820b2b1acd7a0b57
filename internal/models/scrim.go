package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusOpen      = "open"
	StatusFull      = "full"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Scrim struct {
	ID            uint      `gorm:"primaryKey"`
	Title         string    `gorm:"not null"`
	GameMode      string    `gorm:"not null"`
	MaxPlayers    int       `gorm:"not null"`
	ScheduledTime time.Time `gorm:"not null"`
	CreatorID     uuid.UUID `gorm:"type:uuid;not null;index"`
	PlayerCount   int       `gorm:"not null;default:0"`
	Status        string    `gorm:"not null;default:'open'"`

	// Ссылки на голосовые каналы, заполняются при старте
	CategoryID     *uuid.UUID `gorm:"type:uuid"`
	Team1ChannelID *uuid.UUID `gorm:"type:uuid"`
	Team2ChannelID *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time

	Players []ScrimPlayer `gorm:"foreignKey:ScrimID;constraint:OnDelete:CASCADE"`
}

// IsUpcoming сообщает, что скрим еще не стартовал и не закрыт
func (s *Scrim) IsUpcoming() bool {
	return s.Status == StatusOpen || s.Status == StatusFull
}
