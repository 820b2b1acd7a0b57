package scrim

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/scrimhub/internal/models"
)

// Store определяет слой хранения; реализуется internal/database
type Store interface {
	CreateScrim(scrim *models.Scrim) error
	GetScrim(id uint) (*models.Scrim, error)
	GetActiveScrims() ([]models.Scrim, error)
	UpdateScrimStatus(id uint, status string) error
	UpdateScrimChannels(id uint, category, team1, team2 uuid.UUID) error

	AddScrimPlayer(player *models.ScrimPlayer) error
	RemoveScrimPlayer(scrimID uint, playerID uuid.UUID) error
	GetScrimPlayers(scrimID uint) ([]models.ScrimPlayer, error)
	IsPlayerInScrim(scrimID uint, playerID uuid.UUID) (bool, error)
	GetScrimsByPlayer(playerID uuid.UUID) ([]models.ScrimPlayer, error)
	SetPlayerTeam(scrimID uint, playerID uuid.UUID, team int) error

	DeleteOldScrims(cutoff time.Time) (int64, error)
	GetUsername(id uuid.UUID) (string, error)
}

// ChannelProvider управляет голосовыми каналами; реализуется internal/voice
type ChannelProvider interface {
	CreateCategory(ctx context.Context, name string) (uuid.UUID, error)
	CreateChannel(ctx context.Context, name string, category uuid.UUID) (uuid.UUID, error)
	Delete(ctx context.Context, ref uuid.UUID) error
	MoveMember(ctx context.Context, userID, channel uuid.UUID) error
	WaitingRoomMembers(ctx context.Context) ([]uuid.UUID, error)
}

// Notifier доставляет прямые уведомления игрокам
type Notifier interface {
	Notify(userID uuid.UUID, text string) error
}
