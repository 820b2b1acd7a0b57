package scrim

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/scrimhub/internal/models"
	"gorm.io/gorm"
)

const scheduleLayout = "2006-01-02 15:04"

// Service управляет жизненным циклом скримов: open → full → active → completed,
// cancelled достижим из open и full. Все мутации одного скрима
// сериализуются через mutex по его id.
type Service struct {
	store    Store
	channels ChannelProvider
	notifier Notifier

	rng   *rand.Rand
	rngMu sync.Mutex

	retentionDays int

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewService(store Store, channels ChannelProvider, notifier Notifier, rng *rand.Rand, retentionDays int) *Service {
	return &Service{
		store:         store,
		channels:      channels,
		notifier:      notifier,
		rng:           rng,
		retentionDays: retentionDays,
		locks:         make(map[uint]*sync.Mutex),
	}
}

func (s *Service) lockScrim(id uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func (s *Service) getScrim(id uint) (*models.Scrim, error) {
	scrim, err := s.store.GetScrim(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return scrim, nil
}

// Create создает новый скрим в статусе open
func (s *Service) Create(actor Actor, title, gameMode, timeStr string, maxPlayers int) (*models.Scrim, error) {
	scheduled, err := time.ParseInLocation(scheduleLayout, timeStr, time.Local)
	if err != nil {
		return nil, ErrInvalidTimeFormat
	}
	if !scheduled.After(time.Now()) {
		return nil, ErrTimeInPast
	}
	if maxPlayers < 2 || maxPlayers%2 != 0 {
		return nil, ErrInvalidMaxPlayers
	}

	scrim := &models.Scrim{
		Title:         title,
		GameMode:      gameMode,
		MaxPlayers:    maxPlayers,
		ScheduledTime: scheduled,
		CreatorID:     actor.ID,
		Status:        models.StatusOpen,
	}

	if err := s.store.CreateScrim(scrim); err != nil {
		return nil, err
	}

	return scrim, nil
}

// Join регистрирует игрока; при достижении max_players скрим становится full.
// Возвращает количество игроков после входа и лимит.
func (s *Service) Join(scrimID uint, actor Actor) (int, int, error) {
	lock := s.lockScrim(scrimID)
	lock.Lock()
	defer lock.Unlock()

	scrim, err := s.getScrim(scrimID)
	if err != nil {
		return 0, 0, err
	}

	if !scrim.IsUpcoming() {
		return 0, 0, fmt.Errorf("%w: %s", ErrInvalidState, scrim.Status)
	}

	joined, err := s.store.IsPlayerInScrim(scrimID, actor.ID)
	if err != nil {
		return 0, 0, err
	}
	if joined {
		return 0, 0, ErrAlreadyJoined
	}

	if scrim.Status == models.StatusFull {
		return 0, 0, ErrScrimFull
	}

	player := &models.ScrimPlayer{
		ScrimID:    scrimID,
		PlayerID:   actor.ID,
		PlayerName: actor.Username,
		Team:       models.TeamUnassigned,
		JoinedAt:   time.Now(),
	}
	if err := s.store.AddScrimPlayer(player); err != nil {
		return 0, 0, err
	}

	count := scrim.PlayerCount + 1
	if count == scrim.MaxPlayers {
		if err := s.store.UpdateScrimStatus(scrimID, models.StatusFull); err != nil {
			return 0, 0, err
		}
	}

	return count, scrim.MaxPlayers, nil
}

// Leave убирает игрока. Уход из full всегда возвращает статус в open
// без пересчета количества.
func (s *Service) Leave(scrimID uint, actor Actor) error {
	lock := s.lockScrim(scrimID)
	lock.Lock()
	defer lock.Unlock()

	scrim, err := s.getScrim(scrimID)
	if err != nil {
		return err
	}

	joined, err := s.store.IsPlayerInScrim(scrimID, actor.ID)
	if err != nil {
		return err
	}
	if !joined {
		return ErrNotRegistered
	}

	if err := s.store.RemoveScrimPlayer(scrimID, actor.ID); err != nil {
		return err
	}

	if scrim.Status == models.StatusFull {
		return s.store.UpdateScrimStatus(scrimID, models.StatusOpen)
	}

	return nil
}

// StartResult содержит составы команд после старта
type StartResult struct {
	Team1 []models.ScrimPlayer
	Team2 []models.ScrimPlayer
}

// Start собирает зарегистрированных игроков из зала ожидания, создает
// категорию с двумя голосовыми каналами, делит игроков на команды,
// разводит их по каналам и переводит скрим в active.
// Ошибка создания каналов прерывает старт без изменения скрима.
func (s *Service) Start(ctx context.Context, scrimID uint, actor Actor) (*StartResult, error) {
	lock := s.lockScrim(scrimID)
	lock.Lock()
	defer lock.Unlock()

	scrim, err := s.getScrim(scrimID)
	if err != nil {
		return nil, err
	}

	if !actor.canManage(scrim) {
		return nil, ErrUnauthorized
	}

	if !scrim.IsUpcoming() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, scrim.Status)
	}

	present, err := s.channels.WaitingRoomMembers(ctx)
	if err != nil {
		return nil, err
	}

	registered, err := s.store.GetScrimPlayers(scrimID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.ScrimPlayer, len(registered))
	for _, p := range registered {
		byID[p.PlayerID] = p
	}

	var players []models.ScrimPlayer
	for _, id := range present {
		if p, ok := byID[id]; ok {
			players = append(players, p)
		}
	}

	if len(players) < 2 {
		return nil, ErrInsufficientPlayers
	}

	category, err := s.channels.CreateCategory(ctx, fmt.Sprintf("Scrim %d", scrimID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvisioning, err)
	}

	team1Ch, err := s.channels.CreateChannel(ctx, "Team 1", category)
	if err != nil {
		// подчищаем частично созданное
		s.channels.Delete(ctx, category)
		return nil, fmt.Errorf("%w: %v", ErrProvisioning, err)
	}

	team2Ch, err := s.channels.CreateChannel(ctx, "Team 2", category)
	if err != nil {
		s.channels.Delete(ctx, category)
		return nil, fmt.Errorf("%w: %v", ErrProvisioning, err)
	}

	if err := s.store.UpdateScrimChannels(scrimID, category, team1Ch, team2Ch); err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	team1, team2 := SplitTeams(players, s.rng)
	s.rngMu.Unlock()

	for _, p := range team1 {
		if err := s.store.SetPlayerTeam(scrimID, p.PlayerID, models.Team1); err != nil {
			return nil, err
		}
		if err := s.channels.MoveMember(ctx, p.PlayerID, team1Ch); err != nil {
			log.Printf("Failed to move player %s: %v", p.PlayerID, err)
		}
	}
	for _, p := range team2 {
		if err := s.store.SetPlayerTeam(scrimID, p.PlayerID, models.Team2); err != nil {
			return nil, err
		}
		if err := s.channels.MoveMember(ctx, p.PlayerID, team2Ch); err != nil {
			log.Printf("Failed to move player %s: %v", p.PlayerID, err)
		}
	}

	if err := s.store.UpdateScrimStatus(scrimID, models.StatusActive); err != nil {
		return nil, err
	}

	return &StartResult{Team1: team1, Team2: team2}, nil
}

// Cancel отменяет скрим из open или full, освобождает каналы и
// уведомляет игроков. Возвращает количество доставленных уведомлений и общее.
func (s *Service) Cancel(ctx context.Context, scrimID uint, actor Actor) (int, int, error) {
	lock := s.lockScrim(scrimID)
	lock.Lock()
	defer lock.Unlock()

	scrim, err := s.getScrim(scrimID)
	if err != nil {
		return 0, 0, err
	}

	if !actor.canManage(scrim) {
		return 0, 0, ErrUnauthorized
	}

	if !scrim.IsUpcoming() {
		return 0, 0, fmt.Errorf("%w: %s", ErrInvalidState, scrim.Status)
	}

	s.releaseChannels(ctx, scrim)

	if err := s.store.UpdateScrimStatus(scrimID, models.StatusCancelled); err != nil {
		return 0, 0, err
	}

	players, err := s.store.GetScrimPlayers(scrimID)
	if err != nil {
		return 0, 0, err
	}

	text := fmt.Sprintf("Scrim #%d has been cancelled. You've been removed from this scrim.", scrimID)
	sent := s.notifyAll(players, text)

	return sent, len(players), nil
}

// EndResult содержит составы команд завершенного скрима
type EndResult struct {
	Team1Names []string
	Team2Names []string
}

// End завершает скрим из любого статуса; каналы освобождаются,
// если были созданы.
func (s *Service) End(ctx context.Context, scrimID uint, actor Actor) (*EndResult, error) {
	lock := s.lockScrim(scrimID)
	lock.Lock()
	defer lock.Unlock()

	scrim, err := s.getScrim(scrimID)
	if err != nil {
		return nil, err
	}

	if !actor.canManage(scrim) {
		return nil, ErrUnauthorized
	}

	s.releaseChannels(ctx, scrim)

	if err := s.store.UpdateScrimStatus(scrimID, models.StatusCompleted); err != nil {
		return nil, err
	}

	players, err := s.store.GetScrimPlayers(scrimID)
	if err != nil {
		return nil, err
	}

	result := &EndResult{}
	for _, p := range players {
		switch p.Team {
		case models.Team1:
			result.Team1Names = append(result.Team1Names, p.PlayerName)
		case models.Team2:
			result.Team2Names = append(result.Team2Names, p.PlayerName)
		}
	}

	return result, nil
}

// MessagePlayers рассылает текст всем игрокам скрима. Доступно только создателю.
func (s *Service) MessagePlayers(scrimID uint, actor Actor, text string) (int, int, error) {
	scrim, err := s.getScrim(scrimID)
	if err != nil {
		return 0, 0, err
	}

	if scrim.CreatorID != actor.ID {
		return 0, 0, ErrUnauthorized
	}

	players, err := s.store.GetScrimPlayers(scrimID)
	if err != nil {
		return 0, 0, err
	}

	sent := s.notifyAll(players, text)

	return sent, len(players), nil
}

// PurgeOldScrims удаляет скримы старше окна хранения вместе с игроками.
// Только для администраторов.
func (s *Service) PurgeOldScrims(actor Actor) (int64, error) {
	if !actor.IsAdmin() {
		return 0, ErrUnauthorized
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	return s.store.DeleteOldScrims(cutoff)
}

// ScrimInfo описывает скрим с игроками и именем создателя
type ScrimInfo struct {
	Scrim       *models.Scrim
	Players     []models.ScrimPlayer
	CreatorName string
}

func (s *Service) Info(scrimID uint) (*ScrimInfo, error) {
	scrim, err := s.getScrim(scrimID)
	if err != nil {
		return nil, err
	}

	players, err := s.store.GetScrimPlayers(scrimID)
	if err != nil {
		return nil, err
	}

	creatorName, err := s.store.GetUsername(scrim.CreatorID)
	if err != nil {
		creatorName = fmt.Sprintf("User %s", scrim.CreatorID)
	}

	return &ScrimInfo{Scrim: scrim, Players: players, CreatorName: creatorName}, nil
}

func (s *Service) ListActive() ([]models.Scrim, error) {
	return s.store.GetActiveScrims()
}

func (s *Service) PlayerHistory(playerID uuid.UUID) ([]models.ScrimPlayer, error) {
	return s.store.GetScrimsByPlayer(playerID)
}

// releaseChannels удаляет категорию скрима вместе с каналами команд.
// Ошибки удаления не прерывают операцию.
func (s *Service) releaseChannels(ctx context.Context, scrim *models.Scrim) {
	refs := []*uuid.UUID{scrim.CategoryID, scrim.Team1ChannelID, scrim.Team2ChannelID}
	for _, ref := range refs {
		if ref == nil {
			continue
		}
		if err := s.channels.Delete(ctx, *ref); err != nil {
			log.Printf("Failed to release channel %s: %v", *ref, err)
		}
	}
}

// notifyAll доставляет уведомление каждому игроку; отказы по отдельным
// получателям не всплывают, возвращается число успешных доставок.
func (s *Service) notifyAll(players []models.ScrimPlayer, text string) int {
	sent := 0
	for _, p := range players {
		if err := s.notifier.Notify(p.PlayerID, text); err != nil {
			continue
		}
		sent++
	}
	return sent
}
