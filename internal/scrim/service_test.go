package scrim_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/scrimhub/internal/models"
	"github.com/thereayou/scrimhub/internal/scrim"
	"gorm.io/gorm"
)

type fakeStore struct {
	nextID  uint
	scrims  map[uint]*models.Scrim
	players map[uint][]models.ScrimPlayer
	users   map[uuid.UUID]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		scrims:  make(map[uint]*models.Scrim),
		players: make(map[uint][]models.ScrimPlayer),
		users:   make(map[uuid.UUID]string),
	}
}

func (f *fakeStore) CreateScrim(s *models.Scrim) error {
	f.nextID++
	s.ID = f.nextID
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	stored := *s
	f.scrims[s.ID] = &stored
	return nil
}

func (f *fakeStore) GetScrim(id uint) (*models.Scrim, error) {
	s, ok := f.scrims[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStore) GetActiveScrims() ([]models.Scrim, error) {
	var out []models.Scrim
	for id := uint(1); id <= f.nextID; id++ {
		s, ok := f.scrims[id]
		if !ok {
			continue
		}
		if s.IsUpcoming() || s.Status == models.StatusActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateScrimStatus(id uint, status string) error {
	s, ok := f.scrims[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	return nil
}

func (f *fakeStore) UpdateScrimChannels(id uint, category, team1, team2 uuid.UUID) error {
	s, ok := f.scrims[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.CategoryID = &category
	s.Team1ChannelID = &team1
	s.Team2ChannelID = &team2
	return nil
}

func (f *fakeStore) AddScrimPlayer(p *models.ScrimPlayer) error {
	s, ok := f.scrims[p.ScrimID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.players[p.ScrimID] = append(f.players[p.ScrimID], *p)
	s.PlayerCount++
	return nil
}

func (f *fakeStore) RemoveScrimPlayer(scrimID uint, playerID uuid.UUID) error {
	s, ok := f.scrims[scrimID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	players := f.players[scrimID]
	for i, p := range players {
		if p.PlayerID == playerID {
			f.players[scrimID] = append(players[:i], players[i+1:]...)
			s.PlayerCount--
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeStore) GetScrimPlayers(scrimID uint) ([]models.ScrimPlayer, error) {
	return append([]models.ScrimPlayer(nil), f.players[scrimID]...), nil
}

func (f *fakeStore) IsPlayerInScrim(scrimID uint, playerID uuid.UUID) (bool, error) {
	for _, p := range f.players[scrimID] {
		if p.PlayerID == playerID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetScrimsByPlayer(playerID uuid.UUID) ([]models.ScrimPlayer, error) {
	var out []models.ScrimPlayer
	for id := uint(1); id <= f.nextID; id++ {
		for _, p := range f.players[id] {
			if p.PlayerID == playerID {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) SetPlayerTeam(scrimID uint, playerID uuid.UUID, team int) error {
	players := f.players[scrimID]
	for i := range players {
		if players[i].PlayerID == playerID {
			players[i].Team = team
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeStore) DeleteOldScrims(cutoff time.Time) (int64, error) {
	var deleted int64
	for id, s := range f.scrims {
		if s.CreatedAt.Before(cutoff) {
			delete(f.scrims, id)
			delete(f.players, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) GetUsername(id uuid.UUID) (string, error) {
	name, ok := f.users[id]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return name, nil
}

type fakeChannels struct {
	waiting []uuid.UUID

	createCalls  int
	failOnCreate int // номер вызова create, который падает; 0 значит без отказов

	created  []uuid.UUID
	deleted  []uuid.UUID
	children map[uuid.UUID][]uuid.UUID
	moves    map[uuid.UUID]uuid.UUID
}

func newFakeChannels() *fakeChannels {
	return &fakeChannels{
		children: make(map[uuid.UUID][]uuid.UUID),
		moves:    make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeChannels) create() (uuid.UUID, error) {
	f.createCalls++
	if f.failOnCreate != 0 && f.createCalls >= f.failOnCreate {
		return uuid.Nil, fmt.Errorf("channel backend unavailable")
	}
	ref := uuid.New()
	f.created = append(f.created, ref)
	return ref, nil
}

func (f *fakeChannels) CreateCategory(_ context.Context, _ string) (uuid.UUID, error) {
	return f.create()
}

func (f *fakeChannels) CreateChannel(_ context.Context, _ string, category uuid.UUID) (uuid.UUID, error) {
	ref, err := f.create()
	if err != nil {
		return uuid.Nil, err
	}
	f.children[category] = append(f.children[category], ref)
	return ref, nil
}

func (f *fakeChannels) Delete(_ context.Context, ref uuid.UUID) error {
	f.deleted = append(f.deleted, ref)
	f.deleted = append(f.deleted, f.children[ref]...)
	delete(f.children, ref)
	return nil
}

func (f *fakeChannels) MoveMember(_ context.Context, userID, channel uuid.UUID) error {
	f.moves[userID] = channel
	return nil
}

func (f *fakeChannels) WaitingRoomMembers(_ context.Context) ([]uuid.UUID, error) {
	return f.waiting, nil
}

type fakeNotifier struct {
	delivered []uuid.UUID
	fail      map[uuid.UUID]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{fail: make(map[uuid.UUID]bool)}
}

func (f *fakeNotifier) Notify(userID uuid.UUID, _ string) error {
	if f.fail[userID] {
		return fmt.Errorf("user unreachable")
	}
	f.delivered = append(f.delivered, userID)
	return nil
}

type fixture struct {
	svc      *scrim.Service
	store    *fakeStore
	channels *fakeChannels
	notifier *fakeNotifier
}

func newFixture() *fixture {
	store := newFakeStore()
	channels := newFakeChannels()
	notifier := newFakeNotifier()
	rng := rand.New(rand.NewSource(1))
	return &fixture{
		svc:      scrim.NewService(store, channels, notifier, rng, 30),
		store:    store,
		channels: channels,
		notifier: notifier,
	}
}

func newActor(name string) scrim.Actor {
	return scrim.Actor{ID: uuid.New(), Username: name}
}

func newAdmin(name string) scrim.Actor {
	return scrim.Actor{ID: uuid.New(), Username: name, Roles: []string{models.RoleAdmin}}
}

func futureTime() string {
	return time.Now().Add(48 * time.Hour).Format("2006-01-02 15:04")
}

// assertCountInvariant: player_count всегда равен числу строк игроков
func assertCountInvariant(t *testing.T, store *fakeStore) {
	t.Helper()
	for id, s := range store.scrims {
		assert.Equal(t, len(store.players[id]), s.PlayerCount, "scrim %d player_count", id)
	}
}

func createScrim(t *testing.T, f *fixture, creator scrim.Actor, maxPlayers int) *models.Scrim {
	t.Helper()
	created, err := f.svc.Create(creator, "Evening scrim", "5v5", futureTime(), maxPlayers)
	require.NoError(t, err)
	return created
}

func TestCreateValidation(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")

	for _, maxPlayers := range []int{0, 1, 3, 5} {
		_, err := f.svc.Create(creator, "bad", "5v5", futureTime(), maxPlayers)
		assert.ErrorIs(t, err, scrim.ErrInvalidMaxPlayers, "max_players=%d", maxPlayers)
	}

	for _, maxPlayers := range []int{2, 4, 6} {
		_, err := f.svc.Create(creator, "ok", "5v5", futureTime(), maxPlayers)
		assert.NoError(t, err, "max_players=%d", maxPlayers)
	}

	_, err := f.svc.Create(creator, "past", "5v5", "2020-01-01 12:00", 4)
	assert.ErrorIs(t, err, scrim.ErrTimeInPast)

	for _, badTime := range []string{"tomorrow", "2025-13-01 12:00", "2025-01-01", "01-01-2025 12:00"} {
		_, err := f.svc.Create(creator, "bad time", "5v5", badTime, 4)
		assert.ErrorIs(t, err, scrim.ErrInvalidTimeFormat, "time=%q", badTime)
	}
}

func TestJoinFillsScrim(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")
	created := createScrim(t, f, creator, 4)

	actors := []scrim.Actor{newActor("p1"), newActor("p2"), newActor("p3"), newActor("p4")}
	for i, a := range actors {
		count, max, err := f.svc.Join(created.ID, a)
		require.NoError(t, err)
		assert.Equal(t, i+1, count)
		assert.Equal(t, 4, max)
		assertCountInvariant(t, f.store)
	}

	stored, err := f.store.GetScrim(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFull, stored.Status)

	_, _, err = f.svc.Join(created.ID, newActor("late"))
	assert.ErrorIs(t, err, scrim.ErrScrimFull)

	_, _, err = f.svc.Join(created.ID, actors[0])
	assert.ErrorIs(t, err, scrim.ErrAlreadyJoined)

	assertCountInvariant(t, f.store)
}

func TestJoinErrors(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")

	_, _, err := f.svc.Join(42, newActor("p1"))
	assert.ErrorIs(t, err, scrim.ErrNotFound)

	created := createScrim(t, f, creator, 4)
	_, _, err = f.svc.Cancel(context.Background(), created.ID, creator)
	require.NoError(t, err)

	_, _, err = f.svc.Join(created.ID, newActor("p1"))
	assert.ErrorIs(t, err, scrim.ErrInvalidState)
}

func TestLeaveRevertsFullToOpen(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")
	created := createScrim(t, f, creator, 4)

	actors := []scrim.Actor{newActor("p1"), newActor("p2"), newActor("p3"), newActor("p4")}
	for _, a := range actors {
		_, _, err := f.svc.Join(created.ID, a)
		require.NoError(t, err)
	}

	stored, _ := f.store.GetScrim(created.ID)
	require.Equal(t, models.StatusFull, stored.Status)

	// Уход из full всегда возвращает open, без пересчета
	require.NoError(t, f.svc.Leave(created.ID, actors[0]))

	stored, _ = f.store.GetScrim(created.ID)
	assert.Equal(t, models.StatusOpen, stored.Status)
	assert.Equal(t, 3, stored.PlayerCount)
	assertCountInvariant(t, f.store)

	err := f.svc.Leave(created.ID, newActor("stranger"))
	assert.ErrorIs(t, err, scrim.ErrNotRegistered)

	err = f.svc.Leave(42, actors[1])
	assert.ErrorIs(t, err, scrim.ErrNotFound)
}

func TestStartSplitsTeams(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")
	created := createScrim(t, f, creator, 4)

	actors := []scrim.Actor{newActor("p1"), newActor("p2"), newActor("p3")}
	for _, a := range actors {
		_, _, err := f.svc.Join(created.ID, a)
		require.NoError(t, err)
	}

	// В зале ожидания все трое плюс незарегистрированный посторонний
	for _, a := range actors {
		f.channels.waiting = append(f.channels.waiting, a.ID)
	}
	f.channels.waiting = append(f.channels.waiting, uuid.New())

	result, err := f.svc.Start(context.Background(), created.ID, creator)
	require.NoError(t, err)

	sizes := []int{len(result.Team1), len(result.Team2)}
	assert.Equal(t, 3, sizes[0]+sizes[1])
	assert.LessOrEqual(t, abs(sizes[0]-sizes[1]), 1)

	stored, _ := f.store.GetScrim(created.ID)
	assert.Equal(t, models.StatusActive, stored.Status)
	require.NotNil(t, stored.CategoryID)
	require.NotNil(t, stored.Team1ChannelID)
	require.NotNil(t, stored.Team2ChannelID)

	players, _ := f.store.GetScrimPlayers(created.ID)
	for _, p := range players {
		assert.NotEqual(t, models.TeamUnassigned, p.Team, "player %s", p.PlayerName)
	}

	assert.Len(t, f.channels.moves, 3)
}

func TestStartInsufficientPlayers(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")
	created := createScrim(t, f, creator, 4)

	a := newActor("p1")
	_, _, err := f.svc.Join(created.ID, a)
	require.NoError(t, err)
	f.channels.waiting = []uuid.UUID{a.ID}

	_, err = f.svc.Start(context.Background(), created.ID, creator)
	assert.ErrorIs(t, err, scrim.ErrInsufficientPlayers)

	stored, _ := f.store.GetScrim(created.ID)
	assert.Equal(t, models.StatusOpen, stored.Status)
	assert.Zero(t, f.channels.createCalls)
}

func TestStartAuthorization(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")
	created := createScrim(t, f, creator, 4)

	_, err := f.svc.Start(context.Background(), created.ID, newActor("random"))
	assert.ErrorIs(t, err, scrim.ErrUnauthorized)

	// Администратор без роли создателя может стартовать
	actors := []scrim.Actor{newActor("p1"), newActor("p2")}
	for _, a := range actors {
		_, _, err := f.svc.Join(created.ID, a)
		require.NoError(t, err)
		f.channels.waiting = append(f.channels.waiting, a.ID)
	}

	_, err = f.svc.Start(context.Background(), created.ID, newAdmin("mod"))
	assert.NoError(t, err)
}

func TestStartProvisioningFailureLeavesScrimUntouched(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")
	created := createScrim(t, f, creator, 2)

	actors := []scrim.Actor{newActor("p1"), newActor("p2")}
	for _, a := range actors {
		_, _, err := f.svc.Join(created.ID, a)
		require.NoError(t, err)
		f.channels.waiting = append(f.channels.waiting, a.ID)
	}

	// Категория создается, первый командный канал падает
	f.channels.failOnCreate = 2

	_, err := f.svc.Start(context.Background(), created.ID, creator)
	assert.ErrorIs(t, err, scrim.ErrProvisioning)

	stored, _ := f.store.GetScrim(created.ID)
	assert.Equal(t, models.StatusFull, stored.Status)
	assert.Nil(t, stored.CategoryID)

	// Частично созданная категория подчищена
	require.Len(t, f.channels.created, 1)
	assert.Contains(t, f.channels.deleted, f.channels.created[0])

	players, _ := f.store.GetScrimPlayers(created.ID)
	for _, p := range players {
		assert.Equal(t, models.TeamUnassigned, p.Team)
	}
}

func TestCancelNotifiesPlayers(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")
	created := createScrim(t, f, creator, 4)

	actors := []scrim.Actor{newActor("p1"), newActor("p2"), newActor("p3")}
	for _, a := range actors {
		_, _, err := f.svc.Join(created.ID, a)
		require.NoError(t, err)
	}

	// Один игрок недоступен, его отказ проглатывается
	f.notifier.fail[actors[1].ID] = true

	notified, total, err := f.svc.Cancel(context.Background(), created.ID, creator)
	require.NoError(t, err)
	assert.Equal(t, 2, notified)
	assert.Equal(t, 3, total)

	stored, _ := f.store.GetScrim(created.ID)
	assert.Equal(t, models.StatusCancelled, stored.Status)
}

func TestCancelActiveIsInvalid(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")
	created := createScrim(t, f, creator, 4)

	actors := []scrim.Actor{newActor("p1"), newActor("p2")}
	for _, a := range actors {
		_, _, err := f.svc.Join(created.ID, a)
		require.NoError(t, err)
		f.channels.waiting = append(f.channels.waiting, a.ID)
	}

	_, err := f.svc.Start(context.Background(), created.ID, creator)
	require.NoError(t, err)

	_, _, err = f.svc.Cancel(context.Background(), created.ID, creator)
	assert.ErrorIs(t, err, scrim.ErrInvalidState)
}

func TestEndReleasesChannelsAndReportsTeams(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")
	created := createScrim(t, f, creator, 4)

	actors := []scrim.Actor{newActor("p1"), newActor("p2"), newActor("p3")}
	for _, a := range actors {
		_, _, err := f.svc.Join(created.ID, a)
		require.NoError(t, err)
		f.channels.waiting = append(f.channels.waiting, a.ID)
	}

	_, err := f.svc.Start(context.Background(), created.ID, creator)
	require.NoError(t, err)

	stored, _ := f.store.GetScrim(created.ID)
	category := *stored.CategoryID

	result, err := f.svc.End(context.Background(), created.ID, creator)
	require.NoError(t, err)

	assert.Equal(t, 3, len(result.Team1Names)+len(result.Team2Names))
	assert.Contains(t, f.channels.deleted, category)

	stored, _ = f.store.GetScrim(created.ID)
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestEndWithoutStart(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")
	created := createScrim(t, f, creator, 4)

	result, err := f.svc.End(context.Background(), created.ID, creator)
	require.NoError(t, err)
	assert.Empty(t, result.Team1Names)
	assert.Empty(t, result.Team2Names)

	stored, _ := f.store.GetScrim(created.ID)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Empty(t, f.channels.deleted)
}

func TestMessagePlayersCreatorOnly(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")
	created := createScrim(t, f, creator, 4)

	a := newActor("p1")
	_, _, err := f.svc.Join(created.ID, a)
	require.NoError(t, err)

	// Даже администратор без роли создателя не может рассылать
	_, _, err = f.svc.MessagePlayers(created.ID, newAdmin("mod"), "see you at 8pm")
	assert.ErrorIs(t, err, scrim.ErrUnauthorized)

	sent, total, err := f.svc.MessagePlayers(created.ID, creator, "see you at 8pm")
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, total)
}

func TestPurgeOldScrims(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")

	old := createScrim(t, f, creator, 4)
	fresh := createScrim(t, f, creator, 4)

	a := newActor("p1")
	_, _, err := f.svc.Join(old.ID, a)
	require.NoError(t, err)

	f.store.scrims[old.ID].CreatedAt = time.Now().AddDate(0, 0, -31)
	f.store.scrims[fresh.ID].CreatedAt = time.Now().AddDate(0, 0, -29)

	_, err = f.svc.PurgeOldScrims(newActor("member"))
	assert.ErrorIs(t, err, scrim.ErrUnauthorized)

	deleted, err := f.svc.PurgeOldScrims(newAdmin("mod"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = f.svc.Info(old.ID)
	assert.ErrorIs(t, err, scrim.ErrNotFound)
	assert.Empty(t, f.store.players[old.ID])

	_, err = f.svc.Info(fresh.ID)
	assert.NoError(t, err)
}

func TestInfoResolvesCreatorName(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")
	f.store.users[creator.ID] = "creator"
	created := createScrim(t, f, creator, 4)

	info, err := f.svc.Info(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "creator", info.CreatorName)

	// Для неизвестного создателя используется фоллбэк на id
	other := createScrim(t, f, newActor("ghost"), 4)
	info, err = f.svc.Info(other.ID)
	require.NoError(t, err)
	assert.Contains(t, info.CreatorName, "User ")
}

func TestPlayerHistory(t *testing.T) {
	f := newFixture()
	creator := newActor("creator")
	first := createScrim(t, f, creator, 4)
	second := createScrim(t, f, creator, 4)

	a := newActor("p1")
	_, _, err := f.svc.Join(first.ID, a)
	require.NoError(t, err)
	_, _, err = f.svc.Join(second.ID, a)
	require.NoError(t, err)

	entries, err := f.svc.PlayerHistory(a.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
