package voice

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	channelsKey = "voice:channels"

	categoryKeyFmt = "voice:category:%s"
	membersKeyFmt  = "voice:members:%s"
	memberKeyFmt   = "voice:member:%s"
)

// Provider создает и удаляет голосовые каналы и перемещает в них
// пользователей. Реестр каналов и присутствие живут в Redis,
// события доставляются через hub.
type Provider struct {
	hub         *Hub
	rdb         *redis.Client
	waitingRoom uuid.UUID
}

func NewProvider(hub *Hub, rdb *redis.Client, waitingRoom uuid.UUID) *Provider {
	return &Provider{hub: hub, rdb: rdb, waitingRoom: waitingRoom}
}

// EnsureWaitingRoom регистрирует зал ожидания при старте процесса
func (p *Provider) EnsureWaitingRoom(ctx context.Context) error {
	return p.rdb.HSetNX(ctx, channelsKey, p.waitingRoom.String(), "Waiting Room").Err()
}

// WaitingRoomRef возвращает ссылку зала ожидания
func (p *Provider) WaitingRoomRef() uuid.UUID {
	return p.waitingRoom
}

func (p *Provider) CreateCategory(ctx context.Context, name string) (uuid.UUID, error) {
	ref := uuid.New()
	if err := p.rdb.HSet(ctx, channelsKey, ref.String(), name).Err(); err != nil {
		return uuid.Nil, err
	}

	p.hub.Broadcast(Event{Type: TypeChannelCreated, ChannelID: &ref, Timestamp: time.Now()})

	return ref, nil
}

func (p *Provider) CreateChannel(ctx context.Context, name string, category uuid.UUID) (uuid.UUID, error) {
	exists, err := p.rdb.HExists(ctx, channelsKey, category.String()).Result()
	if err != nil {
		return uuid.Nil, err
	}
	if !exists {
		return uuid.Nil, ErrChannelNotFound
	}

	ref := uuid.New()
	if err := p.rdb.HSet(ctx, channelsKey, ref.String(), name).Err(); err != nil {
		return uuid.Nil, err
	}
	if err := p.rdb.SAdd(ctx, fmt.Sprintf(categoryKeyFmt, category), ref.String()).Err(); err != nil {
		return uuid.Nil, err
	}

	p.hub.Broadcast(Event{Type: TypeChannelCreated, ChannelID: &ref, Timestamp: time.Now()})

	return ref, nil
}

// Delete удаляет канал; для категории удаляются и вложенные каналы.
// Удаление несуществующей ссылки ничего не делает.
func (p *Provider) Delete(ctx context.Context, ref uuid.UUID) error {
	exists, err := p.rdb.HExists(ctx, channelsKey, ref.String()).Result()
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	children, err := p.rdb.SMembers(ctx, fmt.Sprintf(categoryKeyFmt, ref)).Result()
	if err != nil {
		return err
	}
	for _, child := range children {
		childRef, err := uuid.Parse(child)
		if err != nil {
			continue
		}
		if err := p.deleteChannel(ctx, childRef); err != nil {
			return err
		}
	}
	if err := p.rdb.Del(ctx, fmt.Sprintf(categoryKeyFmt, ref)).Err(); err != nil {
		return err
	}

	return p.deleteChannel(ctx, ref)
}

func (p *Provider) deleteChannel(ctx context.Context, ref uuid.UUID) error {
	membersKey := fmt.Sprintf(membersKeyFmt, ref)

	members, err := p.rdb.SMembers(ctx, membersKey).Result()
	if err != nil {
		return err
	}
	for _, member := range members {
		p.rdb.Del(ctx, fmt.Sprintf(memberKeyFmt, member))
	}

	if err := p.rdb.Del(ctx, membersKey).Err(); err != nil {
		return err
	}
	if err := p.rdb.HDel(ctx, channelsKey, ref.String()).Err(); err != nil {
		return err
	}

	p.hub.Broadcast(Event{Type: TypeChannelDeleted, ChannelID: &ref, Timestamp: time.Now()})

	return nil
}

// MoveMember переносит пользователя в канал. Пользователь без активного
// соединения не перемещается.
func (p *Provider) MoveMember(ctx context.Context, userID, channel uuid.UUID) error {
	if !p.hub.IsOnline(userID) {
		return ErrUserOffline
	}

	exists, err := p.rdb.HExists(ctx, channelsKey, channel.String()).Result()
	if err != nil {
		return err
	}
	if !exists {
		return ErrChannelNotFound
	}

	memberKey := fmt.Sprintf(memberKeyFmt, userID)

	current, err := p.rdb.Get(ctx, memberKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	if current != "" {
		if err := p.rdb.SRem(ctx, fmt.Sprintf(membersKeyFmt, current), userID.String()).Err(); err != nil {
			return err
		}
	}

	if err := p.rdb.SAdd(ctx, fmt.Sprintf(membersKeyFmt, channel), userID.String()).Err(); err != nil {
		return err
	}
	if err := p.rdb.Set(ctx, memberKey, channel.String(), 0).Err(); err != nil {
		return err
	}

	p.hub.SendToUser(userID, Event{
		Type:      TypeVoiceMove,
		ChannelID: &channel,
		UserID:    userID,
		Timestamp: time.Now(),
	})

	return nil
}

// ClearMember убирает пользователя из его текущего голосового канала.
// Вызывается, когда обрывается последнее соединение пользователя.
func (p *Provider) ClearMember(ctx context.Context, userID uuid.UUID) error {
	memberKey := fmt.Sprintf(memberKeyFmt, userID)

	current, err := p.rdb.Get(ctx, memberKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}

	if err := p.rdb.SRem(ctx, fmt.Sprintf(membersKeyFmt, current), userID.String()).Err(); err != nil {
		return err
	}

	return p.rdb.Del(ctx, memberKey).Err()
}

// WaitingRoomMembers возвращает пользователей, находящихся в зале ожидания.
// Пользователи без активного соединения не учитываются.
func (p *Provider) WaitingRoomMembers(ctx context.Context) ([]uuid.UUID, error) {
	members, err := p.rdb.SMembers(ctx, fmt.Sprintf(membersKeyFmt, p.waitingRoom)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		id, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		if !p.hub.IsOnline(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// HandleVoiceJoin обрабатывает вход клиента в канал по его собственному запросу
func (p *Provider) HandleVoiceJoin(userID, channel uuid.UUID) error {
	return p.MoveMember(context.Background(), userID, channel)
}
