package voice_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/thereayou/scrimhub/internal/voice"
)

func waitOnline(t *testing.T, hub *voice.Hub, userID uuid.UUID) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.IsOnline(userID) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("user %s never came online", userID)
}

func TestNotifyOfflineUser(t *testing.T) {
	hub := voice.NewHub()

	err := hub.Notify(uuid.New(), "scrim starting")
	assert.ErrorIs(t, err, voice.ErrUserOffline)
}

func TestIsOnlineUnknownUser(t *testing.T) {
	hub := voice.NewHub()

	assert.False(t, hub.IsOnline(uuid.New()))
	assert.Empty(t, hub.GetOnlineUsers())
}

func TestOfflineHandlerFiresOnLastDisconnect(t *testing.T) {
	hub := voice.NewHub()
	offline := make(chan uuid.UUID, 2)
	hub.SetOfflineHandler(func(userID uuid.UUID) {
		offline <- userID
	})
	go hub.Run()

	user := uuid.New()
	first := &voice.Client{ID: uuid.New(), UserID: user, Send: make(chan []byte, 1), Hub: hub}
	second := &voice.Client{ID: uuid.New(), UserID: user, Send: make(chan []byte, 1), Hub: hub}
	hub.Register(first)
	hub.Register(second)
	waitOnline(t, hub, user)

	hub.Unregister(first)
	select {
	case <-first.Send:
	case <-time.After(time.Second):
		t.Fatal("first connection was not unregistered")
	}

	assert.True(t, hub.IsOnline(user))
	select {
	case userID := <-offline:
		t.Fatalf("offline handler fired while %s still connected", userID)
	default:
	}

	hub.Unregister(second)
	select {
	case userID := <-offline:
		assert.Equal(t, user, userID)
	case <-time.After(time.Second):
		t.Fatal("offline handler was not called")
	}
	assert.False(t, hub.IsOnline(user))
}

func TestSendToUserQueueFull(t *testing.T) {
	hub := voice.NewHub()
	go hub.Run()

	user := uuid.New()
	client := &voice.Client{ID: uuid.New(), UserID: user, Send: make(chan []byte), Hub: hub}
	hub.Register(client)
	waitOnline(t, hub, user)

	// Канал без буфера и без читателя: доставить некому
	err := hub.Notify(user, "scrim starting")
	assert.ErrorIs(t, err, voice.ErrClientQueueFull)

	hub.Unregister(client)
}

func TestUnregisterAfterStopDoesNotBlock(t *testing.T) {
	hub := voice.NewHub()
	go hub.Run()
	hub.Stop()

	client := &voice.Client{ID: uuid.New(), UserID: uuid.New(), Send: make(chan []byte, 1), Hub: hub}

	done := make(chan struct{})
	go func() {
		hub.Unregister(client)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after Stop")
	}
}
