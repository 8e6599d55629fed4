package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketHub_BroadcastToTopic(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	subscribed := hub.NewClient("display-1", nil)
	other := hub.NewClient("display-2", nil)
	hub.Register(subscribed)
	hub.Register(other)
	hub.Subscribe(subscribed, SlideshowTopic(7))

	assert.Equal(t, 1, hub.GetTopicSubscriberCount("slideshow:7"))
	assert.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.BroadcastToTopic(SlideshowTopic(7), WSMessage{
		Type:    WSTypeSlideshowDeleted,
		Payload: SlideshowEventPayload{SlideshowID: 7},
	})

	select {
	case data := <-subscribed.Send:
		var msg struct {
			Type    string                `json:"type"`
			Payload SlideshowEventPayload `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, WSTypeSlideshowDeleted, msg.Type)
		assert.Equal(t, int64(7), msg.Payload.SlideshowID)
	case <-time.After(time.Second):
		t.Fatal("subscribed client did not receive the message")
	}

	select {
	case <-other.Send:
		t.Fatal("unsubscribed client received the message")
	case <-time.After(50 * time.Millisecond):
	}

	hub.Unsubscribe(subscribed, SlideshowTopic(7))
	assert.Zero(t, hub.GetTopicSubscriberCount(SlideshowTopic(7)))
}

func TestWebSocketHub_Unregister(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	client := hub.NewClient("display-1", nil)
	hub.Register(client)
	hub.Subscribe(client, SlideshowTopic(1))
	hub.Unregister(client)

	assert.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, hub.GetTopicSubscriberCount(SlideshowTopic(1)))

	_, open := <-client.Send
	assert.False(t, open)
}
