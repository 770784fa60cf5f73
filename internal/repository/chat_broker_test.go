package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodkids/site-api/internal/models"
)

func TestLocalChatBrokerDeliversPerSession(t *testing.T) {
	broker := NewLocalChatBroker(nil)
	ctx := context.Background()

	mine, cancelMine, err := broker.Subscribe(ctx, "s1")
	require.NoError(t, err)
	defer cancelMine()
	other, cancelOther, err := broker.Subscribe(ctx, "s2")
	require.NoError(t, err)
	defer cancelOther()

	require.NoError(t, broker.Publish(ctx, models.ChatMessage{ID: "m1", SessionID: "s1", Body: "hello"}))

	select {
	case msg := <-mine:
		assert.Equal(t, "m1", msg.ID)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
	select {
	case msg := <-other:
		t.Fatalf("unexpected message %s", msg.ID)
	default:
	}
}

func TestLocalChatBrokerClosesOnContextEnd(t *testing.T) {
	broker := NewLocalChatBroker(nil)
	ctx, cancel := context.WithCancel(context.Background())

	ch, _, err := broker.Subscribe(ctx, "s1")
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, broker.Publish(context.Background(), models.ChatMessage{SessionID: "s1"}))
}
