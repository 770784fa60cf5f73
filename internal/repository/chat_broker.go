package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kodkids/site-api/internal/models"
)

const (
	chatChannelPrefix = "chat:session:"
	chatBufferSize    = 16
)

func chatChannel(sessionID string) string {
	return chatChannelPrefix + sessionID
}

// RedisChatBroker fans chat messages out to every API instance through Redis Pub/Sub.
type RedisChatBroker struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisChatBroker constructs the broker.
func NewRedisChatBroker(client *redis.Client, logger *zap.Logger) *RedisChatBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisChatBroker{client: client, logger: logger}
}

// Publish sends msg to the subscribers of its session.
func (b *RedisChatBroker) Publish(ctx context.Context, msg models.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal chat message: %w", err)
	}
	if err := b.client.Publish(ctx, chatChannel(msg.SessionID), payload).Err(); err != nil {
		return fmt.Errorf("publish chat message: %w", err)
	}
	return nil
}

// Subscribe streams the messages of a session until ctx ends or the returned cancel is called.
func (b *RedisChatBroker) Subscribe(ctx context.Context, sessionID string) (<-chan models.ChatMessage, func(), error) {
	pubsub := b.client.Subscribe(ctx, chatChannel(sessionID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe chat session: %w", err)
	}

	out := make(chan models.ChatMessage, chatBufferSize)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}

	go func() {
		defer close(out)
		source := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case raw, ok := <-source:
				if !ok {
					return
				}
				var msg models.ChatMessage
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					b.logger.Warn("dropping malformed chat message", zap.String("channel", raw.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- msg:
				case <-done:
					return
				case <-ctx.Done():
					cancel()
					return
				}
			}
		}
	}()
	return out, cancel, nil
}

// LocalChatBroker delivers chat messages within a single process. Used when Redis is disabled.
type LocalChatBroker struct {
	mu          sync.Mutex
	subscribers map[string]map[chan models.ChatMessage]struct{}
	logger      *zap.Logger
}

// NewLocalChatBroker constructs the broker.
func NewLocalChatBroker(logger *zap.Logger) *LocalChatBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalChatBroker{subscribers: make(map[string]map[chan models.ChatMessage]struct{}), logger: logger}
}

// Publish delivers msg to current subscribers. Slow subscribers miss messages rather than block.
func (b *LocalChatBroker) Publish(_ context.Context, msg models.ChatMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers[msg.SessionID] {
		select {
		case ch <- msg:
		default:
			b.logger.Warn("chat subscriber is full, dropping message", zap.String("session_id", msg.SessionID))
		}
	}
	return nil
}

// Subscribe streams the messages of a session until ctx ends or the returned cancel is called.
func (b *LocalChatBroker) Subscribe(ctx context.Context, sessionID string) (<-chan models.ChatMessage, func(), error) {
	ch := make(chan models.ChatMessage, chatBufferSize)
	b.mu.Lock()
	if b.subscribers[sessionID] == nil {
		b.subscribers[sessionID] = make(map[chan models.ChatMessage]struct{})
	}
	b.subscribers[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			b.mu.Lock()
			delete(b.subscribers[sessionID], ch)
			if len(b.subscribers[sessionID]) == 0 {
				delete(b.subscribers, sessionID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return ch, cancel, nil
}
