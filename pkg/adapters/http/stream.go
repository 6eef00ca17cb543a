package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/selector/internal/logging"
	"github.com/aretw0/selector/pkg/domain"
)

// AllKeys is the topic that receives the events of every selector key.
const AllKeys = "*"

// Message is one server-sent event.
type Message struct {
	Event string
	Data  string
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Message]struct{} // topic -> set of channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan Message]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener on topic, either a selector key or AllKeys.
// The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(topic string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 10)
	if _, ok := sm.subscribers[topic]; !ok {
		sm.subscribers[topic] = make(map[chan Message]struct{})
	}
	sm.subscribers[topic][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[topic]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, topic)
				}
			}
		})
	}
}

// Broadcast delivers msg to the subscribers of key and of AllKeys.
func (sm *StreamManager) Broadcast(key string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, topic := range []string{key, AllKeys} {
		for ch := range sm.subscribers[topic] {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				sm.logger.Warn("SSE: Client buffer full, dropping message", "key", key)
			}
		}
		if key == AllKeys {
			break
		}
	}
}

// Subscribers reports how many listeners are registered on topic.
func (sm *StreamManager) Subscribers(topic string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[topic])
}

// Hooks returns lifecycle hooks that forward engine events to subscribers.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSelect: func(_ context.Context, e *domain.SelectEvent) {
			sm.publish(e.Key, e.Type, e)
		},
		OnReset: func(_ context.Context, e *domain.ResetEvent) {
			sm.publish(e.Key, e.Type, e)
		},
		OnPersistError: func(_ context.Context, e *domain.PersistErrorEvent) {
			sm.publish(e.Key, e.Type, map[string]any{
				"timestamp": e.Timestamp,
				"type":      e.Type,
				"key":       e.Key,
				"error":     e.Err.Error(),
			})
		},
	}
}

func (sm *StreamManager) publish(key string, t domain.EventType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		sm.logger.Error("SSE: Failed to encode event", "key", key, "err", err)
		return
	}
	sm.Broadcast(key, Message{Event: string(t), Data: string(data)})
}
