package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"opsconsole/internal/infra/async"
	"opsconsole/internal/infra/utils"
)

const (
	changesTopic   async.BrokerTopicName = "storage.changes"
	publishTimeout                       = time.Second
)

var _ Storage = (*Memory)(nil)

// MemoryBackend holds the values shared by every Memory handle opened from it.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
	broker *async.LocalBroker[Change]
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		values: make(map[string]string),
		broker: async.NewLocalBroker[Change](),
	}
}

// Open returns a handle with its own origin, like one browser tab.
func (b *MemoryBackend) Open() *Memory {
	return &Memory{backend: b, origin: utils.GenerateUUID()}
}

func (b *MemoryBackend) Close() {
	b.broker.Stop()
}

type Memory struct {
	backend *MemoryBackend
	origin  string
}

func (m *Memory) Origin() string {
	return m.origin
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.backend.mu.RLock()
	defer m.backend.mu.RUnlock()
	value, ok := m.backend.values[key]
	return value, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.backend.mu.Lock()
	m.backend.values[key] = value
	m.backend.mu.Unlock()
	m.publish(ctx, Change{Key: key, Value: value, Origin: m.origin})
	return nil
}

func (m *Memory) Remove(ctx context.Context, key string) error {
	m.backend.mu.Lock()
	_, existed := m.backend.values[key]
	delete(m.backend.values, key)
	m.backend.mu.Unlock()
	if existed {
		m.publish(ctx, Change{Key: key, Removed: true, Origin: m.origin})
	}
	return nil
}

func (m *Memory) Watch(ctx context.Context) (<-chan Change, error) {
	subscription, err := m.backend.broker.Subscribe(changesTopic)
	if err != nil {
		return nil, ErrStorageClosed
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		defer func() {
			go func() {
				for range subscription.Receiver {
				}
			}()
			_ = m.backend.broker.Unsubscribe(changesTopic, subscription)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-subscription.Receiver:
				if !ok {
					return
				}
				if msg.Value.Origin == m.origin {
					continue
				}
				select {
				case out <- msg.Value:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *Memory) publish(ctx context.Context, change Change) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := m.backend.broker.Publish(ctx, changesTopic, async.BrokerMessage[Change]{Event: "storage", Value: change})
	if err != nil && !errors.Is(err, async.ErrTopicNotFound) {
		slog.Error("publishing storage change", slog.String("key", change.Key), slog.String("error", err.Error()))
	}
}
