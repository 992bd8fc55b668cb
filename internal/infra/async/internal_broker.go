package async

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const defaultReceiverBuffer = 64

type BrokerTopicName string

type BrokerMessage[M any] struct {
	Event string
	Value M
	Span  trace.Span
}

type InternalBroker[M any] interface {
	Subscribe(topic BrokerTopicName) (Subscription[M], error)
	Unsubscribe(topic BrokerTopicName, subscription Subscription[M]) error
	Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage[M]) error
	Stop()
}

var _ InternalBroker[string] = (*LocalBroker[string])(nil)

var (
	ErrTopicNotFound       = errors.New("topic not found")
	ErrSubscriptorNotFound = errors.New("subscriptor not found")
	ErrBrokerStopped       = errors.New("broker stopped")
)

// NewLocalBroker fans messages out in-process. Each subscriber gets a buffered
// receiver and sees messages in publish order.
func NewLocalBroker[M any]() *LocalBroker[M] {
	return &LocalBroker[M]{
		subscriptors: make(map[BrokerTopicName][]*subscriptor[M]),
		buffer:       defaultReceiverBuffer,
	}
}

type LocalBroker[M any] struct {
	mu           sync.RWMutex
	subscriptors map[BrokerTopicName][]*subscriptor[M]
	buffer       int
	stopped      bool
}

type subscriptor[M any] struct {
	once         sync.Once
	subscription Subscription[M]
}

type Subscription[M any] struct {
	ID       string
	Receiver chan BrokerMessage[M]
}

func (b *LocalBroker[M]) Subscribe(topic BrokerTopicName) (Subscription[M], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return Subscription[M]{}, ErrBrokerStopped
	}

	subscription := Subscription[M]{
		ID:       uuid.NewString(),
		Receiver: make(chan BrokerMessage[M], b.buffer),
	}
	b.subscriptors[topic] = append(b.subscriptors[topic], &subscriptor[M]{subscription: subscription})
	return subscription, nil
}

func (b *LocalBroker[M]) Unsubscribe(topic BrokerTopicName, subscription Subscription[M]) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscriptors, ok := b.subscriptors[topic]
	if !ok {
		return ErrTopicNotFound
	}

	index := slices.IndexFunc(subscriptors, func(s *subscriptor[M]) bool { return s.subscription.ID == subscription.ID })
	if index < 0 {
		return ErrSubscriptorNotFound
	}

	subscriptors[index].safeClose()
	b.subscriptors[topic] = slices.Delete(subscriptors, index, index+1)
	return nil
}

// Publish blocks only while a subscriber's buffer is full, and gives up when ctx is done.
func (b *LocalBroker[M]) Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage[M]) error {
	msg.Span = trace.SpanFromContext(ctx)

	b.mu.RLock()
	defer b.mu.RUnlock()

	subscriptors, ok := b.subscriptors[topic]
	if !ok {
		return ErrTopicNotFound
	}

	for _, s := range subscriptors {
		select {
		case s.subscription.Receiver <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *LocalBroker[M]) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopped = true
	for topic, subscriptors := range b.subscriptors {
		for _, s := range subscriptors {
			s.safeClose()
		}
		delete(b.subscriptors, topic)
	}
}

func (s *subscriptor[M]) safeClose() {
	s.once.Do(func() {
		close(s.subscription.Receiver)
	})
}
