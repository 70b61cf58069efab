// Package relay is the fire-and-forget message channel between participants
// of a table: no acknowledgement, no retry, no ordering across subscribers.
package relay

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultBufferSize is the per-subscriber queue length used when none is
// configured.
const DefaultBufferSize = 64

// Handler processes one payload delivered on a topic.
type Handler func(ctx context.Context, payload []byte)

// Subscription is a registered handler.
type Subscription interface {
	// Unsubscribe stops delivery. Queued payloads are still drained.
	Unsubscribe()
}

// Channel publishes payloads to every subscriber of a topic.
type Channel interface {
	// Send delivers payload to the current subscribers of topic. With no
	// subscribers the payload is dropped silently.
	Send(ctx context.Context, topic string, payload []byte) error
	Subscribe(topic string, h Handler) Subscription
}

// Hub is the in-process Channel. Each subscriber owns a buffered queue drained
// by its own goroutine, so per-subscriber order is preserved and a slow
// subscriber never blocks Send. When a queue is full the payload is dropped
// for that subscriber.
type Hub struct {
	mu         sync.RWMutex
	topics     map[string]map[uint64]*subscriber
	nextID     atomic.Uint64
	bufferSize int
	logger     *zap.Logger
	wg         sync.WaitGroup
}

type subscriber struct {
	hub     *Hub
	id      uint64
	topic   string
	queue   chan []byte
	handler Handler
	once    sync.Once
}

// NewHub creates a Hub.
//
// Precondition: logger must be non-nil.
// Postcondition: bufferSize <= 0 selects DefaultBufferSize.
func NewHub(bufferSize int, logger *zap.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		topics:     make(map[string]map[uint64]*subscriber),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Send queues a copy of payload for every subscriber of topic.
//
// Postcondition: Returns ctx.Err() if ctx is done; otherwise nil, even when
// some subscriber dropped the payload.
func (h *Hub) Send(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.topics[topic] {
		msg := append([]byte(nil), payload...)
		select {
		case sub.queue <- msg:
		default:
			h.logger.Warn("relay: subscriber queue full, dropping message",
				zap.String("topic", topic),
				zap.Uint64("subscriber", sub.id),
			)
		}
	}
	return nil
}

// Subscribe registers h on topic.
//
// Postcondition: Payloads sent after Subscribe returns are delivered to h in
// send order until Unsubscribe.
func (h *Hub) Subscribe(topic string, handler Handler) Subscription {
	sub := &subscriber{
		hub:     h,
		id:      h.nextID.Add(1),
		topic:   topic,
		queue:   make(chan []byte, h.bufferSize),
		handler: handler,
	}
	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[uint64]*subscriber)
	}
	h.topics[topic][sub.id] = sub
	h.mu.Unlock()

	h.wg.Add(1)
	go sub.run()
	return sub
}

// Subscribers returns the number of live subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close unsubscribes everyone and waits for queued payloads to drain.
func (h *Hub) Close() {
	h.mu.RLock()
	var subs []*subscriber
	for _, m := range h.topics {
		for _, s := range m {
			subs = append(subs, s)
		}
	}
	h.mu.RUnlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
	h.wg.Wait()
}

func (s *subscriber) run() {
	defer s.hub.wg.Done()
	for msg := range s.queue {
		s.deliver(msg)
	}
}

func (s *subscriber) deliver(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.hub.logger.Error("relay: handler panicked",
				zap.String("topic", s.topic),
				zap.Any("panic", r),
			)
		}
	}()
	s.handler(context.Background(), msg)
}

// Unsubscribe removes the subscriber and closes its queue once.
func (s *subscriber) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.topics[s.topic], s.id)
		if len(s.hub.topics[s.topic]) == 0 {
			delete(s.hub.topics, s.topic)
		}
		close(s.queue)
		s.hub.mu.Unlock()
	})
}
