package hub

import (
	"context"
	"sync"

	"dms-be/internal/logger"
	"dms-be/internal/metrics"

	"go.uber.org/zap"
)

const (
	defaultInboxSize      = 1024
	defaultSubscriberSize = 64
)

type cmdKind int

const (
	cmdPublish cmdKind = iota
	cmdAttach
	cmdJoin
	cmdLeave
	cmdDrop
	cmdMembers
)

type command struct {
	kind  cmdKind
	sub   *Subscription
	topic string
	event Event
	reply chan int
}

// Hub is an in-memory topic registry owned by a single goroutine. Every
// mutation and every publish goes through one inbox, so a join issued before
// a publish is always applied first and events on a topic keep publish order.
type Hub struct {
	inbox   chan command
	done    chan struct{}
	subSize int

	// owned by Run
	topics map[string]map[*Subscription]struct{}
	joined map[*Subscription]map[string]struct{}
}

type Option func(*Hub)

func WithInboxSize(n int) Option        { return func(h *Hub) { h.inbox = make(chan command, n) } }
func WithSubscriberBuffer(n int) Option { return func(h *Hub) { h.subSize = n } }

func New(opts ...Option) *Hub {
	h := &Hub{
		inbox:   make(chan command, defaultInboxSize),
		done:    make(chan struct{}),
		subSize: defaultSubscriberSize,
		topics:  make(map[string]map[*Subscription]struct{}),
		joined:  make(map[*Subscription]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes commands until ctx is cancelled. Subscribers observe the stop
// through Subscription.Done; their channels are left open.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		metrics.HubConnections.Sub(float64(len(h.joined)))
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-h.inbox:
			h.handle(cmd)
		}
	}
}

func (h *Hub) handle(cmd command) {
	switch cmd.kind {
	case cmdPublish:
		h.fanOut(cmd.topic, cmd.event)
	case cmdAttach:
		h.joined[cmd.sub] = make(map[string]struct{})
		metrics.HubConnections.Inc()
	case cmdJoin:
		topics, ok := h.joined[cmd.sub]
		if !ok {
			return
		}
		topics[cmd.topic] = struct{}{}
		members, ok := h.topics[cmd.topic]
		if !ok {
			members = make(map[*Subscription]struct{})
			h.topics[cmd.topic] = members
		}
		members[cmd.sub] = struct{}{}
	case cmdLeave:
		h.leave(cmd.sub, cmd.topic)
	case cmdDrop:
		h.detach(cmd.sub)
	case cmdMembers:
		cmd.reply <- len(h.topics[cmd.topic])
	}
}

func (h *Hub) fanOut(topic string, ev Event) {
	msg := Message{Topic: topic, Event: ev}
	for sub := range h.topics[topic] {
		select {
		case sub.ch <- msg:
		default:
			metrics.HubDropped.WithLabelValues("slow_subscriber").Inc()
		}
	}
}

func (h *Hub) leave(sub *Subscription, topic string) {
	if topics, ok := h.joined[sub]; ok {
		delete(topics, topic)
	}
	if members, ok := h.topics[topic]; ok {
		delete(members, sub)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
}

func (h *Hub) detach(sub *Subscription) {
	topics, ok := h.joined[sub]
	if !ok {
		return
	}
	for topic := range topics {
		h.leave(sub, topic)
	}
	delete(h.joined, sub)
	close(sub.ch)
	metrics.HubConnections.Dec()
}

// Publish enqueues ev for topic without waiting. It reports false when the
// event was dropped because the hub is saturated or stopped.
func (h *Hub) Publish(topic string, ev Event) bool {
	select {
	case <-h.done:
		metrics.HubDropped.WithLabelValues("stopped").Inc()
		return false
	default:
	}

	select {
	case h.inbox <- command{kind: cmdPublish, topic: topic, event: ev}:
		metrics.HubPublished.Inc()
		return true
	default:
		metrics.HubDropped.WithLabelValues("inbox_full").Inc()
		logger.L().Warn("hub inbox full, dropping event", zap.String("topic", topic), zap.String("event", ev.Name))
		return false
	}
}

// send delivers a control command, giving up once the hub has stopped.
func (h *Hub) send(cmd command) bool {
	select {
	case h.inbox <- cmd:
		return true
	case <-h.done:
		return false
	}
}

// Connect registers a new subscriber with no topics.
func (h *Hub) Connect() *Subscription {
	sub := &Subscription{hub: h, ch: make(chan Message, h.subSize)}
	h.send(command{kind: cmdAttach, sub: sub})
	return sub
}

// Members reports how many subscribers are on topic.
func (h *Hub) Members(topic string) int {
	reply := make(chan int, 1)
	if !h.send(command{kind: cmdMembers, topic: topic, reply: reply}) {
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-h.done:
		return 0
	}
}

// Subscription is one connection's membership. Its channel is closed by the
// hub once the subscription is dropped.
type Subscription struct {
	hub       *Hub
	ch        chan Message
	closeOnce sync.Once
}

func (s *Subscription) C() <-chan Message { return s.ch }

// Done is closed when the hub stops.
func (s *Subscription) Done() <-chan struct{} { return s.hub.done }

func (s *Subscription) Join(topic string) {
	s.hub.send(command{kind: cmdJoin, sub: s, topic: topic})
}

func (s *Subscription) Leave(topic string) {
	s.hub.send(command{kind: cmdLeave, sub: s, topic: topic})
}

// Close removes the subscription from every topic it joined.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.hub.send(command{kind: cmdDrop, sub: s})
	})
}
