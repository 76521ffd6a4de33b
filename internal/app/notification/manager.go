// Package notification provides the notification manager for broadcasting player events.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/app/playback"
	"github.com/osa030/vibeflow/internal/domain/track"
)

// subscriberBuffer is how many notifications a subscriber may fall behind
// before it is dropped.
const subscriberBuffer = 64

// ErrDropped is returned by Forward when the subscriber fell too far behind.
var ErrDropped = errors.New("subscriber dropped: too slow")

// Notification is a player event as delivered to subscribers.
type Notification struct {
	SequenceNo uint64
	Type       string
	Message    string
	Track      *track.Track
	Snapshot   playback.Snapshot
	Time       time.Time
}

// FromEvent converts a playback event into a notification.
func FromEvent(ev playback.Event) *Notification {
	return &Notification{
		Type:     ev.Type.String(),
		Message:  ev.Message,
		Track:    ev.Track,
		Snapshot: ev.Snapshot,
		Time:     time.Now(),
	}
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Notification) error
}

// Subscription is a subscriber's queue of pending notifications.
// The channel is closed when the subscription ends.
type Subscription struct {
	id         string
	initialSeq uint64
	ch         chan *Notification
	dropped    bool
}

// ID returns the subscription ID.
func (s *Subscription) ID() string {
	return s.id
}

// InitialSequenceNo is the sequence number reserved when the subscription
// was created. Every broadcast the subscription receives has a larger one.
func (s *Subscription) InitialSequenceNo() uint64 {
	return s.initialSeq
}

// Notifications returns the channel notifications are delivered on.
func (s *Subscription) Notifications() <-chan *Notification {
	return s.ch
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.Mutex
	subscriptions map[string]*Subscription
	sequenceNo    uint64
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*Subscription),
	}
}

// Subscribe adds a new subscription.
func (m *Manager) Subscribe() *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sequenceNo++
	sub := &Subscription{
		id:         uuid.New().String(),
		initialSeq: m.sequenceNo,
		ch:         make(chan *Notification, subscriberBuffer),
	}
	m.subscriptions[sub.id] = sub
	zlog.Debug().Msgf("notification: subscribed id=%s", sub.id)
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(subscriptionID)
}

func (m *Manager) removeLocked(subscriptionID string) {
	sub, ok := m.subscriptions[subscriptionID]
	if !ok {
		return
	}
	delete(m.subscriptions, subscriptionID)
	close(sub.ch)
}

// Broadcast stamps the next sequence number on the notification and queues
// it for every subscriber. It never blocks: a subscriber whose queue is
// full is dropped.
func (m *Manager) Broadcast(notification *Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sequenceNo++
	notification.SequenceNo = m.sequenceNo

	for id, sub := range m.subscriptions {
		select {
		case sub.ch <- notification:
		default:
			zlog.Warn().Msgf("notification: dropping slow subscriber id=%s", id)
			sub.dropped = true
			m.removeLocked(id)
		}
	}
}

// Forward writes the subscription's notifications to stream until the
// context is done, the subscription ends or a send fails. It is the only
// writer to stream and returns ErrDropped when the subscriber fell behind.
func (m *Manager) Forward(ctx context.Context, sub *Subscription, stream Stream) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-sub.ch:
			if !ok {
				m.mu.Lock()
				dropped := sub.dropped
				m.mu.Unlock()
				if dropped {
					return ErrDropped
				}
				return nil
			}
			if err := stream.Send(n); err != nil {
				zlog.Debug().Msgf("notification: send failed id=%s: %v", sub.id, err)
				return errors.Wrap(err, "failed to send notification")
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscriptions)
}

// Close ends all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.subscriptions {
		m.removeLocked(id)
	}
}
