package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/vibeflow/internal/app/playback"
	"github.com/osa030/vibeflow/internal/domain/track"
)

type recordingStream struct {
	mu   sync.Mutex
	got  []*Notification
	fail bool
}

func (s *recordingStream) Send(n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("stream closed")
	}
	s.got = append(s.got, n)
	return nil
}

func (s *recordingStream) received() []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Notification(nil), s.got...)
}

func drain(sub *Subscription) []*Notification {
	var got []*Notification
	for {
		select {
		case n, ok := <-sub.Notifications():
			if !ok {
				return got
			}
			got = append(got, n)
		default:
			return got
		}
	}
}

func TestManager_Broadcast(t *testing.T) {
	m := NewManager()
	a := m.Subscribe()
	b := m.Subscribe()
	require.Equal(t, 2, m.SubscriberCount())
	assert.Less(t, a.InitialSequenceNo(), b.InitialSequenceNo())

	m.Broadcast(&Notification{Type: "track_changed"})
	m.Broadcast(&Notification{Type: "state_changed"})

	for _, sub := range []*Subscription{a, b} {
		got := drain(sub)
		require.Len(t, got, 2)
		assert.Greater(t, got[0].SequenceNo, sub.InitialSequenceNo())
		assert.Greater(t, got[1].SequenceNo, got[0].SequenceNo)
	}

	m.Unsubscribe(b.ID())
	m.Broadcast(&Notification{Type: "seeked"})
	assert.Len(t, drain(a), 1)
	_, open := <-b.Notifications()
	assert.False(t, open, "unsubscribe closes the channel")
}

func TestManager_DropsSlowSubscriber(t *testing.T) {
	m := NewManager()
	slow := m.Subscribe()
	fast := m.Subscribe()

	for i := 0; i < subscriberBuffer; i++ {
		m.Broadcast(&Notification{Type: "queue_changed"})
		drain(fast)
	}
	require.Equal(t, 2, m.SubscriberCount())

	m.Broadcast(&Notification{Type: "queue_changed"})
	assert.Equal(t, 1, m.SubscriberCount())
	assert.Len(t, drain(fast), 1)

	err := m.Forward(context.Background(), slow, &recordingStream{})
	assert.ErrorIs(t, err, ErrDropped)
}

func TestManager_Forward(t *testing.T) {
	m := NewManager()
	sub := m.Subscribe()
	stream := &recordingStream{}

	done := make(chan error, 1)
	go func() { done <- m.Forward(context.Background(), sub, stream) }()

	m.Broadcast(&Notification{Type: "notice", Message: "hello"})
	require.Eventually(t, func() bool { return len(stream.received()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "hello", stream.received()[0].Message)

	m.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("forward did not return after close")
	}
	assert.Zero(t, m.SubscriberCount())
}

func TestManager_ForwardStopsOnSendError(t *testing.T) {
	m := NewManager()
	sub := m.Subscribe()

	m.Broadcast(&Notification{Type: "notice"})
	err := m.Forward(context.Background(), sub, &recordingStream{fail: true})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDropped)
}

func TestManager_ForwardStopsOnContext(t *testing.T) {
	m := NewManager()
	sub := m.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, m.Forward(ctx, sub, &recordingStream{}))
	m.Unsubscribe(sub.ID())
	m.Unsubscribe(sub.ID())
	assert.Zero(t, m.SubscriberCount())
}

func TestFromEvent(t *testing.T) {
	tr := &track.Track{ID: "track1"}
	n := FromEvent(playback.Event{
		Type:     playback.EventTrackChanged,
		Track:    tr,
		Snapshot: playback.Snapshot{CurrentIndex: 2, State: playback.StatePlaying},
	})

	assert.Equal(t, "track_changed", n.Type)
	assert.Same(t, tr, n.Track)
	assert.Equal(t, 2, n.Snapshot.CurrentIndex)
	assert.False(t, n.Time.IsZero())
}
