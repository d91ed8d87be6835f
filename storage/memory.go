package storage

import (
	"context"

	"github.com/sasha-s/go-deadlock"

	"yojiquiz/domain"
)

const subscriberBuffer = 16

type topic struct {
	subscribers map[chan domain.RoomSnapshot]struct{}
}

// MemorySnapshotStore keeps snapshots in process. It is the default store
// when no Redis address is configured.
type MemorySnapshotStore struct {
	mutex  deadlock.Mutex
	snaps  map[string]domain.RoomSnapshot
	topics map[string]*topic
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{
		snaps:  make(map[string]domain.RoomSnapshot),
		topics: make(map[string]*topic),
	}
}

// Save stores snap and publishes it. A subscriber that is not keeping up
// misses the update rather than stalling the room.
func (m *MemorySnapshotStore) Save(ctx context.Context, snap domain.RoomSnapshot) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.snaps[snap.Code] = snap
	if t, ok := m.topics[snap.Code]; ok {
		for subscriber := range t.subscribers {
			select {
			case subscriber <- snap:
			default:
			}
		}
	}
	return nil
}

func (m *MemorySnapshotStore) Load(ctx context.Context, code string) (domain.RoomSnapshot, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	snap, ok := m.snaps[code]
	if !ok {
		return domain.RoomSnapshot{}, domain.ErrNotFound
	}
	return snap, nil
}

// Delete forgets the room and closes every subscription to it.
func (m *MemorySnapshotStore) Delete(ctx context.Context, code string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.snaps, code)
	if t, ok := m.topics[code]; ok {
		for subscriber := range t.subscribers {
			close(subscriber)
		}
		delete(m.topics, code)
	}
	return nil
}

func (m *MemorySnapshotStore) Subscribe(ctx context.Context, code string) (<-chan domain.RoomSnapshot, error) {
	channel := make(chan domain.RoomSnapshot, subscriberBuffer)

	m.mutex.Lock()
	t, ok := m.topics[code]
	if !ok {
		t = &topic{subscribers: make(map[chan domain.RoomSnapshot]struct{})}
		m.topics[code] = t
	}
	t.subscribers[channel] = struct{}{}
	m.mutex.Unlock()

	go func() {
		<-ctx.Done()
		m.unsubscribe(code, t, channel)
	}()
	return channel, nil
}

func (m *MemorySnapshotStore) unsubscribe(code string, t *topic, channel chan domain.RoomSnapshot) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := t.subscribers[channel]; !ok {
		// already closed by Delete
		return
	}
	delete(t.subscribers, channel)
	close(channel)
	if len(t.subscribers) == 0 && m.topics[code] == t {
		delete(m.topics, code)
	}
}
