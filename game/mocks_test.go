package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yojiquiz/domain"
)

// --- WebsocketConnection ---

type MockWebsocketConnection struct {
	mock.Mock
}

func (m *MockWebsocketConnection) Close(errCode string) {
	m.Called(errCode)
}

func (m *MockWebsocketConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockWebsocketConnection) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockWebsocketConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

// --- SessionTokens ---

type MockSessionTokens struct {
	mock.Mock
}

func (m *MockSessionTokens) Generate(playerID, roomCode string) (string, error) {
	args := m.Called(playerID, roomCode)
	return args.String(0), args.Error(1)
}

func (m *MockSessionTokens) Verify(token string) (string, string, error) {
	args := m.Called(token)
	return args.String(0), args.String(1), args.Error(2)
}

// --- SnapshotStore ---

type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Save(ctx context.Context, snap domain.RoomSnapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *MockSnapshotStore) Load(ctx context.Context, code string) (domain.RoomSnapshot, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.RoomSnapshot), args.Error(1)
}

func (m *MockSnapshotStore) Delete(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockSnapshotStore) Subscribe(ctx context.Context, code string) (<-chan domain.RoomSnapshot, error) {
	args := m.Called(ctx, code)
	ch, _ := args.Get(0).(chan domain.RoomSnapshot)
	return ch, args.Error(1)
}

// --- ResultsRepo ---

type MockResultsRepo struct {
	mock.Mock
}

func (m *MockResultsRepo) SaveResult(ctx context.Context, result domain.SessionResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultsRepo) GetResult(ctx context.Context, code string) (domain.SessionResult, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.SessionResult), args.Error(1)
}

// --- Session ---

// recordingClient is a Session that keeps every packet it was sent.
type recordingClient struct {
	mu       sync.Mutex
	packets  []*ServerPacket
	closed   []string
	room     *RoomActor
	playerID string
	sendErr  error
}

func (c *recordingClient) Send(p *ServerPacket) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.packets = append(c.packets, p)
	return nil
}

func (c *recordingClient) SetRoom(room *RoomActor, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
	c.playerID = playerID
}

func (c *recordingClient) Unbind(room *RoomActor, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == room && c.playerID == playerID {
		c.room = nil
		c.playerID = ""
	}
}

func (c *recordingClient) Room() (*RoomActor, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room, c.playerID
}

func (c *recordingClient) Close(errCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = append(c.closed, errCode)
}

func (c *recordingClient) failSends(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

func (c *recordingClient) types() []PacketType {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]PacketType, 0, len(c.packets))
	for _, p := range c.packets {
		types = append(types, p.Type)
	}
	return types
}

func (c *recordingClient) closeCodes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.closed...)
}

// waitFor returns the first packet of type pt, waiting for it if needed.
func (c *recordingClient) waitFor(t *testing.T, pt PacketType) *ServerPacket {
	t.Helper()
	var found *ServerPacket
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, p := range c.packets {
			if p.Type == pt {
				found = p
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond, "no %s packet", pt)
	return found
}

func (c *recordingClient) count(pt PacketType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, p := range c.packets {
		if p.Type == pt {
			n++
		}
	}
	return n
}
