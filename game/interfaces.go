package game

import (
	"context"

	"yojiquiz/domain"
)

type WebsocketConnection interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

// SnapshotStore keeps the latest snapshot of every live room and feeds
// spectators with changes.
type SnapshotStore interface {
	Save(ctx context.Context, snap domain.RoomSnapshot) error
	Load(ctx context.Context, code string) (domain.RoomSnapshot, error)
	Delete(ctx context.Context, code string) error
	// Subscribe delivers every saved snapshot of the room until ctx is done.
	Subscribe(ctx context.Context, code string) (<-chan domain.RoomSnapshot, error)
}

type ResultsRepo interface {
	SaveResult(ctx context.Context, result domain.SessionResult) error
	GetResult(ctx context.Context, code string) (domain.SessionResult, error)
}

type SessionTokens interface {
	Generate(playerID, roomCode string) (string, error)
	Verify(token string) (playerID, roomCode string, err error)
}

// Client is one attached connection as seen by a room actor.
type Client interface {
	Send(p *ServerPacket) error
	SetRoom(room *RoomActor, playerID string)
	// Unbind clears the binding only while it still points at playerID in room.
	Unbind(room *RoomActor, playerID string)
	Close(errCode string)
}
