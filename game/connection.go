package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/time/rate"
)

const (
	outboxSize   = 256
	pingInterval = 30 * time.Second
)

// Session is a connection the Service can bind to a room.
type Session interface {
	Client
	Room() (*RoomActor, string)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, s Session, p ClientPacket) error
	Disconnect(s Session)
}

// Connection is the actor behind one websocket: ReadPump feeds intents to the
// dispatcher, WritePump drains the outbox.
type Connection struct {
	socket      WebsocketConnection
	rateLimiter *rate.Limiter
	tickers     PeriodicTickerCreator
	outbox      chan *ServerPacket
	done        chan struct{}
	closeOnce   sync.Once

	l        deadlock.Mutex
	room     *RoomActor
	playerID string
}

func NewConnection(socket WebsocketConnection, tickers PeriodicTickerCreator) *Connection {
	return &Connection{
		socket:      socket,
		rateLimiter: rate.NewLimiter(5, 10),
		tickers:     tickers,
		outbox:      make(chan *ServerPacket, outboxSize),
		done:        make(chan struct{}),
	}
}

func (c *Connection) Send(p *ServerPacket) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.outbox <- p:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Connection) SetRoom(room *RoomActor, playerID string) {
	c.l.Lock()
	defer c.l.Unlock()
	c.room = room
	c.playerID = playerID
}

func (c *Connection) Unbind(room *RoomActor, playerID string) {
	c.l.Lock()
	defer c.l.Unlock()
	if c.room == room && c.playerID == playerID {
		c.room = nil
		c.playerID = ""
	}
}

func (c *Connection) Room() (*RoomActor, string) {
	c.l.Lock()
	defer c.l.Unlock()
	return c.room, c.playerID
}

func (c *Connection) Close(errCode string) {
	c.closeOnce.Do(func() {
		close(c.done)
		c.socket.Close(errCode)
	})
}

// ReadPump blocks until the socket fails or ctx is done. Intents from one
// connection are dispatched one at a time, in order.
func (c *Connection) ReadPump(ctx context.Context, d Dispatcher) {
	defer func() {
		d.Disconnect(c)
		c.Close("")
	}()

	for ctx.Err() == nil {
		data, err := c.socket.Read()
		if err != nil {
			return
		}

		if !c.rateLimiter.Allow() {
			c.reportError(ErrRateLimited)
			continue
		}

		packet, err := DecodeClientPacket(data)
		if err != nil {
			c.reportError(err)
			continue
		}

		if err := d.Dispatch(ctx, c, packet); err != nil {
			c.reportError(err)
		}
	}
}

func (c *Connection) WritePump() {
	ping := c.tickers.Create(pingInterval)
	defer ping.Stop()

	for {
		select {
		case p := <-c.outbox:
			data, err := json.Marshal(p)
			if err != nil {
				log.Error().Err(err).Str("type", string(p.Type)).Msg("failed to encode packet")
				continue
			}
			if err := c.socket.Write(data); err != nil {
				c.Close("")
				return
			}
		case <-ping.C():
			if err := c.socket.Ping(); err != nil {
				c.Close("")
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Connection) reportError(err error) {
	p := MakePacketError(err)
	p.ServerTimestamp = time.Now().UnixMilli()
	c.Send(p)
}
