package game

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = time.Minute
	maxMessageSize = 4096
)

type websocketConnection struct {
	socket *websocket.Conn
}

func (wc *websocketConnection) Write(data []byte) error {
	wc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return wc.socket.WriteMessage(websocket.TextMessage, data)
}

func (wc *websocketConnection) Ping() error {
	return wc.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (wc *websocketConnection) Read() ([]byte, error) {
	_, p, err := wc.socket.ReadMessage()
	return p, err
}

// Close may race with a pending Write, so the close frame goes out as a
// control message.
func (wc *websocketConnection) Close(errCode string) {
	wc.socket.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, errCode), time.Now().Add(writeWait))
	wc.socket.Close()
}

func NewWebsocketConnection(conn *websocket.Conn) WebsocketConnection {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &websocketConnection{conn}
}
