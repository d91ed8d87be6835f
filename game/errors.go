package game

import "errors"

type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindRoomNotFound      ErrorKind = "room-not-found"
	KindRoomFull          ErrorKind = "room-full"
	KindDuplicateName     ErrorKind = "duplicate-name"
	KindNotHost           ErrorKind = "not-host"
	KindNotYourTurn       ErrorKind = "not-your-turn"
	KindAlreadyAnswered   ErrorKind = "already-answered"
	KindNoActiveQuestion  ErrorKind = "no-active-question"
	KindNotEnoughPlayers  ErrorKind = "not-enough-players"
	KindCapacityExhausted ErrorKind = "capacity-exhausted"
	KindGameFinished      ErrorKind = "game-finished"
	KindRateLimited       ErrorKind = "rate-limited"
	KindUnknown           ErrorKind = "unknown-error"
)

var (
	ErrValidation        = errors.New("validation-error")
	ErrInvalidName       = errors.New("invalid-name")
	ErrInvalidCode       = errors.New("invalid-room-code")
	ErrInvalidPacket     = errors.New("invalid-packet")
	ErrInvalidToken      = errors.New("invalid-session-token")
	ErrRoomNotFound      = errors.New("room-not-found")
	ErrRoomFull          = errors.New("room-full")
	ErrDuplicateName     = errors.New("duplicate-name")
	ErrNotHost           = errors.New("not-host")
	ErrNotYourTurn       = errors.New("not-your-turn")
	ErrAlreadyAnswered   = errors.New("already-answered")
	ErrNoActiveQuestion  = errors.New("no-active-question")
	ErrNotEnoughPlayers  = errors.New("not-enough-players")
	ErrCapacityExhausted = errors.New("capacity-exhausted")
	ErrGameFinished      = errors.New("game-finished")
	ErrNotInRoom         = errors.New("not-in-room")
	ErrGameInProgress    = errors.New("game-in-progress")
	ErrAlreadyInRoom     = errors.New("already-in-room")
	ErrRateLimited       = errors.New("rate-limited")
	ErrRoomClosed        = errors.New("room-closed")
)

var (
	ErrSendBufferFull   = errors.New("send-buffer-full")
	ErrConnectionClosed = errors.New("connection-closed")
)

// KindOf classifies err for reporting back to the client.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrInvalidPacket),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrNotInRoom),
		errors.Is(err, ErrGameInProgress),
		errors.Is(err, ErrAlreadyInRoom):
		return KindValidation
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrRoomClosed):
		return KindRoomNotFound
	case errors.Is(err, ErrRoomFull):
		return KindRoomFull
	case errors.Is(err, ErrDuplicateName):
		return KindDuplicateName
	case errors.Is(err, ErrNotHost):
		return KindNotHost
	case errors.Is(err, ErrNotYourTurn):
		return KindNotYourTurn
	case errors.Is(err, ErrAlreadyAnswered):
		return KindAlreadyAnswered
	case errors.Is(err, ErrNoActiveQuestion):
		return KindNoActiveQuestion
	case errors.Is(err, ErrNotEnoughPlayers):
		return KindNotEnoughPlayers
	case errors.Is(err, ErrCapacityExhausted):
		return KindCapacityExhausted
	case errors.Is(err, ErrGameFinished):
		return KindGameFinished
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindUnknown
	}
}
