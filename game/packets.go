package game

import (
	"encoding/json"
	"fmt"

	"yojiquiz/domain"
)

type PacketType string

const (
	PacketRoomCreated    PacketType = "room_created"
	PacketRoomJoined     PacketType = "room_joined"
	PacketResync         PacketType = "resync"
	PacketRosterChanged  PacketType = "roster_changed"
	PacketGameStarted    PacketType = "game_started"
	PacketTimerTick      PacketType = "timer_tick"
	PacketNextQuestion   PacketType = "next_question"
	PacketTurnChanged    PacketType = "turn_changed"
	PacketAnswerResult   PacketType = "answer_result"
	PacketPlayerAnswered PacketType = "player_answered"
	PacketGameFinished   PacketType = "game_finished"
	PacketLeftRoom       PacketType = "left_room"
	PacketError          PacketType = "error"
)

type ClientPacketType string

const (
	ClientCreateRoom   ClientPacketType = "create_room"
	ClientJoinRoom     ClientPacketType = "join_room"
	ClientResume       ClientPacketType = "resume"
	ClientLeaveRoom    ClientPacketType = "leave_room"
	ClientStartGame    ClientPacketType = "start_game"
	ClientSubmitAnswer ClientPacketType = "submit_answer"
)

// ClientPacket is an inbound intent. RoomCode is only read for join_room;
// every other intent targets the room the connection is bound to.
type ClientPacket struct {
	Type     ClientPacketType `json:"type"`
	RoomCode string           `json:"roomCode,omitempty"`
	Name     string           `json:"name,omitempty"`
	Answer   string           `json:"answer,omitempty"`
	Question int              `json:"questionNumber,omitempty"`
	Token    string           `json:"token,omitempty"`
}

func DecodeClientPacket(data []byte) (ClientPacket, error) {
	var p ClientPacket
	if err := json.Unmarshal(data, &p); err != nil {
		return ClientPacket{}, fmt.Errorf("%w: %w", ErrInvalidPacket, err)
	}
	switch p.Type {
	case ClientCreateRoom, ClientJoinRoom, ClientResume, ClientLeaveRoom, ClientStartGame, ClientSubmitAnswer:
		return p, nil
	}
	return ClientPacket{}, fmt.Errorf("%w: unknown type %q", ErrInvalidPacket, p.Type)
}

// ServerPacket is an outbound notification. ServerTimestamp is stamped by the
// room actor right before delivery.
type ServerPacket struct {
	Type            PacketType `json:"type"`
	Payload         any        `json:"payload,omitempty"`
	ServerTimestamp int64      `json:"serverTimestamp"`
}

type SessionPayload struct {
	RoomCode     string              `json:"roomCode"`
	PlayerID     string              `json:"playerId"`
	SessionToken string              `json:"sessionToken"`
	Room         domain.RoomSnapshot `json:"room"`
}

type ResyncPayload struct {
	Room           domain.RoomSnapshot `json:"room"`
	Question       *QuestionView       `json:"question,omitempty"`
	QuestionNumber int                 `json:"questionNumber,omitempty"`
}

type RosterPayload struct {
	Room domain.RoomSnapshot `json:"room"`
}

type QuestionPayload struct {
	Question        QuestionView `json:"question"`
	QuestionNumber  int          `json:"questionNumber"`
	TotalQuestions  int          `json:"totalQuestions"`
	CurrentPlayerID string       `json:"currentPlayerId,omitempty"`
	Seconds         int          `json:"seconds"`
}

type TimerTickPayload struct {
	SecondsRemaining int `json:"secondsRemaining"`
}

type AnswerResultPayload struct {
	Correct       bool   `json:"correct"`
	PointsAwarded int    `json:"pointsAwarded"`
	TotalScore    int    `json:"totalScore"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
	TimedOut      bool   `json:"timedOut,omitempty"`
}

type PlayerAnsweredPayload struct {
	PlayerID   string `json:"playerId"`
	Correct    bool   `json:"correct"`
	TotalScore int    `json:"totalScore"`
	TimedOut   bool   `json:"timedOut,omitempty"`
}

type GameFinishedPayload struct {
	Ranking []domain.RankEntry `json:"ranking"`
}

type LeftRoomPayload struct {
	RoomCode string `json:"roomCode"`
}

type ErrorPayload struct {
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind"`
}

func MakePacketRoomCreated(playerID, token string, room domain.RoomSnapshot) *ServerPacket {
	return &ServerPacket{
		Type:    PacketRoomCreated,
		Payload: SessionPayload{RoomCode: room.Code, PlayerID: playerID, SessionToken: token, Room: room},
	}
}

func MakePacketRoomJoined(playerID, token string, room domain.RoomSnapshot) *ServerPacket {
	return &ServerPacket{
		Type:    PacketRoomJoined,
		Payload: SessionPayload{RoomCode: room.Code, PlayerID: playerID, SessionToken: token, Room: room},
	}
}

func MakePacketResync(room domain.RoomSnapshot, question *QuestionView, questionNumber int) *ServerPacket {
	return &ServerPacket{
		Type:    PacketResync,
		Payload: ResyncPayload{Room: room, Question: question, QuestionNumber: questionNumber},
	}
}

func MakePacketRosterChanged(room domain.RoomSnapshot) *ServerPacket {
	return &ServerPacket{Type: PacketRosterChanged, Payload: RosterPayload{Room: room}}
}

func MakePacketGameStarted(q QuestionView, number, total int, currentPlayerID string, seconds int) *ServerPacket {
	return &ServerPacket{
		Type: PacketGameStarted,
		Payload: QuestionPayload{
			Question: q, QuestionNumber: number, TotalQuestions: total,
			CurrentPlayerID: currentPlayerID, Seconds: seconds,
		},
	}
}

func MakePacketNextQuestion(q QuestionView, number, total int, currentPlayerID string, seconds int) *ServerPacket {
	return &ServerPacket{
		Type: PacketNextQuestion,
		Payload: QuestionPayload{
			Question: q, QuestionNumber: number, TotalQuestions: total,
			CurrentPlayerID: currentPlayerID, Seconds: seconds,
		},
	}
}

func MakePacketTurnChanged(q QuestionView, number, total int, currentPlayerID string, seconds int) *ServerPacket {
	return &ServerPacket{
		Type: PacketTurnChanged,
		Payload: QuestionPayload{
			Question: q, QuestionNumber: number, TotalQuestions: total,
			CurrentPlayerID: currentPlayerID, Seconds: seconds,
		},
	}
}

func MakePacketTimerTick(secondsRemaining int) *ServerPacket {
	return &ServerPacket{Type: PacketTimerTick, Payload: TimerTickPayload{SecondsRemaining: secondsRemaining}}
}

func MakePacketAnswerResult(correct bool, points, total int, correctAnswer string, timedOut bool) *ServerPacket {
	return &ServerPacket{
		Type: PacketAnswerResult,
		Payload: AnswerResultPayload{
			Correct: correct, PointsAwarded: points, TotalScore: total,
			CorrectAnswer: correctAnswer, TimedOut: timedOut,
		},
	}
}

func MakePacketPlayerAnswered(playerID string, correct bool, total int, timedOut bool) *ServerPacket {
	return &ServerPacket{
		Type:    PacketPlayerAnswered,
		Payload: PlayerAnsweredPayload{PlayerID: playerID, Correct: correct, TotalScore: total, TimedOut: timedOut},
	}
}

func MakePacketGameFinished(ranking []domain.RankEntry) *ServerPacket {
	return &ServerPacket{Type: PacketGameFinished, Payload: GameFinishedPayload{Ranking: ranking}}
}

func MakePacketLeftRoom(roomCode string) *ServerPacket {
	return &ServerPacket{Type: PacketLeftRoom, Payload: LeftRoomPayload{RoomCode: roomCode}}
}

func MakePacketError(err error) *ServerPacket {
	return &ServerPacket{Type: PacketError, Payload: ErrorPayload{Message: err.Error(), Kind: KindOf(err)}}
}
