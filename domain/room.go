package domain

import "time"

const (
	PhaseLobby      = "lobby"
	PhaseInProgress = "in_progress"
	PhaseFinished   = "finished"
)

type PlayerScore struct {
	ID    string `json:"id" cbor:"id"`
	Name  string `json:"name" cbor:"name"`
	Score int    `json:"score" cbor:"score"`
}

// RoomSnapshot is the immutable view of a room sent to clients and written to
// the snapshot store. It carries enough to resynchronize a reconnecting client.
type RoomSnapshot struct {
	Code                 string        `json:"code" cbor:"code"`
	HostID               string        `json:"hostId" cbor:"hostId"`
	Players              []PlayerScore `json:"players" cbor:"players"`
	Phase                string        `json:"phase" cbor:"phase"`
	Mode                 string        `json:"mode" cbor:"mode"`
	Capacity             int           `json:"capacity" cbor:"capacity"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex" cbor:"currentQuestionIndex"`
	TotalQuestions       int           `json:"totalQuestions" cbor:"totalQuestions"`
	CurrentPlayerID      string        `json:"currentPlayerId,omitempty" cbor:"currentPlayerId,omitempty"`
	TimeRemaining        int           `json:"timeRemaining,omitempty" cbor:"timeRemaining,omitempty"`
}

type RankEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// AnswerEntry is one scored answer, or a timeout, of one player.
type AnswerEntry struct {
	PlayerID        string `json:"playerId"`
	QuestionIndex   int    `json:"questionIndex"`
	CorrectAnswer   string `json:"correctAnswer"`
	SubmittedAnswer string `json:"submittedAnswer"`
	IsCorrect       bool   `json:"isCorrect"`
	Points          int    `json:"points"`
	TimedOut        bool   `json:"timedOut"`
}

// SessionResult is the summary of a finished room. Answers follow ranking
// order and include players who left before the end.
type SessionResult struct {
	RoomCode       string        `json:"roomCode"`
	Mode           string        `json:"mode"`
	TotalQuestions int           `json:"totalQuestions"`
	FinishedAt     time.Time     `json:"finishedAt"`
	Ranking        []RankEntry   `json:"ranking"`
	Answers        []AnswerEntry `json:"answers,omitempty"`
}
