package game

import (
	"errors"
	"fmt"
	"time"
)

type Mode string

const (
	ModeTurns        Mode = "turns"
	ModeSimultaneous Mode = "simultaneous"
)

var ErrInvalidSettings = errors.New("invalid-settings")

// Settings are fixed per room at creation time.
type Settings struct {
	Capacity          int           `yaml:"capacity"`
	TotalQuestions    int           `yaml:"totalQuestions"`
	QuestionSeconds   int           `yaml:"questionSeconds"`
	Mode              Mode          `yaml:"mode"`
	PointsPerCorrect  int           `yaml:"pointsPerCorrect"`
	FirstCorrectBonus int           `yaml:"firstCorrectBonus"`
	ReconnectGrace    time.Duration `yaml:"reconnectGrace"`
	FinishedTTL       time.Duration `yaml:"finishedTTL"`
	LobbyTTL          time.Duration `yaml:"lobbyTTL"`
}

func DefaultSettings() Settings {
	return Settings{
		Capacity:          4,
		TotalQuestions:    10,
		QuestionSeconds:   20,
		Mode:              ModeTurns,
		PointsPerCorrect:  1,
		FirstCorrectBonus: 1,
		ReconnectGrace:    15 * time.Second,
		FinishedTTL:       5 * time.Minute,
		LobbyTTL:          time.Hour,
	}
}

func (s Settings) Validate() error {
	switch {
	case s.Capacity < 1 || s.Capacity > 8:
		return fmt.Errorf("%w: capacity must be between 1 and 8", ErrInvalidSettings)
	case s.TotalQuestions < 1 || s.TotalQuestions > 50:
		return fmt.Errorf("%w: totalQuestions must be between 1 and 50", ErrInvalidSettings)
	case s.QuestionSeconds < 5 || s.QuestionSeconds > 120:
		return fmt.Errorf("%w: questionSeconds must be between 5 and 120", ErrInvalidSettings)
	case s.Mode != ModeTurns && s.Mode != ModeSimultaneous:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSettings, s.Mode)
	case s.PointsPerCorrect < 1:
		return fmt.Errorf("%w: pointsPerCorrect must be positive", ErrInvalidSettings)
	case s.FirstCorrectBonus < 0:
		return fmt.Errorf("%w: firstCorrectBonus cannot be negative", ErrInvalidSettings)
	case s.ReconnectGrace <= 0 || s.FinishedTTL <= 0 || s.LobbyTTL <= 0:
		return fmt.Errorf("%w: durations must be positive", ErrInvalidSettings)
	}
	return nil
}
