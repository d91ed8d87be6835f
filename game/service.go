package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Service resolves intents arriving from connections to the room actor they
// target.
type Service struct {
	registry *Registry
	tokens   SessionTokens
	ids      UniqueIdGenerator
}

func NewService(registry *Registry, tokens SessionTokens, ids UniqueIdGenerator) *Service {
	return &Service{registry: registry, tokens: tokens, ids: ids}
}

func (s *Service) Dispatch(ctx context.Context, sess Session, p ClientPacket) error {
	switch p.Type {
	case ClientCreateRoom:
		return s.CreateRoom(ctx, sess, p.Name)
	case ClientJoinRoom:
		return s.JoinRoom(ctx, sess, p.RoomCode, p.Name)
	case ClientResume:
		return s.Resume(ctx, sess, p.Token)
	}

	room, playerID := sess.Room()
	if room == nil {
		return ErrNotInRoom
	}
	switch p.Type {
	case ClientLeaveRoom:
		return room.Leave(ctx, playerID)
	case ClientStartGame:
		return room.Start(ctx, playerID)
	case ClientSubmitAnswer:
		return room.SubmitAnswer(ctx, playerID, p.Answer, p.Question)
	}
	return ErrInvalidPacket
}

// CreateRoom seats sess as host of a new room. A room sess already sits in
// is left only once the new one holds it.
func (s *Service) CreateRoom(ctx context.Context, sess Session, hostName string) error {
	name, err := NormalizeName(hostName)
	if err != nil {
		return err
	}
	prev, prevID := sess.Room()

	playerID := s.ids.Generate()
	room, err := s.registry.CreateRoom(playerID, name)
	if err != nil {
		return err
	}

	token, err := s.tokens.Generate(playerID, room.Code())
	if err != nil {
		s.registry.Remove(room.Code())
		return err
	}
	if err := room.AttachHost(ctx, playerID, sess, token); err != nil {
		s.registry.Remove(room.Code())
		return err
	}
	s.release(ctx, prev, prevID)
	return nil
}

func (s *Service) JoinRoom(ctx context.Context, sess Session, code, playerName string) error {
	if err := ValidateCode(code); err != nil {
		return err
	}
	name, err := NormalizeName(playerName)
	if err != nil {
		return err
	}

	room, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	prev, prevID := sess.Room()
	if prev == room {
		return ErrAlreadyInRoom
	}

	playerID := s.ids.Generate()
	token, err := s.tokens.Generate(playerID, code)
	if err != nil {
		return err
	}
	if err := room.Join(ctx, playerID, name, sess, token); err != nil {
		return err
	}
	s.release(ctx, prev, prevID)
	return nil
}

// Resume re-attaches a dropped player using the token issued on create/join.
func (s *Service) Resume(ctx context.Context, sess Session, token string) error {
	playerID, code, err := s.tokens.Verify(token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	room, err := s.registry.Get(code)
	if err != nil {
		return err
	}
	prev, prevID := sess.Room()
	if err := room.Resume(ctx, playerID, sess); err != nil {
		return err
	}
	if prev != room || prevID != playerID {
		s.release(ctx, prev, prevID)
	}
	return nil
}

func (s *Service) Disconnect(sess Session) {
	room, playerID := sess.Room()
	if room == nil {
		return
	}
	room.Detach(playerID, sess)
}

// release gives up the seat sess held before it moved. The old room only
// unbinds connections still bound to it, so the new binding survives.
func (s *Service) release(ctx context.Context, room *RoomActor, playerID string) {
	if room == nil {
		return
	}
	err := room.Leave(ctx, playerID)
	if err != nil && !errors.Is(err, ErrGameFinished) {
		log.Debug().Err(err).Str("room", room.Code()).Str("player", playerID).Msg("implicit leave failed")
	}
}
