package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		code  string
		valid bool
	}{
		{code: "482913", valid: true},
		{code: "100000", valid: true},
		{code: "999999", valid: true},
		{code: "099999", valid: false},
		{code: "48291", valid: false},
		{code: "4829130", valid: false},
		{code: "48291x", valid: false},
		{code: "４８２９１３", valid: false},
		{code: "", valid: false},
	}

	for _, tc := range testCases {
		err := ValidateCode(tc.code)
		if tc.valid {
			assert.NoError(t, err, tc.code)
		} else {
			assert.ErrorIs(t, err, ErrInvalidCode, tc.code)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc     string
		name     string
		expected string
		err      error
	}{
		{desc: "plain", name: "Aki", expected: "Aki"},
		{desc: "trimmed", name: "  りん\t", expected: "りん"},
		{desc: "sixteen glyphs", name: "一二三四五六七八九十一二三四五六", expected: "一二三四五六七八九十一二三四五六"},
		{desc: "seventeen glyphs", name: "一二三四五六七八九十一二三四五六七", err: ErrInvalidName},
		{desc: "blank", name: "   ", err: ErrInvalidName},
		{desc: "invalid utf-8", name: "a\xffb", err: ErrInvalidName},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeName(tc.name)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		err  error
		kind ErrorKind
	}{
		{err: nil, kind: ""},
		{err: fmt.Errorf("%w: bad json", ErrInvalidPacket), kind: KindValidation},
		{err: ErrAlreadyInRoom, kind: KindValidation},
		{err: ErrRoomClosed, kind: KindRoomNotFound},
		{err: ErrRoomFull, kind: KindRoomFull},
		{err: ErrDuplicateName, kind: KindDuplicateName},
		{err: ErrNotHost, kind: KindNotHost},
		{err: ErrNotYourTurn, kind: KindNotYourTurn},
		{err: ErrAlreadyAnswered, kind: KindAlreadyAnswered},
		{err: ErrNoActiveQuestion, kind: KindNoActiveQuestion},
		{err: ErrNotEnoughPlayers, kind: KindNotEnoughPlayers},
		{err: ErrCapacityExhausted, kind: KindCapacityExhausted},
		{err: ErrGameFinished, kind: KindGameFinished},
		{err: ErrRateLimited, kind: KindRateLimited},
		{err: ErrSendBufferFull, kind: KindUnknown},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.kind, KindOf(tc.err), fmt.Sprint(tc.err))
	}
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, DefaultSettings().Validate())

	testCases := []struct {
		desc  string
		tweak func(*Settings)
	}{
		{desc: "no capacity", tweak: func(s *Settings) { s.Capacity = 0 }},
		{desc: "too many questions", tweak: func(s *Settings) { s.TotalQuestions = 51 }},
		{desc: "too short a question", tweak: func(s *Settings) { s.QuestionSeconds = 4 }},
		{desc: "unknown mode", tweak: func(s *Settings) { s.Mode = "relay" }},
		{desc: "no points", tweak: func(s *Settings) { s.PointsPerCorrect = 0 }},
		{desc: "negative bonus", tweak: func(s *Settings) { s.FirstCorrectBonus = -1 }},
		{desc: "no grace", tweak: func(s *Settings) { s.ReconnectGrace = 0 }},
	}

	for _, tc := range testCases {
		s := DefaultSettings()
		tc.tweak(&s)
		assert.ErrorIs(t, s.Validate(), ErrInvalidSettings, tc.desc)
	}
}
