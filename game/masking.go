package game

import (
	"strings"

	"yojiquiz/catalog"
)

// MaskMarker replaces the hidden glyph in the display form.
const MaskMarker = "○"

// Question is the per-round derivation of a catalog item. Only BlankIndex is
// needed to rebuild the masked form; Answer must stay server-side until the
// answering player has been scored.
type Question struct {
	Word       string `json:"word"`
	Meaning    string `json:"meaning"`
	BlankIndex int    `json:"blankIndex"`
	Answer     string `json:"answer"`
}

// MakeQuestion hides exactly one glyph of item.Word, chosen uniformly.
func MakeQuestion(item catalog.Item, rng catalog.Rand) Question {
	glyphs := []rune(item.Word)
	idx := 0
	if len(glyphs) > 1 {
		idx = rng.IntN(len(glyphs))
	}
	answer := ""
	if len(glyphs) > 0 {
		answer = string(glyphs[idx])
	}
	return Question{
		Word:       item.Word,
		Meaning:    item.Meaning,
		BlankIndex: idx,
		Answer:     answer,
	}
}

// Masked renders the word with the blank replaced by marker.
func (q Question) Masked(marker string) string {
	glyphs := []rune(q.Word)
	var b strings.Builder
	for i, g := range glyphs {
		if i == q.BlankIndex {
			b.WriteString(marker)
			continue
		}
		b.WriteRune(g)
	}
	return b.String()
}

// View strips the answer for transmission to players who have not answered yet.
func (q Question) View() QuestionView {
	return QuestionView{
		Masked:     q.Masked(MaskMarker),
		Meaning:    q.Meaning,
		BlankIndex: q.BlankIndex,
		Length:     len([]rune(q.Word)),
	}
}

// QuestionView is what clients receive while a round is open. The full word is
// never included since it contains the answer.
type QuestionView struct {
	Masked     string `json:"masked"`
	Meaning    string `json:"meaning"`
	BlankIndex int    `json:"blankIndex"`
	Length     int    `json:"length"`
}
