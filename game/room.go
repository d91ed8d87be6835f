package game

import (
	"slices"
	"strings"

	"yojiquiz/catalog"
	"yojiquiz/domain"
)

type Phase int

const (
	PhaseLobby Phase = iota
	PhaseInProgress
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return domain.PhaseLobby
	case PhaseInProgress:
		return domain.PhaseInProgress
	case PhaseFinished:
		return domain.PhaseFinished
	}
	return "unknown"
}

type AnswerRecord struct {
	QuestionIndex   int
	CorrectAnswer   string
	SubmittedAnswer string
	IsCorrect       bool
	Points          int
	TimedOut        bool
}

// Player is a roster entry. Only the Room mutates it.
type Player struct {
	id      string
	name    string
	score   int
	answers []AnswerRecord
	joinSeq int
}

func (p *Player) ID() string { return p.id }

func (p *Player) Name() string { return p.name }

func (p *Player) Score() int { return p.score }

func (p *Player) Answers() []AnswerRecord { return slices.Clone(p.answers) }

// Outbound is a packet produced by a transition. An empty To means every
// attached connection except Except.
type Outbound struct {
	To     string
	Except string
	Packet *ServerPacket
}

// Room is the authoritative state of one game session. It is not safe for
// concurrent use: the room actor is its only caller.
type Room struct {
	code     string
	hostID   string
	settings Settings
	phase    Phase

	players  []*Player
	departed []*Player
	nextSeq  int

	questions            []catalog.Item
	currentQuestionIndex int
	currentPlayerIndex   int
	question             *Question
	roundOpen            bool
	timerRun             uint64
	timeRemaining        int
	answered             map[string]bool
	firstCorrectTaken    bool

	ranking []domain.RankEntry
	evict   bool

	catalog *catalog.Catalog
	rng     catalog.Rand
	timer   Countdown
}

func NewRoom(code, hostID, hostName string, settings Settings, cat *catalog.Catalog, rng catalog.Rand, timer Countdown) (*Room, error) {
	name, err := NormalizeName(hostName)
	if err != nil {
		return nil, err
	}
	r := &Room{
		code:     code,
		hostID:   hostID,
		settings: settings,
		phase:    PhaseLobby,
		players:  make([]*Player, 0, settings.Capacity),
		answered: make(map[string]bool),
		catalog:  cat,
		rng:      rng,
		timer:    timer,
	}
	r.appendPlayer(hostID, name)
	return r, nil
}

func (r *Room) Code() string { return r.code }

func (r *Room) HostID() string { return r.hostID }

func (r *Room) Phase() Phase { return r.phase }

// ShouldEvict reports that the room was abandoned and can be torn down now.
func (r *Room) ShouldEvict() bool { return r.evict }

func (r *Room) PlayersCount() int { return len(r.players) }

func (r *Room) Settings() Settings { return r.settings }

func (r *Room) QuestionIndex() int { return r.currentQuestionIndex }

func (r *Room) Ranking() []domain.RankEntry {
	return slices.Clone(r.ranking)
}

func (r *Room) HasPlayer(id string) bool {
	return r.indexOf(id) >= 0
}

// CurrentPlayerID is the player whose turn it is. Empty outside an open
// round and in simultaneous mode.
func (r *Room) CurrentPlayerID() string {
	if r.phase != PhaseInProgress || r.settings.Mode != ModeTurns {
		return ""
	}
	if r.currentPlayerIndex < 0 || r.currentPlayerIndex >= len(r.players) {
		return ""
	}
	return r.players[r.currentPlayerIndex].id
}

// ActiveQuestion returns the masked view of the open round, if any.
func (r *Room) ActiveQuestion() (QuestionView, bool) {
	if !r.roundOpen || r.question == nil {
		return QuestionView{}, false
	}
	return r.question.View(), true
}

func (r *Room) Snapshot() domain.RoomSnapshot {
	players := make([]domain.PlayerScore, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, domain.PlayerScore{ID: p.id, Name: p.name, Score: p.score})
	}
	snap := domain.RoomSnapshot{
		Code:                 r.code,
		HostID:               r.hostID,
		Players:              players,
		Phase:                r.phase.String(),
		Mode:                 string(r.settings.Mode),
		Capacity:             r.settings.Capacity,
		CurrentQuestionIndex: r.currentQuestionIndex,
		TotalQuestions:       r.settings.TotalQuestions,
		CurrentPlayerID:      r.CurrentPlayerID(),
	}
	if r.roundOpen {
		snap.TimeRemaining = r.timeRemaining
	}
	return snap
}

func (r *Room) Join(id, name string) ([]Outbound, error) {
	switch r.phase {
	case PhaseFinished:
		return nil, ErrGameFinished
	case PhaseInProgress:
		return nil, ErrGameInProgress
	}
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	// ids are minted per join, so a seated id is never a fresh join
	if r.HasPlayer(id) {
		return nil, ErrAlreadyInRoom
	}
	if len(r.players) >= r.settings.Capacity {
		return nil, ErrRoomFull
	}
	for _, p := range r.players {
		if strings.EqualFold(p.name, name) {
			return nil, ErrDuplicateName
		}
	}
	r.appendPlayer(id, name)
	return []Outbound{{Packet: MakePacketRosterChanged(r.Snapshot())}}, nil
}

func (r *Room) Leave(id string) ([]Outbound, error) {
	if r.phase == PhaseFinished {
		return nil, ErrGameFinished
	}
	idx := r.indexOf(id)
	if idx < 0 {
		return nil, ErrNotInRoom
	}
	leaving := r.players[idx]
	r.players = slices.Delete(r.players, idx, idx+1)

	if r.hostID == id && len(r.players) > 0 {
		r.hostID = r.players[0].id
	}

	if r.phase == PhaseLobby {
		if len(r.players) == 0 {
			r.evict = true
		}
		return []Outbound{{Packet: MakePacketRosterChanged(r.Snapshot())}}, nil
	}

	r.departed = append(r.departed, leaving)
	delete(r.answered, id)

	if len(r.players) == 0 {
		r.evict = true
		return r.finish(), nil
	}

	outs := []Outbound{{Packet: MakePacketRosterChanged(r.Snapshot())}}

	switch r.settings.Mode {
	case ModeTurns:
		switch {
		case idx < r.currentPlayerIndex:
			r.currentPlayerIndex--
		case idx == r.currentPlayerIndex && r.roundOpen:
			// the leaver's turn ends unanswered; the next player now sits at idx
			r.closeRound()
			outs = append(outs, r.openTurnOrAdvance()...)
		}
	case ModeSimultaneous:
		if r.roundOpen && r.allAnswered() {
			r.closeRound()
			outs = append(outs, r.advance()...)
		}
	}
	return outs, nil
}

func (r *Room) Start(id string) ([]Outbound, error) {
	switch r.phase {
	case PhaseFinished:
		return nil, ErrGameFinished
	case PhaseInProgress:
		return nil, ErrGameInProgress
	}
	if id != r.hostID {
		return nil, ErrNotHost
	}
	if len(r.players) < 1 {
		return nil, ErrNotEnoughPlayers
	}

	r.phase = PhaseInProgress
	r.questions = r.catalog.Sample(r.settings.TotalQuestions, r.rng)
	r.currentQuestionIndex = 0
	r.currentPlayerIndex = 0
	r.newQuestion()
	r.openRound()

	view := r.question.View()
	return []Outbound{{Packet: MakePacketGameStarted(view, 1, r.settings.TotalQuestions, r.CurrentPlayerID(), r.settings.QuestionSeconds)}}, nil
}

// SubmitAnswer scores the answer of player id. questionNumber is the 1-based
// question the client was answering; zero skips the check. A submission for a
// question other than the current one is a late retransmission and is rejected.
func (r *Room) SubmitAnswer(id, submitted string, questionNumber int) ([]Outbound, error) {
	switch r.phase {
	case PhaseFinished:
		return nil, ErrGameFinished
	case PhaseLobby:
		return nil, ErrNoActiveQuestion
	}
	idx := r.indexOf(id)
	if idx < 0 {
		return nil, ErrNotInRoom
	}
	if questionNumber > 0 && questionNumber != r.currentQuestionIndex+1 {
		for _, a := range r.players[idx].answers {
			if a.QuestionIndex == questionNumber-1 {
				return nil, ErrAlreadyAnswered
			}
		}
		return nil, ErrNoActiveQuestion
	}
	if r.answered[id] {
		return nil, ErrAlreadyAnswered
	}
	if !r.roundOpen {
		return nil, ErrNoActiveQuestion
	}
	if r.settings.Mode == ModeTurns && idx != r.currentPlayerIndex {
		return nil, ErrNotYourTurn
	}

	outs := r.score(r.players[idx], strings.TrimSpace(submitted), false)

	if r.settings.Mode == ModeTurns || r.allAnswered() {
		r.closeRound()
		outs = append(outs, r.advance()...)
	}
	return outs, nil
}

// HandleTimer applies a countdown step. Events from runs other than the
// open round's are stale and ignored.
func (r *Room) HandleTimer(ev TimerEvent) []Outbound {
	if r.phase != PhaseInProgress || !r.roundOpen || ev.Run != r.timerRun {
		return nil
	}
	r.timeRemaining = ev.Remaining
	outs := []Outbound{{Packet: MakePacketTimerTick(ev.Remaining)}}
	if !ev.Expired() {
		return outs
	}

	pending := make([]*Player, 0, len(r.players))
	if r.settings.Mode == ModeTurns {
		pending = append(pending, r.players[r.currentPlayerIndex])
	} else {
		for _, p := range r.players {
			if !r.answered[p.id] {
				pending = append(pending, p)
			}
		}
	}
	for _, p := range pending {
		outs = append(outs, r.score(p, "", true)...)
	}
	r.roundOpen = false
	outs = append(outs, r.advance()...)
	return outs
}

// Close cancels any pending countdown. Used when the room is evicted.
func (r *Room) Close() {
	r.timer.Cancel()
	r.roundOpen = false
}

func (r *Room) score(p *Player, submitted string, timedOut bool) []Outbound {
	correct := !timedOut && submitted == r.question.Answer
	points := 0
	if correct {
		points = r.settings.PointsPerCorrect
		if r.settings.Mode == ModeSimultaneous && !r.firstCorrectTaken {
			points += r.settings.FirstCorrectBonus
			r.firstCorrectTaken = true
		}
	}
	p.score += points
	p.answers = append(p.answers, AnswerRecord{
		QuestionIndex:   r.currentQuestionIndex,
		CorrectAnswer:   r.question.Answer,
		SubmittedAnswer: submitted,
		IsCorrect:       correct,
		Points:          points,
		TimedOut:        timedOut,
	})
	r.answered[p.id] = true

	reveal := ""
	if !correct {
		reveal = r.question.Answer
	}
	return []Outbound{
		{To: p.id, Packet: MakePacketAnswerResult(correct, points, p.score, reveal, timedOut)},
		{Except: p.id, Packet: MakePacketPlayerAnswered(p.id, correct, p.score, timedOut)},
	}
}

// advance concludes the round that just closed.
func (r *Room) advance() []Outbound {
	if r.settings.Mode == ModeTurns {
		r.currentPlayerIndex++
		return r.openTurnOrAdvance()
	}
	return r.nextQuestion()
}

// openTurnOrAdvance opens a turn for the player at currentPlayerIndex on the
// same question, or moves to the next question when everyone has had a turn.
func (r *Room) openTurnOrAdvance() []Outbound {
	if r.currentPlayerIndex < len(r.players) {
		r.openRound()
		return []Outbound{{Packet: MakePacketTurnChanged(r.question.View(), r.currentQuestionIndex+1, r.settings.TotalQuestions, r.CurrentPlayerID(), r.settings.QuestionSeconds)}}
	}
	return r.nextQuestion()
}

func (r *Room) nextQuestion() []Outbound {
	r.currentQuestionIndex++
	r.currentPlayerIndex = 0
	if r.currentQuestionIndex >= r.settings.TotalQuestions || len(r.players) == 0 {
		return r.finish()
	}
	r.newQuestion()
	r.openRound()
	return []Outbound{{Packet: MakePacketNextQuestion(r.question.View(), r.currentQuestionIndex+1, r.settings.TotalQuestions, r.CurrentPlayerID(), r.settings.QuestionSeconds)}}
}

func (r *Room) newQuestion() {
	q := MakeQuestion(r.questions[r.currentQuestionIndex], r.rng)
	r.question = &q
	clear(r.answered)
	r.firstCorrectTaken = false
}

func (r *Room) openRound() {
	r.roundOpen = true
	r.timeRemaining = r.settings.QuestionSeconds
	r.timerRun = r.timer.Start(r.settings.QuestionSeconds)
}

func (r *Room) closeRound() {
	r.timer.Cancel()
	r.roundOpen = false
}

func (r *Room) finish() []Outbound {
	r.closeRound()
	r.phase = PhaseFinished
	r.question = nil
	r.timeRemaining = 0
	r.ranking = r.rank()
	return []Outbound{
		{Packet: MakePacketRosterChanged(r.Snapshot())},
		{Packet: MakePacketGameFinished(r.Ranking())},
	}
}

// participants is everyone who took part, ordered by score with ties broken
// by join order.
func (r *Room) participants() []*Player {
	all := make([]*Player, 0, len(r.players)+len(r.departed))
	all = append(all, r.players...)
	all = append(all, r.departed...)
	slices.SortFunc(all, func(a, b *Player) int { return a.joinSeq - b.joinSeq })
	slices.SortStableFunc(all, func(a, b *Player) int { return b.score - a.score })
	return all
}

func (r *Room) rank() []domain.RankEntry {
	all := r.participants()
	ranking := make([]domain.RankEntry, 0, len(all))
	for i, p := range all {
		ranking = append(ranking, domain.RankEntry{Rank: i + 1, PlayerID: p.id, Name: p.name, Score: p.score})
	}
	return ranking
}

// AnswerLog lists every recorded answer grouped by player in ranking order.
func (r *Room) AnswerLog() []domain.AnswerEntry {
	var entries []domain.AnswerEntry
	for _, p := range r.participants() {
		for _, a := range p.answers {
			entries = append(entries, domain.AnswerEntry{
				PlayerID:        p.id,
				QuestionIndex:   a.QuestionIndex,
				CorrectAnswer:   a.CorrectAnswer,
				SubmittedAnswer: a.SubmittedAnswer,
				IsCorrect:       a.IsCorrect,
				Points:          a.Points,
				TimedOut:        a.TimedOut,
			})
		}
	}
	return entries
}

func (r *Room) allAnswered() bool {
	for _, p := range r.players {
		if !r.answered[p.id] {
			return false
		}
	}
	return true
}

func (r *Room) appendPlayer(id, name string) {
	r.players = append(r.players, &Player{id: id, name: name, joinSeq: r.nextSeq})
	r.nextSeq++
}

func (r *Room) indexOf(id string) int {
	return slices.IndexFunc(r.players, func(p *Player) bool { return p.id == id })
}
