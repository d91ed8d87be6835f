package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"yojiquiz/domain"
)

const (
	inboxSize    = 256
	storeTimeout = 2 * time.Second
)

type intentKind int

const (
	intentCreate intentKind = iota
	intentJoin
	intentResume
	intentLeave
	intentStart
	intentAnswer
	intentDetach
	intentGraceExpired
	intentTimer
	intentEvict
	intentSnapshot
)

var intentNames = [...]string{
	intentCreate:       "create",
	intentJoin:         "join",
	intentResume:       "resume",
	intentLeave:        "leave",
	intentStart:        "start",
	intentAnswer:       "answer",
	intentDetach:       "detach",
	intentGraceExpired: "grace-expired",
	intentTimer:        "timer",
	intentEvict:        "evict",
	intentSnapshot:     "snapshot",
}

func (k intentKind) String() string {
	return intentNames[k]
}

type intent struct {
	kind     intentKind
	playerID string
	name     string
	answer   string
	question int
	token    string
	client   Client
	timer    TimerEvent
	seq      uint64
	reply    chan error
	snap     chan domain.RoomSnapshot
}

type graceTimer struct {
	t   *time.Timer
	seq uint64
}

// RoomActor serializes every intent addressed to one room. Only GameLoop
// touches the Room and the fields below it.
type RoomActor struct {
	code      string
	settings  Settings
	timer     *Timer
	inbox     chan intent
	done      chan struct{}
	closeOnce sync.Once
	onEvict   func(*RoomActor)
	snapshots SnapshotStore
	results   ResultsRepo
	writer    *storeWriter
	now       func() time.Time
	log       zerolog.Logger

	room        *Room
	clients     map[string]Client
	graces      map[string]graceTimer
	graceSeq    uint64
	evictTimer  *time.Timer
	evictSeq    uint64
	persisted   *domain.RoomSnapshot
	resultSaved bool
}

func newRoomActor(code, hostID, hostName string, deps RoomDeps, onEvict func(*RoomActor)) (*RoomActor, error) {
	a := &RoomActor{
		code:      code,
		settings:  deps.Settings,
		inbox:     make(chan intent, inboxSize),
		done:      make(chan struct{}),
		onEvict:   onEvict,
		snapshots: deps.Snapshots,
		results:   deps.Results,
		now:       time.Now,
		log:       log.With().Str("room", code).Logger(),
		clients:   make(map[string]Client),
		graces:    make(map[string]graceTimer),
	}
	a.timer = NewTimer(deps.Tickers, a.onTimer)
	a.writer = newStoreWriter(a.log)

	room, err := NewRoom(code, hostID, hostName, deps.Settings, deps.Catalog, deps.Rand, a.timer)
	if err != nil {
		return nil, err
	}
	a.room = room
	return a, nil
}

func (a *RoomActor) Code() string {
	return a.code
}

// Close stops the actor. The countdown is cancelled before Close returns so
// no tick can reach a room that is being torn down.
func (a *RoomActor) Close() {
	a.closeOnce.Do(func() {
		a.timer.Cancel()
		close(a.done)
	})
}

func (a *RoomActor) GameLoop() {
	go a.writer.run()
	a.scheduleEviction(a.settings.LobbyTTL)
	a.persist()

	for {
		select {
		case <-a.done:
			a.teardown()
			return
		default:
		}

		select {
		case in := <-a.inbox:
			a.handle(in)
		case <-a.done:
			a.teardown()
			return
		}
	}
}

func (a *RoomActor) AttachHost(ctx context.Context, playerID string, c Client, token string) error {
	return a.request(ctx, intent{kind: intentCreate, playerID: playerID, client: c, token: token})
}

func (a *RoomActor) Join(ctx context.Context, playerID, name string, c Client, token string) error {
	return a.request(ctx, intent{kind: intentJoin, playerID: playerID, name: name, client: c, token: token})
}

func (a *RoomActor) Resume(ctx context.Context, playerID string, c Client) error {
	return a.request(ctx, intent{kind: intentResume, playerID: playerID, client: c})
}

func (a *RoomActor) Leave(ctx context.Context, playerID string) error {
	return a.request(ctx, intent{kind: intentLeave, playerID: playerID})
}

func (a *RoomActor) Start(ctx context.Context, playerID string) error {
	return a.request(ctx, intent{kind: intentStart, playerID: playerID})
}

func (a *RoomActor) SubmitAnswer(ctx context.Context, playerID, answer string, questionNumber int) error {
	return a.request(ctx, intent{kind: intentAnswer, playerID: playerID, answer: answer, question: questionNumber})
}

// Detach reports that c dropped. The player keeps their seat for the
// reconnect grace period.
func (a *RoomActor) Detach(playerID string, c Client) {
	a.post(context.Background(), intent{kind: intentDetach, playerID: playerID, client: c})
}

func (a *RoomActor) Snapshot(ctx context.Context) (domain.RoomSnapshot, error) {
	in := intent{kind: intentSnapshot, snap: make(chan domain.RoomSnapshot, 1)}
	if err := a.post(ctx, in); err != nil {
		return domain.RoomSnapshot{}, err
	}
	select {
	case snap := <-in.snap:
		return snap, nil
	case <-a.done:
		return domain.RoomSnapshot{}, ErrRoomClosed
	case <-ctx.Done():
		return domain.RoomSnapshot{}, ctx.Err()
	}
}

func (a *RoomActor) onTimer(ev TimerEvent) {
	a.post(context.Background(), intent{kind: intentTimer, timer: ev})
}

func (a *RoomActor) post(ctx context.Context, in intent) error {
	select {
	case <-a.done:
		return ErrRoomClosed
	default:
	}
	select {
	case a.inbox <- in:
		return nil
	case <-a.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *RoomActor) request(ctx context.Context, in intent) error {
	in.reply = make(chan error, 1)
	if err := a.post(ctx, in); err != nil {
		return err
	}
	select {
	case err := <-in.reply:
		return err
	case <-a.done:
		select {
		case err := <-in.reply:
			return err
		default:
			return ErrRoomClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *RoomActor) handle(in intent) {
	var (
		outs []Outbound
		err  error
	)

	switch in.kind {
	case intentCreate:
		err = a.handleCreate(in)
	case intentJoin:
		outs, err = a.handleJoin(in)
	case intentResume:
		err = a.handleResume(in)
	case intentLeave:
		outs, err = a.handleLeave(in)
	case intentStart:
		outs, err = a.room.Start(in.playerID)
	case intentAnswer:
		outs, err = a.room.SubmitAnswer(in.playerID, in.answer, in.question)
	case intentDetach:
		if c, ok := a.clients[in.playerID]; ok && c == in.client {
			a.detach(in.playerID)
		}
		return
	case intentGraceExpired:
		outs = a.handleGraceExpired(in)
	case intentTimer:
		outs = a.room.HandleTimer(in.timer)
	case intentEvict:
		if in.seq == a.evictSeq {
			a.log.Debug().Str("phase", a.room.Phase().String()).Msg("eviction timeout reached")
			a.onEvict(a)
		}
		return
	case intentSnapshot:
		in.snap <- a.room.Snapshot()
		return
	}

	if err != nil {
		a.log.Debug().Err(err).Str("player", in.playerID).Str("intent", in.kind.String()).Msg("intent rejected")
		if in.reply != nil {
			in.reply <- err
		}
		return
	}

	a.deliver(outs)
	a.afterTransition()
	if in.reply != nil {
		in.reply <- nil
	}
}

func (a *RoomActor) handleCreate(in intent) error {
	if !a.room.HasPlayer(in.playerID) {
		return ErrNotInRoom
	}
	a.attach(in.playerID, in.client)
	a.sendTo(in.client, MakePacketRoomCreated(in.playerID, in.token, a.room.Snapshot()))
	return nil
}

func (a *RoomActor) handleJoin(in intent) ([]Outbound, error) {
	outs, err := a.room.Join(in.playerID, in.name)
	if err != nil {
		return nil, err
	}
	a.attach(in.playerID, in.client)
	a.sendTo(in.client, MakePacketRoomJoined(in.playerID, in.token, a.room.Snapshot()))

	// the joiner already has the roster from RoomJoined
	for i := range outs {
		if outs[i].To == "" && outs[i].Except == "" {
			outs[i].Except = in.playerID
		}
	}
	return outs, nil
}

func (a *RoomActor) handleResume(in intent) error {
	if !a.room.HasPlayer(in.playerID) {
		return ErrNotInRoom
	}
	a.attach(in.playerID, in.client)

	var view *QuestionView
	number := 0
	if q, ok := a.room.ActiveQuestion(); ok {
		view = &q
		number = a.room.QuestionIndex() + 1
	}
	a.sendTo(in.client, MakePacketResync(a.room.Snapshot(), view, number))
	if a.room.Phase() == PhaseFinished {
		a.sendTo(in.client, MakePacketGameFinished(a.room.Ranking()))
	}
	a.log.Info().Str("player", in.playerID).Msg("player resumed")
	return nil
}

func (a *RoomActor) handleLeave(in intent) ([]Outbound, error) {
	outs, err := a.room.Leave(in.playerID)
	if err != nil && !errors.Is(err, ErrGameFinished) {
		return nil, err
	}

	// a finished room still releases the connection
	a.stopGrace(in.playerID)
	if c, ok := a.clients[in.playerID]; ok {
		delete(a.clients, in.playerID)
		c.Unbind(a, in.playerID)
		a.sendTo(c, MakePacketLeftRoom(a.code))
	}
	return outs, err
}

func (a *RoomActor) handleGraceExpired(in intent) []Outbound {
	g, ok := a.graces[in.playerID]
	if !ok || g.seq != in.seq {
		return nil
	}
	delete(a.graces, in.playerID)
	if _, attached := a.clients[in.playerID]; attached {
		return nil
	}

	outs, err := a.room.Leave(in.playerID)
	if err != nil {
		a.log.Debug().Err(err).Str("player", in.playerID).Msg("implicit leave ignored")
		return nil
	}
	a.log.Info().Str("player", in.playerID).Msg("player dropped after reconnect grace")
	return outs
}

func (a *RoomActor) attach(playerID string, c Client) {
	a.stopGrace(playerID)
	if old, ok := a.clients[playerID]; ok && old != c {
		old.Unbind(a, playerID)
		old.Close("session-replaced")
	}
	a.clients[playerID] = c
	c.SetRoom(a, playerID)
}

// detach drops the connection of playerID and starts the reconnect grace.
func (a *RoomActor) detach(playerID string) {
	delete(a.clients, playerID)
	if a.room.Phase() == PhaseFinished || !a.room.HasPlayer(playerID) {
		return
	}

	a.stopGrace(playerID)
	a.graceSeq++
	seq := a.graceSeq
	t := time.AfterFunc(a.settings.ReconnectGrace, func() {
		a.post(context.Background(), intent{kind: intentGraceExpired, playerID: playerID, seq: seq})
	})
	a.graces[playerID] = graceTimer{t: t, seq: seq}
	a.log.Debug().Str("player", playerID).Dur("grace", a.settings.ReconnectGrace).Msg("player detached")
}

func (a *RoomActor) stopGrace(playerID string) {
	if g, ok := a.graces[playerID]; ok {
		g.t.Stop()
		delete(a.graces, playerID)
	}
}

func (a *RoomActor) afterTransition() {
	a.persist()

	switch a.room.Phase() {
	case PhaseInProgress:
		a.cancelEviction()
	case PhaseFinished:
		if !a.resultSaved {
			a.saveResult()
			a.scheduleEviction(a.settings.FinishedTTL)
		}
	}

	if a.room.ShouldEvict() {
		a.onEvict(a)
	}
}

func (a *RoomActor) deliver(outs []Outbound) {
	if len(outs) == 0 {
		return
	}
	now := a.now().UnixMilli()
	for _, out := range outs {
		out.Packet.ServerTimestamp = now
		if out.To != "" {
			if c, ok := a.clients[out.To]; ok {
				a.send(out.To, c, out.Packet)
			}
			continue
		}
		for id, c := range a.clients {
			if id != out.Except {
				a.send(id, c, out.Packet)
			}
		}
	}
}

func (a *RoomActor) send(playerID string, c Client, p *ServerPacket) {
	if err := c.Send(p); err != nil {
		a.log.Warn().Err(err).Str("player", playerID).Msg("dropping slow connection")
		c.Unbind(a, playerID)
		c.Close(string(KindUnknown))
		a.detach(playerID)
	}
}

func (a *RoomActor) sendTo(c Client, p *ServerPacket) {
	p.ServerTimestamp = a.now().UnixMilli()
	if err := c.Send(p); err != nil {
		a.log.Warn().Err(err).Msg("failed to reach connection")
	}
}

// persist queues the current snapshot unless it matches the last one queued.
// A full queue drops the write; the next transition retries it.
func (a *RoomActor) persist() {
	if a.snapshots == nil {
		return
	}
	snap := a.room.Snapshot()
	snap.TimeRemaining = 0
	if a.persisted != nil && cmp.Equal(*a.persisted, snap) {
		return
	}

	queued := a.writer.tryEnqueue(storeJob{name: "snapshot", run: func(ctx context.Context) error {
		return a.snapshots.Save(ctx, snap)
	}})
	if !queued {
		a.log.Warn().Str("phase", snap.Phase).Msg("snapshot queue full, write skipped")
		return
	}
	a.persisted = &snap
}

func (a *RoomActor) saveResult() {
	a.resultSaved = true
	ranking := a.room.Ranking()
	a.log.Info().Int("players", len(ranking)).Msg("game finished")
	if a.results == nil {
		return
	}

	result := domain.SessionResult{
		RoomCode:       a.code,
		Mode:           string(a.settings.Mode),
		TotalQuestions: a.settings.TotalQuestions,
		FinishedAt:     a.now().UTC(),
		Ranking:        ranking,
		Answers:        a.room.AnswerLog(),
	}
	a.writer.enqueue(storeJob{name: "result", run: func(ctx context.Context) error {
		return a.results.SaveResult(ctx, result)
	}})
}

func (a *RoomActor) scheduleEviction(after time.Duration) {
	a.cancelEviction()
	seq := a.evictSeq
	a.evictTimer = time.AfterFunc(after, func() {
		a.post(context.Background(), intent{kind: intentEvict, seq: seq})
	})
}

func (a *RoomActor) cancelEviction() {
	if a.evictTimer != nil {
		a.evictTimer.Stop()
		a.evictTimer = nil
	}
	a.evictSeq++
}

func (a *RoomActor) teardown() {
	a.room.Close()
	a.cancelEviction()
	for id := range a.graces {
		a.stopGrace(id)
	}

	for id, c := range a.clients {
		c.Unbind(a, id)
		a.sendTo(c, MakePacketLeftRoom(a.code))
		delete(a.clients, id)
	}

	if a.snapshots != nil {
		a.writer.enqueue(storeJob{name: "delete", run: func(ctx context.Context) error {
			return a.snapshots.Delete(ctx, a.code)
		}})
	}
	a.writer.flush()
	a.log.Debug().Msg("room actor stopped")
}
