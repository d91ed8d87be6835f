package game

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"

	"yojiquiz/catalog"
)

const maxCodeAttempts = 32

// RoomDeps are shared by every room the registry creates. Snapshots and
// Results are optional.
type RoomDeps struct {
	Settings  Settings
	Catalog   *catalog.Catalog
	Rand      catalog.Rand
	Tickers   PeriodicTickerCreator
	Snapshots SnapshotStore
	Results   ResultsRepo
}

// Registry owns the set of live rooms. Each room is driven by its own actor,
// so the lock only guards the map.
type Registry struct {
	mu    deadlock.RWMutex
	rooms map[string]*RoomActor
	codes UniqueIdGenerator
	deps  RoomDeps
	wg    sync.WaitGroup
}

func NewRegistry(codes UniqueIdGenerator, deps RoomDeps) *Registry {
	return &Registry{
		rooms: make(map[string]*RoomActor),
		codes: codes,
		deps:  deps,
	}
}

// CreateRoom registers a new lobby hosted by hostID and starts its actor.
func (r *Registry) CreateRoom(hostID, hostName string) (*RoomActor, error) {
	if _, err := NormalizeName(hostName); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code := ""
	for range maxCodeAttempts {
		candidate := r.codes.Generate()
		if _, taken := r.rooms[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		log.Warn().Int("live_rooms", len(r.rooms)).Msg("room code space exhausted")
		return nil, ErrCapacityExhausted
	}

	actor, err := newRoomActor(code, hostID, hostName, r.deps, r.evict)
	if err != nil {
		return nil, err
	}
	r.rooms[code] = actor

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		actor.GameLoop()
	}()
	log.Info().Str("room", code).Str("host", hostID).Msg("room created")
	return actor, nil
}

func (r *Registry) Get(code string) (*RoomActor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	actor, ok := r.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return actor, nil
}

// Remove tears the room down. Removing an absent room is a no-op.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	actor, ok := r.rooms[code]
	delete(r.rooms, code)
	r.mu.Unlock()

	if ok {
		actor.Close()
	}
}

// evict is how an actor removes itself; it never removes a newer room that
// reused the same code.
func (r *Registry) evict(actor *RoomActor) {
	r.mu.Lock()
	current, ok := r.rooms[actor.code]
	if ok && current == actor {
		delete(r.rooms, actor.code)
	}
	r.mu.Unlock()

	actor.Close()
	log.Info().Str("room", actor.code).Msg("room evicted")
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// CloseAll closes every live room and waits for their actors to return.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	actors := make([]*RoomActor, 0, len(r.rooms))
	for code, actor := range r.rooms {
		actors = append(actors, actor)
		delete(r.rooms, code)
	}
	r.mu.Unlock()

	for _, actor := range actors {
		actor.Close()
	}
	r.wg.Wait()
}
