package storage_room

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"github.com/andrewjfei/klick-server/internal/model"
	usecase_room "github.com/andrewjfei/klick-server/internal/usecase/room"
	"github.com/google/uuid"
)

const (
	codeLen      = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type CodeGenerator func() model.RoomCode

// CodeReserver claims a code outside this process, so instances sharing
// group traffic never hand out the same code twice.
type CodeReserver interface {
	Reserve(ctx context.Context, code model.RoomCode) (bool, error)
}

// Registry keeps every room in memory. The registry lock only guards the
// code -> room map; room contents are guarded by the room's own lock.
type Registry struct {
	mu    sync.RWMutex
	rooms map[model.RoomCode]*room

	buildCode CodeGenerator
	reserver  CodeReserver
}

type room struct {
	mu       sync.Mutex
	code     model.RoomCode
	criteria []model.Criterion
	teams    map[uuid.UUID]*model.Team
	order    []uuid.UUID
}

type Option func(*Registry)

func WithReserver(reserver CodeReserver) Option {
	return func(r *Registry) {
		r.reserver = reserver
	}
}

func WithCodeGenerator(g CodeGenerator) Option {
	return func(r *Registry) {
		r.buildCode = g
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		rooms:     make(map[model.RoomCode]*room),
		buildCode: buildRoomCode,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Assuming that codes can conflict.
// Retrying until a free one is reserved or ctx is done.
func (r *Registry) Create(ctx context.Context) (model.RoomCode, error) {
	for {
		if err := ctx.Err(); err != nil {
			return model.EmptyRoomCode, err
		}

		code := r.buildCode()
		if r.Exists(code) {
			continue
		}
		if r.reserver != nil {
			claimed, err := r.reserver.Reserve(ctx, code)
			if err != nil {
				return model.EmptyRoomCode, err
			}
			if !claimed {
				continue
			}
		}
		if r.reserve(code) {
			return code, nil
		}
	}
}

func (r *Registry) reserve(code model.RoomCode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[code]; exists {
		return false
	}
	r.rooms[code] = &room{
		code:     code,
		criteria: make([]model.Criterion, 0),
		teams:    make(map[uuid.UUID]*model.Team),
	}
	return true
}

func (r *Registry) room(code model.RoomCode) (*room, error) {
	r.mu.RLock()
	rm, ok := r.rooms[code]
	r.mu.RUnlock()

	if !ok {
		return nil, usecase_room.ErrRoomNotFound
	}
	return rm, nil
}

func (r *Registry) Exists(code model.RoomCode) bool {
	_, err := r.room(code)
	return err == nil
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) Get(code model.RoomCode) (model.Room, error) {
	rm, err := r.room(code)
	if err != nil {
		return model.Room{}, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	teams := make([]model.Team, 0, len(rm.order))
	for _, id := range rm.order {
		teams = append(teams, *rm.teams[id])
	}
	return model.Room{
		Code:     rm.code,
		Criteria: append([]model.Criterion(nil), rm.criteria...),
		Teams:    teams,
	}, nil
}

func (r *Registry) AddCriterion(code model.RoomCode, text model.Criterion) error {
	rm, err := r.room(code)
	if err != nil {
		return err
	}

	rm.mu.Lock()
	rm.criteria = append(rm.criteria, text)
	rm.mu.Unlock()
	return nil
}

func (r *Registry) Criteria(code model.RoomCode) ([]model.Criterion, error) {
	rm, err := r.room(code)
	if err != nil {
		return nil, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	return append([]model.Criterion(nil), rm.criteria...), nil
}

func (r *Registry) AddTeam(code model.RoomCode, name string) (model.Team, error) {
	rm, err := r.room(code)
	if err != nil {
		return model.Team{}, err
	}

	team := model.NewTeam(name)

	rm.mu.Lock()
	rm.teams[team.ID] = team
	rm.order = append(rm.order, team.ID)
	rm.mu.Unlock()

	return *team, nil
}

func (r *Registry) FindTeam(code model.RoomCode, teamID uuid.UUID) (model.Team, error) {
	rm, err := r.room(code)
	if err != nil {
		return model.Team{}, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	team, ok := rm.teams[teamID]
	if !ok {
		return model.Team{}, usecase_room.ErrTeamNotFound
	}
	return *team, nil
}

func (r *Registry) AddScore(code model.RoomCode, teamID uuid.UUID, delta int) (model.Team, error) {
	rm, err := r.room(code)
	if err != nil {
		return model.Team{}, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	team, ok := rm.teams[teamID]
	if !ok {
		return model.Team{}, usecase_room.ErrTeamNotFound
	}
	team.AddScore(delta)
	return *team, nil
}

func buildRoomCode() model.RoomCode {
	var builder strings.Builder
	builder.Grow(codeLen)

	for range codeLen {
		builder.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}

	return builder.String()
}
