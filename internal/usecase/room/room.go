package usecase_room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andrewjfei/klick-server/internal/model"
	"github.com/google/uuid"
)

var (
	ErrResourceNotFound = errors.New("no such resource")
	ErrNoSession        = fmt.Errorf("%w: connection has no session", ErrResourceNotFound)
	ErrRoomNotFound     = fmt.Errorf("%w: room", ErrResourceNotFound)
	ErrTeamNotFound     = fmt.Errorf("%w: team", ErrResourceNotFound)

	ErrInvalidScore = errors.New("score must not be negative")
	ErrBroadcast    = errors.New("broadcast failed")
	ErrInternal     = errors.New("internal error")
)

type RoomRegistry interface {
	Create(ctx context.Context) (model.RoomCode, error)
	Exists(code model.RoomCode) bool
	AddCriterion(code model.RoomCode, text model.Criterion) error
	Criteria(code model.RoomCode) ([]model.Criterion, error)
	AddTeam(code model.RoomCode, name string) (model.Team, error)
	FindTeam(code model.RoomCode, teamID uuid.UUID) (model.Team, error)
	AddScore(code model.RoomCode, teamID uuid.UUID, delta int) (model.Team, error)
}

type SessionRegistry interface {
	Put(connID model.ConnID, code model.RoomCode) (prev model.Session, replaced bool)
	Get(connID model.ConnID) (model.Session, bool)
	SetName(connID model.ConnID, name string) (model.Session, bool)
	Remove(connID model.ConnID) (model.Session, bool)
}

// Broadcaster is the transport side of a room: group membership keyed by
// room code and fire-and-forget delivery to everyone in a group.
//
//go:generate mockery --name=Broadcaster --output=../../../mocks/broadcaster --filename=broadcaster.go
type Broadcaster interface {
	JoinGroup(ctx context.Context, connID model.ConnID, group string) error
	LeaveGroup(ctx context.Context, connID model.ConnID, group string) error
	SendToGroup(ctx context.Context, group string, event model.Event) error
}

type Usecase struct {
	rooms    RoomRegistry
	sessions SessionRegistry
	groups   Broadcaster

	logger *slog.Logger
}

type Option func(*Usecase)

func WithLogger(logger *slog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func New(
	rooms RoomRegistry,
	sessions SessionRegistry,
	groups Broadcaster,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		rooms:    rooms,
		sessions: sessions,
		groups:   groups,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Usecase) CreateRoom(ctx context.Context, connID model.ConnID) (model.RoomCode, error) {
	code, err := u.rooms.Create(ctx)
	if err != nil {
		return model.EmptyRoomCode, errors.Join(ErrInternal, err)
	}
	u.logger.Info("room created", slog.String("room_code", code), slog.String("connection_id", connID))

	if err := u.enter(ctx, connID, code); err != nil {
		return code, err
	}
	return code, nil
}

func (u *Usecase) JoinRoom(ctx context.Context, connID model.ConnID, code model.RoomCode) (bool, error) {
	if !u.rooms.Exists(code) {
		u.logger.Debug("room does not exist", slog.String("room_code", code))
		return false, ErrRoomNotFound
	}

	if err := u.enter(ctx, connID, code); err != nil {
		return false, err
	}
	u.logger.Info("joined room", slog.String("room_code", code), slog.String("connection_id", connID))
	return true, nil
}

// enter binds the session only once group membership succeeded, so a
// failed join leaves the previous session and group untouched.
func (u *Usecase) enter(ctx context.Context, connID model.ConnID, code model.RoomCode) error {
	if err := u.groups.JoinGroup(ctx, connID, code); err != nil {
		return errors.Join(ErrBroadcast, err)
	}

	prev, replaced := u.sessions.Put(connID, code)
	if replaced && prev.RoomCode != code {
		if err := u.groups.LeaveGroup(ctx, connID, prev.RoomCode); err != nil {
			u.logger.Warn("failed to leave previous group",
				slog.String("room_code", prev.RoomCode),
				slog.String("connection_id", connID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (u *Usecase) ChooseName(ctx context.Context, connID model.ConnID, name string) error {
	session, ok := u.sessions.SetName(connID, name)
	if !ok {
		return ErrNoSession
	}

	return u.broadcast(ctx, session.RoomCode, model.NewUserJoinedEvent(name))
}

func (u *Usecase) AddCriterion(ctx context.Context, connID model.ConnID, text model.Criterion) error {
	session, ok := u.sessions.Get(connID)
	if !ok {
		return ErrNoSession
	}

	if err := u.rooms.AddCriterion(session.RoomCode, text); err != nil {
		return err
	}
	u.logger.Debug("criterion added", slog.String("room_code", session.RoomCode), slog.String("criterion", text))
	return nil
}

func (u *Usecase) AddTeam(ctx context.Context, connID model.ConnID, name string) (uuid.UUID, error) {
	session, ok := u.sessions.Get(connID)
	if !ok {
		return uuid.Nil, ErrNoSession
	}

	team, err := u.rooms.AddTeam(session.RoomCode, name)
	if err != nil {
		return uuid.Nil, err
	}
	u.logger.Info("team added",
		slog.String("room_code", session.RoomCode),
		slog.String("team_id", team.ID.String()),
		slog.String("team_name", team.Name))
	return team.ID, nil
}

func (u *Usecase) StartScoring(ctx context.Context, connID model.ConnID, teamID uuid.UUID) error {
	session, ok := u.sessions.Get(connID)
	if !ok {
		return ErrNoSession
	}

	team, err := u.rooms.FindTeam(session.RoomCode, teamID)
	if err != nil {
		return err
	}
	criteria, err := u.rooms.Criteria(session.RoomCode)
	if err != nil {
		return err
	}

	return u.broadcast(ctx, session.RoomCode, model.NewStartScoringEvent(criteria, team))
}

func (u *Usecase) GiveScore(ctx context.Context, connID model.ConnID, teamID uuid.UUID, score int) error {
	if score < 0 {
		return ErrInvalidScore
	}

	session, ok := u.sessions.Get(connID)
	if !ok {
		return ErrNoSession
	}

	team, err := u.rooms.AddScore(session.RoomCode, teamID, score)
	if err != nil {
		return err
	}

	return u.broadcast(ctx, session.RoomCode, model.NewScoreUpdatedEvent(connID, team))
}

func (u *Usecase) SendMessage(ctx context.Context, connID model.ConnID, text string) error {
	session, ok := u.sessions.Get(connID)
	if !ok {
		return ErrNoSession
	}

	return u.broadcast(ctx, session.RoomCode, model.NewMessageEvent(connID, text))
}

// Disconnect drops the connection's session. Only the first call for a
// connection finds a session, so departure is announced at most once.
func (u *Usecase) Disconnect(ctx context.Context, connID model.ConnID) error {
	session, ok := u.sessions.Remove(connID)
	if !ok {
		return ErrNoSession
	}
	u.logger.Info("session removed", slog.String("room_code", session.RoomCode), slog.String("connection_id", connID))

	if !session.HasName() {
		return nil
	}
	return u.broadcast(ctx, session.RoomCode, model.NewUserLeftEvent(session.DisplayName()))
}

func (u *Usecase) broadcast(ctx context.Context, code model.RoomCode, event model.Event) error {
	if err := u.groups.SendToGroup(ctx, code, event); err != nil {
		return errors.Join(ErrBroadcast, err)
	}
	return nil
}
