package ws_room

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/andrewjfei/klick-server/internal/model"
	usecase_room "github.com/andrewjfei/klick-server/internal/usecase/room"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

// Request targets, one per room operation.
const (
	TargetCreateRoom   = "CreateRoom"
	TargetJoinRoom     = "JoinRoom"
	TargetChooseName   = "ChooseName"
	TargetAddCriterion = "AddCriterion"
	TargetAddTeam      = "AddTeam"
	TargetStartScoring = "StartScoring"
	TargetGiveScore    = "GiveScore"
	TargetSendMessage  = "SendMessage"
)

var (
	ErrMalformedRequest = errors.New("malformed request")
	ErrUnknownTarget    = errors.New("unknown target")
)

type Coordinator interface {
	CreateRoom(ctx context.Context, connID model.ConnID) (model.RoomCode, error)
	JoinRoom(ctx context.Context, connID model.ConnID, code model.RoomCode) (bool, error)
	ChooseName(ctx context.Context, connID model.ConnID, name string) error
	AddCriterion(ctx context.Context, connID model.ConnID, text model.Criterion) error
	AddTeam(ctx context.Context, connID model.ConnID, name string) (uuid.UUID, error)
	StartScoring(ctx context.Context, connID model.ConnID, teamID uuid.UUID) error
	GiveScore(ctx context.Context, connID model.ConnID, teamID uuid.UUID, score int) error
	SendMessage(ctx context.Context, connID model.ConnID, text string) error
	Disconnect(ctx context.Context, connID model.ConnID) error
}

type Request struct {
	ID      string          `json:"id"`
	Target  string          `json:"target" binding:"required"`
	Payload json.RawMessage `json:"payload"`
}

type ResultPayload struct {
	RequestID string `json:"request_id"`
	Result    any    `json:"result"`
}

type ErrorPayload struct {
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message"`
}

type JoinRoomDTO struct {
	RoomCode string `json:"room_code" binding:"required"`
}

type ChooseNameDTO struct {
	Name string `json:"name" binding:"required"`
}

type AddCriterionDTO struct {
	Text string `json:"text" binding:"required"`
}

type AddTeamDTO struct {
	Name string `json:"name" binding:"required"`
}

type StartScoringDTO struct {
	TeamID string `json:"team_id" binding:"required,uuid"`
}

type GiveScoreDTO struct {
	TeamID string `json:"team_id" binding:"required,uuid"`
	Score  *int   `json:"score" binding:"required"`
}

type SendMessageDTO struct {
	Text string `json:"text" binding:"required"`
}

type replier interface {
	SendTo(connID model.ConnID, event model.Event) error
}

// Dispatcher decodes inbound frames and routes them to the coordinator.
type Dispatcher struct {
	usecase Coordinator
	replies replier
	logger  *slog.Logger
}

func NewDispatcher(usecase Coordinator, replies replier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		usecase: usecase,
		replies: replies,
		logger:  logger,
	}
}

// Handle processes one frame from connID. Operations on missing sessions,
// rooms or teams answer with a null result; only frames that can not be
// decoded or validated produce an ERROR event.
func (d *Dispatcher) Handle(ctx context.Context, connID model.ConnID, frame []byte) {
	var req Request
	if err := json.Unmarshal(frame, &req); err != nil {
		d.fail(connID, "", ErrMalformedRequest)
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		d.fail(connID, req.ID, ErrMalformedRequest)
		return
	}

	result, err := d.dispatch(ctx, connID, req)
	switch {
	case err == nil:
	case errors.Is(err, ErrMalformedRequest),
		errors.Is(err, ErrUnknownTarget),
		errors.Is(err, usecase_room.ErrInvalidScore):
		d.fail(connID, req.ID, err)
		return
	case errors.Is(err, usecase_room.ErrResourceNotFound):
		d.logger.Debug("request ignored",
			slog.String("connection_id", connID),
			slog.String("target", req.Target),
			slog.String("error", err.Error()))
	case errors.Is(err, usecase_room.ErrBroadcast):
		d.logger.Warn("request broadcast failed",
			slog.String("connection_id", connID),
			slog.String("target", req.Target),
			slog.String("error", err.Error()))
	default:
		d.logger.Error("request failed",
			slog.String("connection_id", connID),
			slog.String("target", req.Target),
			slog.String("error", err.Error()))
	}

	d.reply(connID, model.Event{
		Type: model.EventResult,
		Payload: ResultPayload{
			RequestID: req.ID,
			Result:    result,
		},
	})
}

func (d *Dispatcher) dispatch(ctx context.Context, connID model.ConnID, req Request) (any, error) {
	switch req.Target {
	case TargetCreateRoom:
		code, err := d.usecase.CreateRoom(ctx, connID)
		if code == model.EmptyRoomCode {
			return nil, err
		}
		return code, err

	case TargetJoinRoom:
		var dto JoinRoomDTO
		if err := decode(req.Payload, &dto); err != nil {
			return nil, err
		}
		return d.usecase.JoinRoom(ctx, connID, dto.RoomCode)

	case TargetChooseName:
		var dto ChooseNameDTO
		if err := decode(req.Payload, &dto); err != nil {
			return nil, err
		}
		return nil, d.usecase.ChooseName(ctx, connID, dto.Name)

	case TargetAddCriterion:
		var dto AddCriterionDTO
		if err := decode(req.Payload, &dto); err != nil {
			return nil, err
		}
		return nil, d.usecase.AddCriterion(ctx, connID, dto.Text)

	case TargetAddTeam:
		var dto AddTeamDTO
		if err := decode(req.Payload, &dto); err != nil {
			return nil, err
		}
		id, err := d.usecase.AddTeam(ctx, connID, dto.Name)
		if err != nil {
			return nil, err
		}
		return id.String(), nil

	case TargetStartScoring:
		var dto StartScoringDTO
		if err := decode(req.Payload, &dto); err != nil {
			return nil, err
		}
		return nil, d.usecase.StartScoring(ctx, connID, uuid.MustParse(dto.TeamID))

	case TargetGiveScore:
		var dto GiveScoreDTO
		if err := decode(req.Payload, &dto); err != nil {
			return nil, err
		}
		return nil, d.usecase.GiveScore(ctx, connID, uuid.MustParse(dto.TeamID), *dto.Score)

	case TargetSendMessage:
		var dto SendMessageDTO
		if err := decode(req.Payload, &dto); err != nil {
			return nil, err
		}
		return nil, d.usecase.SendMessage(ctx, connID, dto.Text)
	}

	return nil, ErrUnknownTarget
}

func decode(raw json.RawMessage, dto any) error {
	if len(raw) == 0 {
		return ErrMalformedRequest
	}
	if err := json.Unmarshal(raw, dto); err != nil {
		return errors.Join(ErrMalformedRequest, err)
	}
	if err := binding.Validator.ValidateStruct(dto); err != nil {
		return errors.Join(ErrMalformedRequest, err)
	}
	return nil
}

func (d *Dispatcher) fail(connID model.ConnID, requestID string, err error) {
	d.logger.Debug("request rejected",
		slog.String("connection_id", connID),
		slog.String("error", err.Error()))

	message := err.Error()
	switch {
	case errors.Is(err, ErrMalformedRequest):
		message = ErrMalformedRequest.Error()
	case errors.Is(err, ErrUnknownTarget):
		message = ErrUnknownTarget.Error()
	}

	d.reply(connID, model.Event{
		Type: model.EventError,
		Payload: ErrorPayload{
			RequestID: requestID,
			Message:   message,
		},
	})
}

func (d *Dispatcher) reply(connID model.ConnID, event model.Event) {
	if err := d.replies.SendTo(connID, event); err != nil {
		d.logger.Debug("reply not delivered",
			slog.String("connection_id", connID),
			slog.String("error", err.Error()))
	}
}
