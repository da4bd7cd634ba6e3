package ws_room

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/andrewjfei/klick-server/internal/model"
	storage_room "github.com/andrewjfei/klick-server/internal/storage/room"
	storage_session "github.com/andrewjfei/klick-server/internal/storage/session"
	usecase_room "github.com/andrewjfei/klick-server/internal/usecase/room"
	"github.com/google/uuid"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

const (
	testTimeout = time.Second
	testTick    = 10 * time.Millisecond
)

type ProtocolSuite struct {
	suite.Suite
}

type env struct {
	hub        *Hub
	rooms      *storage_room.Registry
	sessions   *storage_session.Registry
	controller *Controller
	ctx        context.Context
}

func newEnv(codes ...model.RoomCode) *env {
	return newEnvWith(nil, nil, codes...)
}

func newEnvWith(hubOpts []HubOption, roomOpts []storage_room.Option, codes ...model.RoomCode) *env {
	if len(codes) > 0 {
		next := 0
		roomOpts = append(roomOpts, storage_room.WithCodeGenerator(func() model.RoomCode {
			code := codes[next%len(codes)]
			next++
			return code
		}))
	}

	hub := NewHub(hubOpts...)
	rooms := storage_room.New(roomOpts...)
	sessions := storage_session.New()
	uc := usecase_room.New(rooms, sessions, hub)

	return &env{
		hub:        hub,
		rooms:      rooms,
		sessions:   sessions,
		controller: NewController(hub, uc, WithLogger(slog.Default())),
		ctx:        context.Background(),
	}
}

func (e *env) connect(id model.ConnID) *Client {
	c := newTestClient(id, 64)
	e.hub.Register(c)
	return c
}

func (e *env) call(c *Client, target string, payload any) {
	raw, _ := json.Marshal(payload)
	if payload == nil {
		raw = nil
	}
	frame, _ := json.Marshal(Request{
		ID:      uuid.NewString(),
		Target:  target,
		Payload: raw,
	})
	e.controller.dispatcher.Handle(e.ctx, c.ID, frame)
}

type result struct {
	RequestID string          `json:"request_id"`
	Result    json.RawMessage `json:"result"`
}

// lastResult returns the RESULT payload among frames, which must be the last one.
func lastResult(t provider.T, frames []frame) result {
	t.Require().NotEmpty(frames)
	last := frames[len(frames)-1]
	t.Require().Equal(model.EventResult, last.Type)
	var r result
	t.Require().NoError(json.Unmarshal(last.Payload, &r))
	return r
}

func ofType(frames []frame, typ string) []frame {
	out := make([]frame, 0)
	for _, f := range frames {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

func (s *ProtocolSuite) TestScoringRound(t provider.T) {
	t.Parallel()
	e := newEnv("AB12CD")
	a, b := e.connect("conn-a"), e.connect("conn-b")

	e.call(a, TargetCreateRoom, nil)
	created := lastResult(t, drain(t, a))
	assert.JSONEq(t, `"AB12CD"`, string(created.Result))

	e.call(b, TargetJoinRoom, JoinRoomDTO{RoomCode: "AB12CD"})
	assert.JSONEq(t, `true`, string(lastResult(t, drain(t, b)).Result))

	e.call(a, TargetChooseName, ChooseNameDTO{Name: "Alice"})
	e.call(b, TargetChooseName, ChooseNameDTO{Name: "Bob"})
	joinedA := ofType(drain(t, a), model.EventUserJoined)
	joinedB := ofType(drain(t, b), model.EventUserJoined)
	t.Require().Len(joinedA, 2)
	t.Require().Len(joinedB, 2)
	assert.JSONEq(t, `{"name":"Alice","message":"Alice has joined the room."}`, string(joinedA[0].Payload))
	assert.JSONEq(t, `{"name":"Bob","message":"Bob has joined the room."}`, string(joinedB[1].Payload))

	e.call(a, TargetAddCriterion, AddCriterionDTO{Text: "Design"})
	e.call(a, TargetAddCriterion, AddCriterionDTO{Text: "Pitch"})
	e.call(a, TargetAddTeam, AddTeamDTO{Name: "Rockets"})
	var teamID string
	t.Require().NoError(json.Unmarshal(lastResult(t, drain(t, a)).Result, &teamID))
	t.Require().NoError(uuid.Validate(teamID))

	e.call(a, TargetStartScoring, StartScoringDTO{TeamID: teamID})
	for _, c := range []*Client{a, b} {
		started := ofType(drain(t, c), model.EventStartScoring)
		t.Require().Len(started, 1)
		assert.JSONEq(t,
			fmt.Sprintf(`{"criteria":["Design","Pitch"],"team_id":%q,"team_name":"Rockets"}`, teamID),
			string(started[0].Payload))
	}

	seven, ten := 7, 10
	e.call(a, TargetGiveScore, GiveScoreDTO{TeamID: teamID, Score: &seven})
	e.call(b, TargetGiveScore, GiveScoreDTO{TeamID: teamID, Score: &ten})
	for _, c := range []*Client{a, b} {
		updates := ofType(drain(t, c), model.EventScoreUpdated)
		t.Require().Len(updates, 2)
		assert.JSONEq(t,
			fmt.Sprintf(`{"connection_id":"conn-a","team_id":%q,"score":7}`, teamID),
			string(updates[0].Payload))
		assert.JSONEq(t,
			fmt.Sprintf(`{"connection_id":"conn-b","team_id":%q,"score":17}`, teamID),
			string(updates[1].Payload))
	}

	snapshot, err := e.rooms.Get("AB12CD")
	t.Require().NoError(err)
	t.Require().Len(snapshot.Teams, 1)
	assert.Equal(t, 17, snapshot.Teams[0].Score)

	e.call(b, TargetSendMessage, SendMessageDTO{Text: "gg"})
	messages := ofType(drain(t, a), model.EventMessage)
	t.Require().Len(messages, 1)
	assert.JSONEq(t, `{"connection_id":"conn-b","text":"gg"}`, string(messages[0].Payload))
	drain(t, b)

	e.controller.disconnect(e.ctx, b)
	left := ofType(drain(t, a), model.EventUserLeft)
	t.Require().Len(left, 1)
	assert.JSONEq(t, `{"name":"Bob","message":"Bob has left the room."}`, string(left[0].Payload))
	assert.Empty(t, ofType(drain(t, b), model.EventUserLeft))

	e.controller.disconnect(e.ctx, b)
	assert.Empty(t, drain(t, a))
	assert.Equal(t, 1, e.hub.GroupSize("AB12CD"))
	assert.Equal(t, 1, e.sessions.Count())
}

func (s *ProtocolSuite) TestUnknownRoomAndTeam(t provider.T) {
	t.Parallel()
	e := newEnv()
	a := e.connect("conn-a")

	e.call(a, TargetJoinRoom, JoinRoomDTO{RoomCode: "ZZZZZZ"})
	assert.JSONEq(t, `false`, string(lastResult(t, drain(t, a)).Result))

	e.call(a, TargetCreateRoom, nil)
	drain(t, a)

	e.call(a, TargetAddTeam, AddTeamDTO{Name: "Rockets"})
	var teamID string
	t.Require().NoError(json.Unmarshal(lastResult(t, drain(t, a)).Result, &teamID))
	five := 5
	e.call(a, TargetGiveScore, GiveScoreDTO{TeamID: teamID, Score: &five})
	drain(t, a)

	three := 3
	e.call(a, TargetGiveScore, GiveScoreDTO{TeamID: uuid.NewString(), Score: &three})
	frames := drain(t, a)
	t.Require().Len(frames, 1)
	assert.JSONEq(t, `null`, string(lastResult(t, frames).Result))

	e.call(a, TargetStartScoring, StartScoringDTO{TeamID: uuid.NewString()})
	frames = drain(t, a)
	t.Require().Len(frames, 1)
	assert.Equal(t, model.EventResult, frames[0].Type)

	session, ok := e.sessions.Get("conn-a")
	t.Require().True(ok)
	snapshot, err := e.rooms.Get(session.RoomCode)
	t.Require().NoError(err)
	t.Require().Len(snapshot.Teams, 1)
	assert.Equal(t, teamID, snapshot.Teams[0].ID.String())
	assert.Equal(t, 5, snapshot.Teams[0].Score)
}

func (s *ProtocolSuite) TestWithoutSession(t provider.T) {
	t.Parallel()
	e := newEnv()
	a := e.connect("conn-a")

	testCases := []struct {
		target  string
		payload any
	}{
		{TargetChooseName, ChooseNameDTO{Name: "Alice"}},
		{TargetAddCriterion, AddCriterionDTO{Text: "Design"}},
		{TargetAddTeam, AddTeamDTO{Name: "Rockets"}},
		{TargetSendMessage, SendMessageDTO{Text: "hi"}},
	}

	for _, tc := range testCases {
		e.call(a, tc.target, tc.payload)
		frames := drain(t, a)
		t.Require().Len(frames, 1, tc.target)
		assert.JSONEq(t, `null`, string(lastResult(t, frames).Result), tc.target)
	}
	assert.Zero(t, e.sessions.Count())
}

func (s *ProtocolSuite) TestRejectsMalformedRequests(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		frame   string
		message string
	}{
		{
			name:    "Should reject non-json frame",
			frame:   `not json`,
			message: ErrMalformedRequest.Error(),
		},
		{
			name:    "Should reject missing target",
			frame:   `{"id":"1"}`,
			message: ErrMalformedRequest.Error(),
		},
		{
			name:    "Should reject unknown target",
			frame:   `{"id":"1","target":"DeleteRoom"}`,
			message: ErrUnknownTarget.Error(),
		},
		{
			name:    "Should reject missing payload",
			frame:   `{"id":"1","target":"JoinRoom"}`,
			message: ErrMalformedRequest.Error(),
		},
		{
			name:    "Should reject invalid team id",
			frame:   `{"id":"1","target":"StartScoring","payload":{"team_id":"nope"}}`,
			message: ErrMalformedRequest.Error(),
		},
		{
			name:    "Should reject missing score",
			frame:   `{"id":"1","target":"GiveScore","payload":{"team_id":"` + uuid.NewString() + `"}}`,
			message: ErrMalformedRequest.Error(),
		},
		{
			name:    "Should reject negative score",
			frame:   `{"id":"1","target":"GiveScore","payload":{"team_id":"` + uuid.NewString() + `","score":-4}}`,
			message: usecase_room.ErrInvalidScore.Error(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			e := newEnv()
			a := e.connect("conn-a")

			e.controller.dispatcher.Handle(e.ctx, a.ID, []byte(tc.frame))

			frames := drain(t, a)
			t.Require().Len(frames, 1)
			assert.Equal(t, model.EventError, frames[0].Type)
			var payload ErrorPayload
			t.Require().NoError(json.Unmarshal(frames[0].Payload, &payload))
			assert.Equal(t, tc.message, payload.Message)
		})
	}
}

func (s *ProtocolSuite) TestRejoinMovesGroup(t provider.T) {
	t.Parallel()
	e := newEnv("ROOM01", "ROOM02")
	host1, host2, guest := e.connect("h1"), e.connect("h2"), e.connect("g")

	e.call(host1, TargetCreateRoom, nil)
	e.call(host2, TargetCreateRoom, nil)
	e.call(guest, TargetJoinRoom, JoinRoomDTO{RoomCode: "ROOM01"})
	e.call(guest, TargetJoinRoom, JoinRoomDTO{RoomCode: "ROOM02"})
	drain(t, host1)
	drain(t, host2)
	drain(t, guest)

	assert.Equal(t, 1, e.hub.GroupSize("ROOM01"))
	assert.Equal(t, 2, e.hub.GroupSize("ROOM02"))

	e.call(host1, TargetSendMessage, SendMessageDTO{Text: "anyone?"})
	assert.Empty(t, drain(t, guest))
}

func TestProtocolSuite(t *testing.T) {
	suite.RunSuite(t, new(ProtocolSuite))
}
