package ws_room

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/andrewjfei/klick-server/internal/model"
	storage_room "github.com/andrewjfei/klick-server/internal/storage/room"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type ClusterSuite struct {
	suite.Suite
}

// sharedCodes stands in for the cross-instance code set.
type sharedCodes struct {
	mu    sync.Mutex
	codes map[model.RoomCode]bool
}

func (s *sharedCodes) Reserve(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes[code] {
		return false, nil
	}
	s.codes[code] = true
	return true, nil
}

func newInstance(t provider.T, bus *fakeBus, codes *sharedCodes, generated ...model.RoomCode) *env {
	e := newEnvWith(
		[]HubOption{WithBus(bus)},
		[]storage_room.Option{storage_room.WithReserver(codes)},
		generated...,
	)
	t.Require().NoError(e.hub.Start(e.ctx))
	return e
}

func createRoom(t provider.T, e *env, c *Client) model.RoomCode {
	e.call(c, TargetCreateRoom, nil)
	var code model.RoomCode
	t.Require().NoError(json.Unmarshal(lastResult(t, drain(t, c)).Result, &code))
	return code
}

func (s *ClusterSuite) TestInstancesNeverShareRoomCode(t provider.T) {
	t.Parallel()
	bus := &fakeBus{}
	codes := &sharedCodes{codes: make(map[model.RoomCode]bool)}
	first := newInstance(t, bus, codes, "AB12CD")
	second := newInstance(t, bus, codes, "AB12CD", "ZX98YW")
	a, b := first.connect("a"), second.connect("b")

	codeA := createRoom(t, first, a)
	codeB := createRoom(t, second, b)

	assert.Equal(t, "AB12CD", codeA)
	assert.Equal(t, "ZX98YW", codeB)
	assert.False(t, second.rooms.Exists(codeA))

	first.call(a, TargetSendMessage, SendMessageDTO{Text: "only for room A"})
	assert.Len(t, ofType(drain(t, a), model.EventMessage), 1)
	assert.Empty(t, drain(t, b))

	second.call(b, TargetSendMessage, SendMessageDTO{Text: "only for room B"})
	assert.Len(t, ofType(drain(t, b), model.EventMessage), 1)
	assert.Empty(t, drain(t, a))
}

func (s *ClusterSuite) TestBusFansOutToEveryInstance(t provider.T) {
	t.Parallel()
	bus := &fakeBus{}
	codes := &sharedCodes{codes: make(map[model.RoomCode]bool)}
	first := newInstance(t, bus, codes, "ROOM01")
	second := newInstance(t, bus, codes)
	a, b := first.connect("a"), second.connect("b")

	code := createRoom(t, first, a)
	t.Require().NoError(second.hub.JoinGroup(second.ctx, "b", code))

	first.call(a, TargetSendMessage, SendMessageDTO{Text: "hello"})

	assert.Len(t, ofType(drain(t, a), model.EventMessage), 1)
	assert.Len(t, ofType(drain(t, b), model.EventMessage), 1)
}

func TestClusterSuite(t *testing.T) {
	suite.RunSuite(t, new(ClusterSuite))
}
