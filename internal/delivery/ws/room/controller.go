package ws_room

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	usecase_room "github.com/andrewjfei/klick-server/internal/usecase/room"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Controller struct {
	hub        *Hub
	usecase    Coordinator
	dispatcher *Dispatcher
	limits     Limits
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithLimits(limits Limits) ControllerOption {
	return func(c *Controller) {
		c.limits = limits
	}
}

// WithAllowedOrigins restricts the upgrade to the listed Origin headers.
// Without it every origin is accepted.
func WithAllowedOrigins(origins []string) ControllerOption {
	return func(c *Controller) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[o] = true
		}
		c.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		}
	}
}

func NewController(hub *Hub, usecase Coordinator, opts ...ControllerOption) *Controller {
	c := &Controller{
		hub:     hub,
		usecase: usecase,
		limits:  DefaultLimits(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dispatcher = NewDispatcher(usecase, hub, c.logger)
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", c.serve)
}

func (c *Controller) serve(ctx *gin.Context) {
	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("failed to upgrade connection", slog.String("error", err.Error()))
		return
	}

	client := NewClient(conn, c.limits.SendBuffer)
	c.hub.Register(client)

	// The request context ends with this handler; the connection
	// lifetime is owned by the read loop instead.
	connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx.Request.Context()))
	defer cancel()

	go client.WriteLoop(c.limits)
	client.ReadLoop(c.limits, c.logger, func(frame []byte) {
		c.dispatcher.Handle(connCtx, client.ID, frame)
	})

	c.disconnect(connCtx, client)
}

// disconnect removes the client from its groups before the departure is
// announced, so the leaver is not among the recipients.
func (c *Controller) disconnect(ctx context.Context, client *Client) {
	c.hub.Remove(client)

	err := c.usecase.Disconnect(ctx, client.ID)
	if err != nil && !errors.Is(err, usecase_room.ErrNoSession) {
		c.logger.Warn("disconnect cleanup failed",
			slog.String("connection_id", client.ID),
			slog.String("error", err.Error()))
	}
}
