package http_room

import (
	"errors"
	"log/slog"
	"net/http"

	http_common "github.com/andrewjfei/klick-server/internal/delivery/http/common"
	"github.com/andrewjfei/klick-server/internal/model"
	usecase_room "github.com/andrewjfei/klick-server/internal/usecase/room"
	"github.com/gin-gonic/gin"
)

type RoomReader interface {
	Get(code model.RoomCode) (model.Room, error)
}

type Controller struct {
	rooms  RoomReader
	logger *slog.Logger
}

func New(rooms RoomReader) *Controller {
	return &Controller{
		rooms:  rooms,
		logger: slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	rooms := router.Group("/rooms")
	{
		rooms.GET("/:room_code", c.snapshot)
	}
}

type TeamDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type RoomResponseDTO struct {
	RoomCode string    `json:"room_code"`
	Criteria []string  `json:"criteria"`
	Teams    []TeamDTO `json:"teams"`
}

func (c *Controller) snapshot(ctx *gin.Context) {
	code := ctx.Param("room_code")

	room, err := c.rooms.Get(code)
	if err != nil {
		if errors.Is(err, usecase_room.ErrResourceNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "room not found",
			})
			return
		}
		c.logger.Error("failed to read room", slog.String("room_code", code), slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	teams := make([]TeamDTO, 0, len(room.Teams))
	for _, t := range room.Teams {
		teams = append(teams, TeamDTO{
			ID:    t.ID.String(),
			Name:  t.Name,
			Score: t.Score,
		})
	}
	criteria := make([]string, 0, len(room.Criteria))
	criteria = append(criteria, room.Criteria...)

	ctx.JSON(http.StatusOK, RoomResponseDTO{
		RoomCode: room.Code,
		Criteria: criteria,
		Teams:    teams,
	})
}
