package http_health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Controller struct{}

func New() *Controller {
	return &Controller{}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/healthz", c.healthz)
}

type StatusResponseDTO struct {
	Status string `json:"status"`
}

func (c *Controller) healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, StatusResponseDTO{Status: "ok"})
}
