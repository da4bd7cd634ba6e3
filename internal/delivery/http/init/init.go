package http_init

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

const (
	apiPrefix       = "/api/v1"
	shutdownTimeout = 10 * time.Second
)

type Controller interface {
	RegisterRoutes(router *gin.RouterGroup)
}

type ControllerPool struct {
	pool   []Controller
	root   []Controller
	rg     *gin.RouterGroup
	engine *gin.Engine
	logger *slog.Logger
}

func NewControllerPool(logger *slog.Logger) *ControllerPool {
	engine := gin.New()
	engine.Use(gin.Recovery())
	rg := engine.Group(apiPrefix)
	return &ControllerPool{
		pool:   make([]Controller, 0, 10),
		rg:     rg,
		engine: engine,
		logger: logger,
	}
}

// Add mounts c under the versioned API prefix.
func (pool *ControllerPool) Add(c Controller) {
	pool.pool = append(pool.pool, c)
}

// AddRoot mounts c at the engine root, outside the API prefix.
func (pool *ControllerPool) AddRoot(c Controller) {
	pool.root = append(pool.root, c)
}

func (pool *ControllerPool) Register() {
	for _, c := range pool.pool {
		c.RegisterRoutes(pool.rg)
	}
	for _, c := range pool.root {
		c.RegisterRoutes(&pool.engine.RouterGroup)
	}
}

func (pool *ControllerPool) Handler() http.Handler {
	return pool.engine
}

// RunAll serves until ctx is done, then drains in-flight requests.
func (pool *ControllerPool) RunAll(ctx context.Context, host, port string, allowedOrigins []string) error {
	handler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(pool.engine)

	srv := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		pool.logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	pool.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
