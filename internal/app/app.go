package app

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/andrewjfei/klick-server/internal/config"
	http_health "github.com/andrewjfei/klick-server/internal/delivery/http/health"
	http_init "github.com/andrewjfei/klick-server/internal/delivery/http/init"
	http_metrics "github.com/andrewjfei/klick-server/internal/delivery/http/metrics"
	http_room "github.com/andrewjfei/klick-server/internal/delivery/http/room"
	ws_room "github.com/andrewjfei/klick-server/internal/delivery/ws/room"
	infra_prometheus "github.com/andrewjfei/klick-server/internal/infra/prometheus"
	infra_redis_bus "github.com/andrewjfei/klick-server/internal/infra/redis/bus"
	infra_redis_init "github.com/andrewjfei/klick-server/internal/infra/redis/init"
	infra_redis_roomcode_set "github.com/andrewjfei/klick-server/internal/infra/redis/roomcode_set"
	storage_room "github.com/andrewjfei/klick-server/internal/storage/room"
	storage_session "github.com/andrewjfei/klick-server/internal/storage/session"
	usecase_room "github.com/andrewjfei/klick-server/internal/usecase/room"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Go(cfg *config.Config) {
	logger := NewLogger(cfg.Env)
	slog.SetDefault(logger)
	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		roomOpts []storage_room.Option
		hubOpts  = []ws_room.HubOption{ws_room.WithHubLogger(logger)}
	)
	// Instances sharing the bus must also share the room code space.
	if cfg.Redis.Enabled {
		redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
		defer redisConn.Close()
		roomOpts = append(roomOpts, storage_room.WithReserver(infra_redis_roomcode_set.New(redisConn, cfg.Redis.CodeKey)))
		hubOpts = append(hubOpts, ws_room.WithBus(infra_redis_bus.New(redisConn, cfg.Redis.Channel, logger)))
	}

	roomRegistry := storage_room.New(roomOpts...)
	sessionRegistry := storage_session.New()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := infra_prometheus.MustRegister(registry, roomRegistry, sessionRegistry)

	hub := ws_room.NewHub(append(hubOpts, ws_room.WithRecorder(metrics))...)
	if err := hub.Start(ctx); err != nil {
		log.Fatalf("failed to subscribe hub to bus: %v", err)
	}

	roomUC := usecase_room.New(roomRegistry, sessionRegistry, hub, usecase_room.WithLogger(logger))

	controllerPool := http_init.NewControllerPool(logger)
	controllerPool.Add(ws_room.NewController(hub, roomUC,
		ws_room.WithLogger(logger),
		ws_room.WithAllowedOrigins(cfg.CORS.AllowedOrigins),
		ws_room.WithLimits(ws_room.Limits{
			SendBuffer:     cfg.Hub.SendBuffer,
			WriteWait:      cfg.Hub.WriteWait,
			PongWait:       cfg.Hub.PongWait,
			PingPeriod:     cfg.Hub.PingPeriod,
			MaxMessageSize: cfg.Hub.MaxMessageSize,
		}),
	))
	controllerPool.Add(http_room.New(roomRegistry))
	controllerPool.Add(http_health.New())
	controllerPool.AddRoot(http_metrics.New(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	controllerPool.Register()
	if err := controllerPool.RunAll(ctx, cfg.HTTP.Host, cfg.HTTP.Port, cfg.CORS.AllowedOrigins); err != nil {
		log.Fatalf("failed to run HTTP server: %v", err)
	}
}
