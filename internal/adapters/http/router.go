package http

import (
	"context"
	"net/http"

	"github.com/dkeye/runchat/internal/adapters/signal"
	"github.com/dkeye/runchat/internal/app/orch"
	"github.com/dkeye/runchat/internal/config"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientTokenKey = "ct"

// ClientTokenMiddleware gives every browser a stable token kept in the
// session cookie. It is the default user id of its connections.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(clientTokenKey).(string)
		if token == "" {
			token = uuid.NewString()
			session.Set(clientTokenKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("RunchatSession", store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ctrl := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:    cfg.ReadLimit,
		PongWait:     cfg.PongWait,
		WriteWait:    cfg.WriteWait,
		SendBuffer:   cfg.SendBuffer,
		RateLimit:    cfg.RateLimit.Messages,
		RateInterval: cfg.RateLimit.Interval,
	})

	api := r.Group("/api")
	api.GET("/ws", func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": o.Rooms.List(false)})
	})
	api.GET("/rooms/:id", func(c *gin.Context) {
		room, ok := o.Rooms.Get(domain.RoomID(c.Param("id")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, room.Info())
	})
	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, o.Stats())
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
