package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/CodeRoom/internal/adapters/ws"
	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/config"
	"github.com/dkeye/CodeRoom/internal/services/boiler"
	"github.com/dkeye/CodeRoom/internal/services/runner"
)

// ParticipantTokenMiddleware hands every browser a stable uuid cookie.
// It survives page reloads, so it doubles as the default participant
// identifier when a client does not supply one.
func ParticipantTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("pt")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("pt", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("participant_token", token)
		c.Next()
	}
}

type Deps struct {
	Registry *app.Registry
	WS       *ws.Controller
	Runner   *runner.Client
	Boiler   *boiler.Client
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("CodeRoomSessions", store))
	r.Use(ParticipantTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": deps.Registry.List()})
	})

	api.GET("/languages", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"languages": runner.Supported()})
	})

	// POST /api/execute runs a snippet through the execution service.
	// The result goes to this requester only, never room-wide.
	api.POST("/execute", func(c *gin.Context) {
		var req struct {
			Language string `json:"language" binding:"required"`
			Source   string `json:"source" binding:"required"`
			Stdin    string `json:"stdin"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		res, err := deps.Runner.Run(c.Request.Context(), runner.Request{
			Language: req.Language,
			Source:   req.Source,
			Stdin:    req.Stdin,
		})
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("execute failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, res)
	})

	// POST /api/boilerplate wraps a body in language boilerplate via
	// the generation service.
	api.POST("/boilerplate", func(c *gin.Context) {
		var req struct {
			Language string `json:"language" binding:"required"`
			Body     string `json:"body"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		out, err := deps.Boiler.Generate(c.Request.Context(), req.Language, req.Body)
		if err != nil {
			if errors.Is(err, boiler.ErrEmptyOutput) {
				c.JSON(http.StatusOK, gin.H{"ok": false, "output": ""})
				return
			}
			log.Error().Err(err).Str("module", "adapters.http").Msg("boilerplate failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "output": out})
	})

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("participant_token", c.GetString("participant_token")).Msg("ws endpoint hit")
		deps.WS.Handle(ctx, c)
	})

	return r
}
