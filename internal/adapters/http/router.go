package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dialstack/sipvr/internal/adapters/present"
	"github.com/dialstack/sipvr/internal/config"
	"github.com/dialstack/sipvr/internal/core"
)

// CallService is what the API needs from the controller.
type CallService interface {
	StartRegistration(extension string) error
	PlaceCall(destination string, wantsVideo bool) error
	StartVideo() error
	Hangup() error
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, svc CallService, view *present.View) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.POST("/register", func(c *gin.Context) {
		var req struct {
			Account string `json:"account"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.StartRegistration(req.Account); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		log.Info().Str("module", "adapters.http").Str("account", req.Account).Msg("registration requested")
		c.JSON(http.StatusAccepted, gin.H{"account": req.Account})
	})

	api.POST("/call", func(c *gin.Context) {
		var req struct {
			URI   string `json:"uri"`
			Video bool   `json:"video"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.PlaceCall(req.URI, req.Video); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"uri": req.URI})
	})

	api.POST("/video", func(c *gin.Context) {
		if err := svc.StartVideo(); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"room": cfg.VideoRoom})
	})

	api.POST("/hangup", func(c *gin.Context) {
		if err := svc.Hangup(); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "hung up"})
	})

	api.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, view.Snapshot())
	})

	return r
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidAccount):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
