package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizroom/quizroom-server/internal/config"
	"github.com/quizroom/quizroom-server/internal/core"
)

// NewServer builds the HTTP server: health check, the REST lobby view
// of the registry, and the websocket endpoint.
func NewServer(hub *core.Hub, registry *core.Registry, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	rooms := NewRoomHandlers(registry, logger)

	router.GET("/health", healthHandler)
	router.GET("/api/rooms", rooms.ListRooms)
	router.GET("/api/rooms/:id", rooms.GetRoom)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
