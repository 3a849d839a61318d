package httpapi

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Bitcomethub/Somnus/services"
)

type Controller struct {
	log        *slog.Logger
	users      *services.UserService
	match      *services.MatchService
	wallet     *services.WalletService
	whisper    *services.WhisperService
	vibe       *services.VibeService
	gallery    *services.GalleryService
	blocks     *services.BlockService
	dreamscape *services.DreamscapeService
}

func NewController(
	log *slog.Logger,
	users *services.UserService,
	match *services.MatchService,
	wallet *services.WalletService,
	whisper *services.WhisperService,
	vibe *services.VibeService,
	gallery *services.GalleryService,
	blocks *services.BlockService,
	dreamscape *services.DreamscapeService,
) *Controller {
	return &Controller{
		log:        log,
		users:      users,
		match:      match,
		wallet:     wallet,
		whisper:    whisper,
		vibe:       vibe,
		gallery:    gallery,
		blocks:     blocks,
		dreamscape: dreamscape,
	}
}

// Router wires every REST route. The websocket endpoint is mounted
// separately by the caller so this package stays transport-agnostic
// about realtime traffic.
func (ctrl *Controller) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowWebSockets = true
	r.Use(cors.New(config))

	r.GET("/", ctrl.Root)

	users := r.Group("/users")
	{
		users.POST("", ctrl.CreateUser)
		users.GET("", ctrl.ListUsers)
		users.GET("/:id", ctrl.GetUser)
	}

	r.POST("/match-score", ctrl.MatchScore)
	r.POST("/frequency-check", ctrl.FrequencyCheck)

	r.POST("/whisper", ctrl.SendWhisper)
	r.GET("/whispers/:receiverId", ctrl.Inbox)

	r.POST("/reveal-user", ctrl.RevealUser)
	r.POST("/block-user", ctrl.BlockUser)
	r.POST("/burn-ember", ctrl.BurnEmber)

	r.POST("/vibe-check", ctrl.VibeCheck)
	r.POST("/wingman-whisper", ctrl.WingmanWhisper)
	r.POST("/generate-shield", ctrl.GenerateShield)

	r.GET("/sounds", ctrl.Sounds)

	return r
}
