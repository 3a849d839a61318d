package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Bitcomethub/Somnus/errors"
)

type createUserRequest struct {
	Username         string   `json:"username" binding:"required"`
	FavTrigger       string   `json:"favTrigger"`
	AvatarURL        string   `json:"avatarUrl"`
	SensoryTolerance int      `json:"sensoryTolerance"`
	TriggerInventory []string `json:"triggerInventory"`
}

func (ctrl *Controller) CreateUser(c *gin.Context) {
	var body createUserRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ctrl.users.Create(body.Username, body.FavTrigger, body.AvatarURL,
		body.SensoryTolerance, body.TriggerInventory)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Root is the liveness banner, handy for load balancer checks.
func (ctrl *Controller) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "somnus", "status": "breathing"})
}

func (ctrl *Controller) ListUsers(c *gin.Context) {
	users, err := ctrl.users.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (ctrl *Controller) GetUser(c *gin.Context) {
	user, err := ctrl.users.Get(c.Param("id"))
	if err == errors.ErrUserNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, user)
}

type matchScoreRequest struct {
	UserAID string `json:"userAId" binding:"required"`
	UserBID string `json:"userBId" binding:"required"`
}

func (ctrl *Controller) MatchScore(c *gin.Context) {
	var body matchScoreRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	score, err := ctrl.match.Score(body.UserAID, body.UserBID)
	if err == errors.ErrUserNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "calc failed"})
		return
	}
	c.JSON(http.StatusOK, score)
}

type frequencyCheckRequest struct {
	UserID     string    `json:"userId" binding:"required"`
	UserVector []float64 `json:"userVector"`
}

func (ctrl *Controller) FrequencyCheck(c *gin.Context) {
	var body frequencyCheckRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := ctrl.match.FrequencyCheck(body.UserID, body.UserVector)
	if err == errors.ErrVectorRequired {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vector required"})
		return
	}
	if err != nil {
		// Alignment failures report as a miss, never as a hard error.
		c.JSON(http.StatusOK, gin.H{"match": false, "error": "Frequency alignment failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

type sendWhisperRequest struct {
	SenderID   string `json:"senderId" binding:"required"`
	ReceiverID string `json:"receiverId" binding:"required"`
	AudioData  string `json:"audioData" binding:"required"`
}

func (ctrl *Controller) SendWhisper(c *gin.Context) {
	var body sendWhisperRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	whisper, err := ctrl.whisper.Send(body.SenderID, body.ReceiverID, body.AudioData)
	if err == errors.ErrUnsupportedAudio {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "audio format not supported"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store whisper"})
		return
	}
	c.JSON(http.StatusOK, whisper)
}

func (ctrl *Controller) Inbox(c *gin.Context) {
	whispers, err := ctrl.whisper.Inbox(c.Param("receiverId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "inbox lookup failed"})
		return
	}
	c.JSON(http.StatusOK, whispers)
}

type revealUserRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (ctrl *Controller) RevealUser(c *gin.Context) {
	var body revealUserRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	avatarURL, err := ctrl.users.Reveal(body.UserID)
	if err == errors.ErrUserNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reveal failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatarUrl": avatarURL})
}

type blockUserRequest struct {
	BlockerID string `json:"blockerId" binding:"required"`
	BlockedID string `json:"blockedId" binding:"required"`
}

func (ctrl *Controller) BlockUser(c *gin.Context) {
	var body blockUserRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ctrl.blocks.Block(body.BlockerID, body.BlockedID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "block failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User blocked and match dissolved."})
}

type burnEmberRequest struct {
	UserID string `json:"userId" binding:"required"`
	Cost   int    `json:"cost" binding:"required,gt=0"`
}

func (ctrl *Controller) BurnEmber(c *gin.Context) {
	var body burnEmberRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := ctrl.wallet.Burn(body.UserID, body.Cost)
	if err == errors.ErrInsufficientFunds {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "not enough embers"})
		return
	}
	if err == errors.ErrUserNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to burn ember"})
		return
	}
	c.JSON(http.StatusOK, result)
}

type vibeCheckRequest struct {
	UserID     string `json:"userId"`
	StatusText string `json:"statusText" binding:"required"`
}

func (ctrl *Controller) VibeCheck(c *gin.Context) {
	var body vibeCheckRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := ctrl.vibe.Check(c.Request.Context(), body.UserID, body.StatusText)
	if err == errors.ErrScreenedContent {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "status text rejected"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "vibe check failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

type wingmanWhisperRequest struct {
	UserAPrefs    string `json:"userA_prefs" binding:"required"`
	UserBPrefs    string `json:"userB_prefs" binding:"required"`
	CurrentShield string `json:"current_shield"`
}

func (ctrl *Controller) WingmanWhisper(c *gin.Context) {
	var body wingmanWhisperRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := ctrl.vibe.WingmanWhisper(c.Request.Context(),
		body.UserAPrefs, body.UserBPrefs, body.CurrentShield)
	c.JSON(http.StatusOK, result)
}

type generateShieldRequest struct {
	UserID string `json:"userId" binding:"required"`
	Prompt string `json:"prompt" binding:"required"`
}

func (ctrl *Controller) GenerateShield(c *gin.Context) {
	var body generateShieldRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := ctrl.dreamscape.Generate(c.Request.Context(), body.UserID, body.Prompt)
	if err == errors.ErrInsufficientFunds {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "not enough embers"})
		return
	}
	if err == errors.ErrUserNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Creation failed. Embers refunded."})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ctrl *Controller) Sounds(c *gin.Context) {
	focusMinutes := 0
	if userID := c.Query("userId"); userID != "" {
		user, err := ctrl.users.Get(userID)
		if err == nil {
			focusMinutes = user.TotalFocusMin
		}
	}

	if query := c.Query("q"); query != "" {
		entries, err := ctrl.gallery.Search(c.Request.Context(), query, focusMinutes)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog search failed"})
			return
		}
		c.JSON(http.StatusOK, entries)
		return
	}

	c.JSON(http.StatusOK, ctrl.gallery.Browse(focusMinutes))
}
