package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a member record consumed by the REST collaborator layer.
// Room state never references users directly; the presence core only
// knows connection ids.
type User struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	FavTrigger       string    `json:"favTrigger"`
	AvatarURL        string    `json:"avatarUrl,omitempty"`
	CurrentVibe      string    `json:"currentVibe"`
	TriggerInventory []string  `json:"triggerInventory"`
	SensoryTolerance int       `json:"sensoryTolerance"`
	EmberBalance     int       `json:"emberBalance"`
	TotalFocusMin    int       `json:"totalFocusMinutes"`
	VibeEmbedding    []float64 `json:"vibeEmbedding,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// PublicView strips the fields withheld until a whisper-to-reveal
// exchange (currently only the avatar).
func (u User) PublicView() User {
	u.AvatarURL = ""
	u.VibeEmbedding = nil
	return u
}

// Whisper is a one-shot audio message between two users. AudioData is
// stored as base64; it is decoded only to sniff the content type on
// ingestion.
type Whisper struct {
	ID         uuid.UUID `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	AudioData  string    `json:"audioData"`
	MimeType   string    `json:"mimeType"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Block records a panic block. The blocked user is invisible to the
// blocker from then on; matching dissolves on the client side.
type Block struct {
	BlockerID string    `json:"blockerId"`
	BlockedID string    `json:"blockedId"`
	CreatedAt time.Time `json:"createdAt"`
}
