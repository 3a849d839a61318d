package ws

import (
	"encoding/json"
)

// Envelope is the wire frame in both directions: a named event with a
// JSON payload, mirroring socket.io's emit(name, data).
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client -> server payloads. Validation failures drop the message with
// a log line; there is no error reply on the socket.

type shieldHeartbeatPayload struct {
	ShieldMode string `json:"shieldMode" validate:"required"`
}

type joinJamPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

type jamTriggerPayload struct {
	RoomID    string  `json:"roomId" validate:"required"`
	TriggerID string  `json:"triggerId" validate:"required"`
	UserID    string  `json:"userId" validate:"required"`
	Volume    float64 `json:"volume" validate:"gte=0,lte=1"`
}

type jamGiftPayload struct {
	RoomID     string `json:"roomId" validate:"required"`
	SenderID   string `json:"senderId" validate:"required"`
	ReceiverID string `json:"receiverId" validate:"required"`
	GiftType   string `json:"giftType" validate:"required"`
	Amount     int    `json:"amount" validate:"gte=1"`
}

type leaveQuietlyPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

type volumeChangePayload struct {
	RoomID string  `json:"roomId" validate:"required"`
	Volume float64 `json:"volume" validate:"gte=0,lte=1"`
}

type playTriggerPayload struct {
	RoomID  string  `json:"roomId" validate:"required"`
	Trigger string  `json:"trigger" validate:"required"`
	Volume  float64 `json:"volume" validate:"gte=0,lte=1"`
}

type pauseTriggerPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

// decodeStringArg accepts both the socket.io style bare string argument
// ("office") and the object form ({"mode":"office"}), which clients built
// against older servers still send.
func decodeStringArg(raw json.RawMessage, objectKey string) (string, bool) {
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil && plain != "" {
		return plain, true
	}

	var object map[string]string
	if err := json.Unmarshal(raw, &object); err == nil {
		if v := object[objectKey]; v != "" {
			return v, true
		}
	}
	return "", false
}
