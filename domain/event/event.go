// Package event defines the server-produced events pushed to room
// members. Every event knows its target room and its wire name; the
// struct itself is the JSON payload of the envelope.
package event

import "github.com/Bitcomethub/Somnus/domain"

type DomainEvent interface {
	// Room is the fan-out target.
	Room() domain.RoomID
	// Name is the event name on the wire, e.g. "sync_pulse".
	Name() string
}

// ShieldCount is the presence count of a shield room, re-sent to all
// members on every membership change.
type ShieldCount struct {
	Mode  string `json:"mode"`
	Count int    `json:"count"`
}

func (e ShieldCount) Room() domain.RoomID { return domain.ShieldRoom(e.Mode) }
func (e ShieldCount) Name() string        { return "shield_count" }

// RoomCount is the presence count of a jam or sleep room.
type RoomCount struct {
	Target  domain.RoomID `json:"-"`
	RoomKey string        `json:"room"`
	Count   int           `json:"count"`
}

func (e RoomCount) Room() domain.RoomID { return e.Target }
func (e RoomCount) Name() string        { return "room_count" }

// ShieldSignal relays a silent high-five to the rest of a shield room.
type ShieldSignal struct {
	Mode string `json:"-"`
	Type string `json:"type"`
}

func (e ShieldSignal) Room() domain.RoomID { return domain.ShieldRoom(e.Mode) }
func (e ShieldSignal) Name() string        { return "shield_signal" }

// SyncPulse is the periodic synthetic amplitude pushed to sleep rooms.
type SyncPulse struct {
	Target    domain.RoomID `json:"-"`
	Amplitude float64       `json:"amplitude"`
}

func (e SyncPulse) Room() domain.RoomID { return e.Target }
func (e SyncPulse) Name() string        { return "sync_pulse" }

type UserJoinedJam struct {
	Target domain.RoomID `json:"-"`
	UserID string        `json:"userId"`
}

func (e UserJoinedJam) Room() domain.RoomID { return e.Target }
func (e UserJoinedJam) Name() string        { return "user_joined_jam" }

type PlayJamLayer struct {
	Target    domain.RoomID `json:"-"`
	TriggerID string        `json:"triggerId"`
	UserID    string        `json:"userId"`
	Volume    float64       `json:"volume"`
}

func (e PlayJamLayer) Room() domain.RoomID { return e.Target }
func (e PlayJamLayer) Name() string        { return "play_jam_layer" }

type GiftReceived struct {
	Target     domain.RoomID `json:"-"`
	SenderID   string        `json:"senderId"`
	ReceiverID string        `json:"receiverId"`
	GiftType   string        `json:"giftType"`
	Amount     int           `json:"amount"`
}

func (e GiftReceived) Room() domain.RoomID { return e.Target }
func (e GiftReceived) Name() string        { return "gift_received" }

// PartnerLeftQuietly is the soft notification sent before the sender
// leaves a sleep room.
type PartnerLeftQuietly struct {
	Target domain.RoomID `json:"-"`
}

func (e PartnerLeftQuietly) Room() domain.RoomID { return e.Target }
func (e PartnerLeftQuietly) Name() string        { return "partner_left_quietly" }

type SyncVolume struct {
	Target domain.RoomID `json:"-"`
	Volume float64       `json:"volume"`
}

func (e SyncVolume) Room() domain.RoomID { return e.Target }
func (e SyncVolume) Name() string        { return "sync_volume" }

type SyncPlay struct {
	Target  domain.RoomID `json:"-"`
	Trigger string        `json:"trigger"`
	Volume  float64       `json:"volume"`
}

func (e SyncPlay) Room() domain.RoomID { return e.Target }
func (e SyncPlay) Name() string        { return "sync_play" }

type SyncPause struct {
	Target domain.RoomID `json:"-"`
}

func (e SyncPause) Room() domain.RoomID { return e.Target }
func (e SyncPause) Name() string        { return "sync_pause" }
