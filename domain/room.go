// Package domain contains core concepts of the presence system.
// This file defines Room identities and the namespace partitioning rules.
// No runtime, network, or UI logic should be added here.
package domain

import "strings"

// RoomKind partitions the room namespace. Each kind carries its own
// join/leave events on the wire and its own presence event name.
type RoomKind string

const (
	KindShield RoomKind = "shield"
	KindJam    RoomKind = "jam"
	KindSleep  RoomKind = "sleep"
)

// RoomID is a namespaced room identifier of the form "kind:key",
// e.g. "shield:office", "jam:main-sanctuary", "sleep:room1".
type RoomID string

func ShieldRoom(mode string) RoomID {
	return RoomID(string(KindShield) + ":" + mode)
}

func JamRoom(roomKey string) RoomID {
	return RoomID(string(KindJam) + ":" + roomKey)
}

func SleepRoom(roomKey string) RoomID {
	return RoomID(string(KindSleep) + ":" + roomKey)
}

// Kind returns the namespace prefix of the room, or "" when the id
// carries no separator (never produced by the constructors above).
func (r RoomID) Kind() RoomKind {
	kind, _, ok := strings.Cut(string(r), ":")
	if !ok {
		return ""
	}
	return RoomKind(kind)
}

// Key returns the caller-supplied part of the id (the shield mode or
// the client roomId).
func (r RoomID) Key() string {
	_, key, ok := strings.Cut(string(r), ":")
	if !ok {
		return string(r)
	}
	return key
}

// Occupancy is a point-in-time presence count for one room.
type Occupancy struct {
	Room  RoomID `json:"room"`
	Count int    `json:"count"`
}
