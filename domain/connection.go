// Package domain contains core concepts of the presence system.
// This file defines Connection identities and related invariants.
package domain

import "github.com/google/uuid"

// ConnectionID identifies one live transport session. It is minted on
// the websocket upgrade and never reused within a process lifetime.
type ConnectionID string

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.NewString())
}
