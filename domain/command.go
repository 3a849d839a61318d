package domain

// Command is one unit of work for the hub loop. Commands are enqueued
// in transport arrival order per connection and processed one at a
// time, which is what keeps membership mutation race-free.
type Command interface {
	RoomID() RoomID
}

// JoinCommand adds a connection to a room, creating the room on first join.
type JoinCommand struct {
	Conn ConnectionID
	Room RoomID
}

func (c JoinCommand) RoomID() RoomID { return c.Room }

// LeaveCommand removes a connection from a room. Leaving a room the
// connection is not in is a no-op.
type LeaveCommand struct {
	Conn ConnectionID
	Room RoomID
}

func (c LeaveCommand) RoomID() RoomID { return c.Room }

// DisconnectCommand cascades into a leave of every room the connection
// belongs to, then discards the connection.
type DisconnectCommand struct {
	Conn ConnectionID
}

func (c DisconnectCommand) RoomID() RoomID { return "" }

// RelayCommand fans a client-originated event out to a room. Event is
// a domain/event value; the hub resolves its wire name and the
// per-event sender-exclusion policy.
type RelayCommand struct {
	Conn  ConnectionID
	Room  RoomID
	Event any
}

func (c RelayCommand) RoomID() RoomID { return c.Room }

// PulseCommand is enqueued by the scheduler's per-room ticker. The hub
// drops it silently when the room no longer exists, so a tick queued
// behind the last leave is never observable.
type PulseCommand struct {
	Room      RoomID
	Amplitude float64
}

func (c PulseCommand) RoomID() RoomID { return c.Room }
