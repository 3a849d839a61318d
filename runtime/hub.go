package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Bitcomethub/Somnus/contract"
	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/domain/event"
	"github.com/Bitcomethub/Somnus/observability"
)

// senderExcluded declares, per produced event, whether the origin
// connection is excluded from its own relay. The policy is deliberate
// per event type: a client that triggered an action already performed
// it locally (heartbeats, jam layers, sync transport controls), whereas
// a gift sender still needs the authoritative ledger frame.
var senderExcluded = map[string]bool{
	"shield_signal":        true,
	"user_joined_jam":      true,
	"play_jam_layer":       true,
	"partner_left_quietly": true,
	"sync_volume":          true,
	"sync_play":            true,
	"sync_pause":           true,
	"gift_received":        false,
}

// Hub is the single-consumer event loop of the presence core. All
// membership mutation, presence announcements, relays, and pulse ticks
// run as non-overlapping command handlers on one goroutine, so the
// membership maps never see a concurrent mutator. Transports and the
// scheduler only ever touch the hub through Enqueue.
type Hub struct {
	log            *slog.Logger
	registry       contract.IRegistry
	scheduler      contract.IScheduler
	stats          *observability.PresenceStats
	commands       chan domain.Command
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
}

func NewHub(log *slog.Logger, registry contract.IRegistry, scheduler contract.IScheduler,
	stats *observability.PresenceStats, bufferSize int, sinkTimeout time.Duration) *Hub {
	return &Hub{
		log:         log,
		registry:    registry,
		scheduler:   scheduler,
		stats:       stats,
		commands:    make(chan domain.Command, bufferSize),
		sinkTimeout: sinkTimeout,
	}
}

// AddSinks registers permanent sinks that receive every produced event
// in addition to room members (projections, telemetry).
func (h *Hub) AddSinks(sinks ...contract.EventSink) {
	h.permanentSinks = append(h.permanentSinks, sinks...)
}

// CommandChannel exposes the queue for capacity telemetry only.
func (h *Hub) CommandChannel() chan domain.Command {
	return h.commands
}

// Connect registers the connection synchronously, not through the
// queue, so commands that follow on the same socket always find the
// session. Adding a session never touches room state.
func (h *Hub) Connect(conn domain.ConnectionID, sink contract.EventSink) {
	h.registry.Connect(conn, sink)
	h.stats.ConnectionOpened()
}

// Enqueue hands a command to the loop without blocking the caller.
// Disconnects are the exception: dropping one would leak the session,
// its memberships, and any running room timer for the process
// lifetime, so a disconnect waits for a queue slot instead.
func (h *Hub) Enqueue(cmd domain.Command) {
	if _, isDisconnect := cmd.(domain.DisconnectCommand); isDisconnect {
		h.commands <- cmd
		return
	}
	select {
	case h.commands <- cmd:
	default:
		h.stats.CommandDropped()
		h.log.Warn(fmt.Sprintf("Command channel full, dropping command for room %s", cmd.RoomID()))
	}
}

// Run consumes commands until the context is cancelled. It implements
// contract.Worker and runs under the supervisor.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("Context done, stopping hub loop")
			return nil
		case cmd := <-h.commands:
			h.handle(cmd)
		}
	}
}

func (h *Hub) handle(cmd domain.Command) {
	switch c := cmd.(type) {
	case domain.JoinCommand:
		h.handleJoin(c)
	case domain.LeaveCommand:
		h.handleLeave(c)
	case domain.DisconnectCommand:
		h.handleDisconnect(c)
	case domain.RelayCommand:
		h.handleRelay(c)
	case domain.PulseCommand:
		h.handlePulse(c)
	default:
		h.log.Warn(fmt.Sprintf("Unknown command type %T", cmd))
	}
}

func (h *Hub) handleJoin(c domain.JoinCommand) {
	count, first, changed := h.registry.Join(c.Conn, c.Room)
	if count == 0 && !changed {
		// Connection already gone, nothing to announce.
		h.log.Debug("Join from unknown connection", "conn", c.Conn, "room", c.Room)
		return
	}

	if changed {
		h.stats.Joined()
	}
	if first {
		h.stats.RoomCreated()
		h.scheduler.OnFirstMember(c.Room)
	}

	// A repeated join re-announces the unchanged count; clients
	// tolerate duplicates.
	h.announce(c.Room)
}

func (h *Hub) handleLeave(c domain.LeaveCommand) {
	_, last, changed := h.registry.Leave(c.Conn, c.Room)
	if !changed {
		h.log.Debug("Leave without membership", "conn", c.Conn, "room", c.Room)
		return
	}

	h.stats.Left()
	if last {
		// Stop must be synchronous with the leave-to-empty transition:
		// the timer handle is cleared here, before any later command
		// can observe the room.
		h.scheduler.OnLastMember(c.Room)
		h.stats.RoomDeleted()
	}
	// The zero count reaches no member, but permanent sinks need it to
	// retire the room from their read models.
	h.announce(c.Room)
}

// handleDisconnect runs the whole membership cleanup inside one command,
// so no partial state is ever visible to other members.
func (h *Hub) handleDisconnect(c domain.DisconnectCommand) {
	affected := h.registry.Disconnect(c.Conn)
	if affected == nil {
		return
	}
	h.stats.ConnectionClosed()

	for _, room := range affected {
		h.stats.Left()
		if h.registry.Count(room) == 0 {
			h.scheduler.OnLastMember(room)
			h.stats.RoomDeleted()
		}
		h.announce(room)
	}
}

func (h *Hub) handleRelay(c domain.RelayCommand) {
	evt, ok := c.Event.(event.DomainEvent)
	if !ok {
		h.log.Warn(fmt.Sprintf("Relay carries a non-event payload %T", c.Event))
		return
	}

	if senderExcluded[evt.Name()] {
		h.BroadcastToRoom(evt.Room(), evt, c.Conn)
		return
	}
	h.BroadcastToRoom(evt.Room(), evt)
}

func (h *Hub) handlePulse(c domain.PulseCommand) {
	// A tick queued behind the last leave finds no room and is dropped.
	if h.registry.Count(c.Room) == 0 {
		return
	}
	h.stats.PulseEmitted()
	h.BroadcastToRoom(c.Room, event.SyncPulse{Target: c.Room, Amplitude: c.Amplitude})
}

// announce recomputes the room occupancy and pushes the count event to
// every current member. Shield rooms keep the historical event name and
// payload shape; jam and sleep rooms share the generic one.
func (h *Hub) announce(room domain.RoomID) {
	count := h.registry.Count(room)

	var evt event.DomainEvent
	if room.Kind() == domain.KindShield {
		evt = event.ShieldCount{Mode: room.Key(), Count: count}
	} else {
		evt = event.RoomCount{Target: room, RoomKey: room.Key(), Count: count}
	}
	h.BroadcastToRoom(room, evt)
}

// BroadcastToRoom delivers the event to every member except the given
// connections. Delivery is best-effort, at-most-once per recipient: a
// failed sink is logged and skipped, never aborting the rest of the
// fan-out. Permanent sinks observe every event regardless of room.
func (h *Hub) BroadcastToRoom(room domain.RoomID, evt event.DomainEvent, exclude ...domain.ConnectionID) {
	sinks := h.registry.SinksForRoom(room, exclude...)
	h.deliver(append(sinks, h.permanentSinks...), evt)
}

// BroadcastToAll pushes a global signal to every live connection.
func (h *Hub) BroadcastToAll(evt event.DomainEvent) {
	h.deliver(append(h.registry.AllSinks(), h.permanentSinks...), evt)
}

func (h *Hub) deliver(sinks []contract.EventSink, evt event.DomainEvent) {
	if len(sinks) > 0 {
		h.stats.EventFanned()
	}
	for _, sink := range sinks {
		ctx, cancel := context.WithTimeout(context.Background(), h.sinkTimeout)
		if err := sink.Consume(ctx, evt); err != nil {
			h.stats.DeliveryDropped()
			h.log.Debug("Sink delivery failed", "event", evt.Name(), "error", err)
		}
		cancel()
	}
}
