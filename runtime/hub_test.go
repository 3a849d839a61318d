package runtime

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/domain/event"
	"github.com/Bitcomethub/Somnus/errors"
	"github.com/Bitcomethub/Somnus/observability"
	"github.com/Bitcomethub/Somnus/projection"
)

type recordingSink struct {
	events []event.DomainEvent
	fail   bool
}

func (s *recordingSink) Consume(ctx context.Context, e event.DomainEvent) error {
	if s.fail {
		return errors.ErrSinkFull
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) names() []string {
	var names []string
	for _, e := range s.events {
		names = append(names, e.Name())
	}
	return names
}

type recordingScheduler struct {
	started []domain.RoomID
	stopped []domain.RoomID
}

func (s *recordingScheduler) OnFirstMember(room domain.RoomID) { s.started = append(s.started, room) }
func (s *recordingScheduler) OnLastMember(room domain.RoomID)  { s.stopped = append(s.stopped, room) }
func (s *recordingScheduler) Active(room domain.RoomID) bool   { return false }
func (s *recordingScheduler) StopAll()                         {}

func newTestHub(t *testing.T) (*Hub, *Registry, *recordingScheduler) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	stats := observability.NewPresenceStats(log)
	registry := NewRegistry()
	scheduler := &recordingScheduler{}
	hub := NewHub(log, registry, scheduler, stats, 16, 50*time.Millisecond)
	return hub, registry, scheduler
}

func TestHub_Join_Announces_Count_To_Every_Member(t *testing.T) {
	req := require.New(t)
	hub, _, _ := newTestHub(t)
	connA := domain.NewConnectionID()
	connB := domain.NewConnectionID()
	sinkA := &recordingSink{}
	sinkB := &recordingSink{}
	room := domain.ShieldRoom("office")

	// Given two live connections
	hub.Connect(connA, sinkA)
	hub.Connect(connB, sinkB)

	// When A joins, then B joins
	hub.handle(domain.JoinCommand{Conn: connA, Room: room})
	hub.handle(domain.JoinCommand{Conn: connB, Room: room})

	// Then A saw both counts in order, B only the second
	req.Equal([]string{"shield_count", "shield_count"}, sinkA.names())
	req.Equal(1, sinkA.events[0].(event.ShieldCount).Count)
	req.Equal(2, sinkA.events[1].(event.ShieldCount).Count)
	req.Equal("office", sinkA.events[0].(event.ShieldCount).Mode)

	req.Equal([]string{"shield_count"}, sinkB.names())
	req.Equal(2, sinkB.events[0].(event.ShieldCount).Count)
}

func TestHub_Repeated_Join_Reannounces_Same_Count(t *testing.T) {
	req := require.New(t)
	hub, _, scheduler := newTestHub(t)
	conn := domain.NewConnectionID()
	sink := &recordingSink{}
	room := domain.ShieldRoom("commuter")

	hub.Connect(conn, sink)
	hub.handle(domain.JoinCommand{Conn: conn, Room: room})
	hub.handle(domain.JoinCommand{Conn: conn, Room: room})

	// Then the duplicate join re-announced count 1 without a second
	// first-member notification
	req.Equal([]string{"shield_count", "shield_count"}, sink.names())
	req.Equal(1, sink.events[1].(event.ShieldCount).Count)
	req.Len(scheduler.started, 1)
}

func TestHub_NonShield_Rooms_Announce_Room_Count(t *testing.T) {
	req := require.New(t)
	hub, _, _ := newTestHub(t)
	conn := domain.NewConnectionID()
	sink := &recordingSink{}
	room := domain.SleepRoom("room-3")

	hub.Connect(conn, sink)
	hub.handle(domain.JoinCommand{Conn: conn, Room: room})

	req.Equal([]string{"room_count"}, sink.names())
	count := sink.events[0].(event.RoomCount)
	req.Equal("room-3", count.RoomKey)
	req.Equal(1, count.Count)
}

func TestHub_Leave_Announces_Remaining_Members_Only(t *testing.T) {
	req := require.New(t)
	hub, _, scheduler := newTestHub(t)
	connA := domain.NewConnectionID()
	connB := domain.NewConnectionID()
	sinkA := &recordingSink{}
	sinkB := &recordingSink{}
	room := domain.ShieldRoom("nomad")

	hub.Connect(connA, sinkA)
	hub.Connect(connB, sinkB)
	hub.handle(domain.JoinCommand{Conn: connA, Room: room})
	hub.handle(domain.JoinCommand{Conn: connB, Room: room})
	sinkA.events = nil
	sinkB.events = nil

	// When A leaves
	hub.handle(domain.LeaveCommand{Conn: connA, Room: room})

	// Then only B hears the new count, and no timer was stopped
	req.Empty(sinkA.events)
	req.Equal([]string{"shield_count"}, sinkB.names())
	req.Equal(1, sinkB.events[0].(event.ShieldCount).Count)
	req.Empty(scheduler.stopped)
}

func TestHub_Last_Leave_Stops_Timer_And_Stays_Silent(t *testing.T) {
	req := require.New(t)
	hub, registry, scheduler := newTestHub(t)
	conn := domain.NewConnectionID()
	sink := &recordingSink{}
	room := domain.SleepRoom("room-9")

	hub.Connect(conn, sink)
	hub.handle(domain.JoinCommand{Conn: conn, Room: room})
	sink.events = nil

	// When the only member leaves
	hub.handle(domain.LeaveCommand{Conn: conn, Room: room})

	// Then the room is gone, the timer was stopped, and no count
	// event went anywhere
	req.Equal([]domain.RoomID{room}, scheduler.stopped)
	req.NotContains(registry.RoomMembers, room)
	req.Empty(sink.events)
}

func TestHub_Leave_Without_Membership_Is_Silent(t *testing.T) {
	req := require.New(t)
	hub, _, scheduler := newTestHub(t)
	member := domain.NewConnectionID()
	stranger := domain.NewConnectionID()
	memberSink := &recordingSink{}
	room := domain.ShieldRoom("sky")

	hub.Connect(member, memberSink)
	hub.Connect(stranger, &recordingSink{})
	hub.handle(domain.JoinCommand{Conn: member, Room: room})
	memberSink.events = nil

	// When a non-member leaves
	hub.handle(domain.LeaveCommand{Conn: stranger, Room: room})

	// Then nothing was announced or stopped
	req.Empty(memberSink.events)
	req.Empty(scheduler.stopped)
}

func TestHub_Disconnect_Cascade_Covers_Every_Room(t *testing.T) {
	req := require.New(t)
	hub, registry, scheduler := newTestHub(t)
	conn := domain.NewConnectionID()
	other := domain.NewConnectionID()
	otherSink := &recordingSink{}
	shared := domain.ShieldRoom("office")
	solo := domain.SleepRoom("room-1")

	hub.Connect(conn, &recordingSink{})
	hub.Connect(other, otherSink)
	hub.handle(domain.JoinCommand{Conn: conn, Room: shared})
	hub.handle(domain.JoinCommand{Conn: conn, Room: solo})
	hub.handle(domain.JoinCommand{Conn: other, Room: shared})
	otherSink.events = nil

	// When the first connection drops
	hub.handle(domain.DisconnectCommand{Conn: conn})

	// Then the survivor hears the shared room shrink, the solo room's
	// timer is stopped, and the session is gone
	req.Equal([]string{"shield_count"}, otherSink.names())
	req.Equal(1, otherSink.events[0].(event.ShieldCount).Count)
	req.Equal([]domain.RoomID{solo}, scheduler.stopped)
	req.NotContains(registry.Sessions, conn)
}

func TestHub_Relay_Excludes_Sender_For_Jam_Layers(t *testing.T) {
	req := require.New(t)
	hub, _, _ := newTestHub(t)
	sender := domain.NewConnectionID()
	listener := domain.NewConnectionID()
	senderSink := &recordingSink{}
	listenerSink := &recordingSink{}
	room := domain.JamRoom("session")

	hub.Connect(sender, senderSink)
	hub.Connect(listener, listenerSink)
	hub.handle(domain.JoinCommand{Conn: sender, Room: room})
	hub.handle(domain.JoinCommand{Conn: listener, Room: room})
	senderSink.events = nil
	listenerSink.events = nil

	// When the sender triggers a jam layer
	hub.handle(domain.RelayCommand{
		Conn: sender,
		Room: room,
		Event: event.PlayJamLayer{
			Target:    room,
			TriggerID: "rain",
			UserID:    "u-1",
			Volume:    0.7,
		},
	})

	// Then only the listener receives it
	req.Empty(senderSink.events)
	req.Equal([]string{"play_jam_layer"}, listenerSink.names())
}

func TestHub_Relay_Includes_Sender_For_Gifts(t *testing.T) {
	req := require.New(t)
	hub, _, _ := newTestHub(t)
	sender := domain.NewConnectionID()
	senderSink := &recordingSink{}
	room := domain.JamRoom("session")

	hub.Connect(sender, senderSink)
	hub.handle(domain.JoinCommand{Conn: sender, Room: room})
	senderSink.events = nil

	hub.handle(domain.RelayCommand{
		Conn: sender,
		Room: room,
		Event: event.GiftReceived{
			Target:     room,
			SenderID:   "u-1",
			ReceiverID: "u-2",
			GiftType:   "ember",
			Amount:     3,
		},
	})

	// The gift ledger frame goes back to the sender too
	req.Equal([]string{"gift_received"}, senderSink.names())
}

func TestHub_Pulse_After_Room_Emptied_Is_Dropped(t *testing.T) {
	req := require.New(t)
	hub, _, _ := newTestHub(t)
	conn := domain.NewConnectionID()
	sink := &recordingSink{}
	room := domain.SleepRoom("room-5")

	hub.Connect(conn, sink)
	hub.handle(domain.JoinCommand{Conn: conn, Room: room})
	sink.events = nil

	// Given a pulse already queued when the member leaves
	hub.handle(domain.LeaveCommand{Conn: conn, Room: room})

	// When the stale tick is handled
	hub.handle(domain.PulseCommand{Room: room, Amplitude: 1.0})

	// Then nobody hears it
	req.Empty(sink.events)
}

func TestHub_Pulse_Reaches_Sleep_Room_Members(t *testing.T) {
	req := require.New(t)
	hub, _, _ := newTestHub(t)
	connA := domain.NewConnectionID()
	connB := domain.NewConnectionID()
	sinkA := &recordingSink{}
	sinkB := &recordingSink{}
	room := domain.SleepRoom("room-2")

	hub.Connect(connA, sinkA)
	hub.Connect(connB, sinkB)
	hub.handle(domain.JoinCommand{Conn: connA, Room: room})
	hub.handle(domain.JoinCommand{Conn: connB, Room: room})
	sinkA.events = nil
	sinkB.events = nil

	hub.handle(domain.PulseCommand{Room: room, Amplitude: 1.13})

	req.Equal([]string{"sync_pulse"}, sinkA.names())
	req.Equal([]string{"sync_pulse"}, sinkB.names())
	req.InDelta(1.13, sinkA.events[0].(event.SyncPulse).Amplitude, 0.001)
}

func TestHub_Failed_Sink_Never_Aborts_Fanout(t *testing.T) {
	req := require.New(t)
	hub, _, _ := newTestHub(t)
	broken := domain.NewConnectionID()
	healthy := domain.NewConnectionID()
	healthySink := &recordingSink{}
	room := domain.ShieldRoom("office")

	hub.Connect(broken, &recordingSink{fail: true})
	hub.Connect(healthy, healthySink)
	hub.handle(domain.JoinCommand{Conn: broken, Room: room})

	// When the healthy member joins, fan-out hits the broken sink first
	// or last, either way the healthy one is served
	hub.handle(domain.JoinCommand{Conn: healthy, Room: room})

	req.NotEmpty(healthySink.events)
	req.Equal(2, healthySink.events[len(healthySink.events)-1].(event.ShieldCount).Count)
}

func TestHub_Permanent_Sinks_Observe_Every_Event(t *testing.T) {
	req := require.New(t)
	hub, _, _ := newTestHub(t)
	conn := domain.NewConnectionID()
	board := &recordingSink{}
	hub.AddSinks(board)

	hub.Connect(conn, &recordingSink{})
	hub.handle(domain.JoinCommand{Conn: conn, Room: domain.ShieldRoom("office")})
	hub.handle(domain.JoinCommand{Conn: conn, Room: domain.JamRoom("session")})

	req.Equal([]string{"shield_count", "room_count"}, board.names())
}

func TestHub_Enqueue_Drops_When_Queue_Is_Full(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	stats := observability.NewPresenceStats(log)
	hub := NewHub(log, NewRegistry(), &recordingScheduler{}, stats, 1, time.Millisecond)

	room := domain.ShieldRoom("office")
	hub.Enqueue(domain.PulseCommand{Room: room, Amplitude: 1})
	hub.Enqueue(domain.PulseCommand{Room: room, Amplitude: 1})

	req.Len(hub.CommandChannel(), 1)
	req.Equal(uint64(1), stats.GetLatest().DroppedCommands)
}

func TestHub_Enqueue_Never_Drops_A_Disconnect(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	stats := observability.NewPresenceStats(log)
	registry := NewRegistry()
	scheduler := &recordingScheduler{}
	hub := NewHub(log, registry, scheduler, stats, 1, time.Millisecond)

	conn := domain.NewConnectionID()
	room := domain.SleepRoom("room-7")
	hub.Connect(conn, &recordingSink{})
	hub.handle(domain.JoinCommand{Conn: conn, Room: room})

	// Given a queue already full of pulses
	hub.Enqueue(domain.PulseCommand{Room: room, Amplitude: 1})

	// When the transport reports the disconnect
	enqueued := make(chan struct{})
	go func() {
		hub.Enqueue(domain.DisconnectCommand{Conn: conn})
		close(enqueued)
	}()

	// Then the disconnect waited for a slot instead of being dropped
	hub.handle(<-hub.CommandChannel())
	<-enqueued
	hub.handle(<-hub.CommandChannel())

	req.NotContains(registry.Sessions, conn)
	req.Equal([]domain.RoomID{room}, scheduler.stopped)
	req.Equal(uint64(0), stats.GetLatest().DroppedCommands)
}

func TestHub_Last_Leave_Retires_The_Room_From_Permanent_Sinks(t *testing.T) {
	req := require.New(t)
	hub, _, _ := newTestHub(t)
	conn := domain.NewConnectionID()
	board := projection.NewOccupancyBoard()
	hub.AddSinks(board)
	room := domain.SleepRoom("room-4")

	hub.Connect(conn, &recordingSink{})
	hub.handle(domain.JoinCommand{Conn: conn, Room: room})
	req.Equal([]domain.Occupancy{{Room: room, Count: 1}}, board.Snapshot())

	// When the only member leaves
	hub.handle(domain.LeaveCommand{Conn: conn, Room: room})

	// Then the zero count evicted the room from the read model
	req.Empty(board.Snapshot())
}

func TestHub_Disconnect_Retires_Emptied_Rooms_From_Permanent_Sinks(t *testing.T) {
	req := require.New(t)
	hub, _, _ := newTestHub(t)
	conn := domain.NewConnectionID()
	board := projection.NewOccupancyBoard()
	hub.AddSinks(board)

	hub.Connect(conn, &recordingSink{})
	hub.handle(domain.JoinCommand{Conn: conn, Room: domain.ShieldRoom("office")})
	hub.handle(domain.JoinCommand{Conn: conn, Room: domain.SleepRoom("room-8")})
	req.Len(board.Snapshot(), 2)

	hub.handle(domain.DisconnectCommand{Conn: conn})

	req.Empty(board.Snapshot())
}
