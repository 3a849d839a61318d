package ws

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/Bitcomethub/Somnus/contract"
	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/domain/event"
	"github.com/Bitcomethub/Somnus/observability"
)

type capturingHub struct {
	commands []domain.Command
}

func (h *capturingHub) Connect(conn domain.ConnectionID, sink contract.EventSink) {}

func (h *capturingHub) Enqueue(cmd domain.Command) {
	h.commands = append(h.commands, cmd)
}

func newTestServer(t *testing.T) (*Server, *capturingHub, *observability.PresenceStats) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	stats := observability.NewPresenceStats(log)
	hub := &capturingHub{}
	return NewServer(log, hub, stats, 8), hub, stats
}

func frame(t *testing.T, eventName string, payload string) Envelope {
	t.Helper()
	return Envelope{Event: eventName, Data: json.RawMessage(payload)}
}

func TestDispatch_JoinShieldRoom_Accepts_Both_Arg_Forms(t *testing.T) {
	req := require.New(t)
	server, hub, _ := newTestServer(t)
	conn := domain.NewConnectionID()

	// When the mode arrives as a bare string and as an object
	server.dispatch(conn, frame(t, "join_shield_room", `"office"`))
	server.dispatch(conn, frame(t, "join_shield_room", `{"mode":"commuter"}`))

	// Then both map to join commands on the right shield rooms
	req.Len(hub.commands, 2)
	req.Equal(domain.JoinCommand{Conn: conn, Room: domain.ShieldRoom("office")}, hub.commands[0])
	req.Equal(domain.JoinCommand{Conn: conn, Room: domain.ShieldRoom("commuter")}, hub.commands[1])
}

func TestDispatch_LeaveShieldRoom(t *testing.T) {
	req := require.New(t)
	server, hub, _ := newTestServer(t)
	conn := domain.NewConnectionID()

	server.dispatch(conn, frame(t, "leave_shield_room", `"sky"`))

	req.Len(hub.commands, 1)
	req.Equal(domain.LeaveCommand{Conn: conn, Room: domain.ShieldRoom("sky")}, hub.commands[0])
}

func TestDispatch_ShieldHeartbeat_Relays_A_Signal(t *testing.T) {
	req := require.New(t)
	server, hub, _ := newTestServer(t)
	conn := domain.NewConnectionID()

	server.dispatch(conn, frame(t, "shield_heartbeat", `{"shieldMode":"office"}`))

	req.Len(hub.commands, 1)
	relay := hub.commands[0].(domain.RelayCommand)
	req.Equal(conn, relay.Conn)
	signal := relay.Event.(event.ShieldSignal)
	req.Equal("office", signal.Mode)
	req.Equal("heartbeat", signal.Type)
}

func TestDispatch_JoinJam_Enqueues_Join_Then_Announcement(t *testing.T) {
	req := require.New(t)
	server, hub, _ := newTestServer(t)
	conn := domain.NewConnectionID()

	server.dispatch(conn, frame(t, "join_jam", `{"roomId":"session-1","userId":"u-42"}`))

	// Join first, announcement second: the joiner is a member before
	// the relay fans out (and is excluded from it anyway)
	req.Len(hub.commands, 2)
	join := hub.commands[0].(domain.JoinCommand)
	req.Equal(domain.JamRoom("session-1"), join.Room)

	relay := hub.commands[1].(domain.RelayCommand)
	joined := relay.Event.(event.UserJoinedJam)
	req.Equal("u-42", joined.UserID)
}

func TestDispatch_JamTrigger_Carries_Volume(t *testing.T) {
	req := require.New(t)
	server, hub, _ := newTestServer(t)
	conn := domain.NewConnectionID()

	server.dispatch(conn, frame(t, "jam_trigger",
		`{"roomId":"session-1","triggerId":"rain","userId":"u-42","volume":0.65}`))

	req.Len(hub.commands, 1)
	layer := hub.commands[0].(domain.RelayCommand).Event.(event.PlayJamLayer)
	req.Equal("rain", layer.TriggerID)
	req.InDelta(0.65, layer.Volume, 0.001)
}

func TestDispatch_JamTrigger_Rejects_Volume_Out_Of_Range(t *testing.T) {
	req := require.New(t)
	server, hub, stats := newTestServer(t)
	conn := domain.NewConnectionID()

	server.dispatch(conn, frame(t, "jam_trigger",
		`{"roomId":"session-1","triggerId":"rain","userId":"u-42","volume":1.4}`))

	req.Empty(hub.commands)
	req.Equal(uint64(1), stats.GetLatest().MalformedPayloads)
}

func TestDispatch_JamGift_Requires_Positive_Amount(t *testing.T) {
	req := require.New(t)
	server, hub, _ := newTestServer(t)
	conn := domain.NewConnectionID()

	server.dispatch(conn, frame(t, "jam_gift",
		`{"roomId":"s","senderId":"a","receiverId":"b","giftType":"ember","amount":0}`))
	req.Empty(hub.commands)

	server.dispatch(conn, frame(t, "jam_gift",
		`{"roomId":"s","senderId":"a","receiverId":"b","giftType":"ember","amount":3}`))
	req.Len(hub.commands, 1)
	gift := hub.commands[0].(domain.RelayCommand).Event.(event.GiftReceived)
	req.Equal(3, gift.Amount)
}

func TestDispatch_LeaveQuietly_Notifies_Before_Leaving(t *testing.T) {
	req := require.New(t)
	server, hub, _ := newTestServer(t)
	conn := domain.NewConnectionID()

	server.dispatch(conn, frame(t, "leave_quietly", `{"roomId":"room-7"}`))

	// The soft notification must precede the leave on the queue, so the
	// partner still receives it while the sender is a member
	req.Len(hub.commands, 2)
	relay := hub.commands[0].(domain.RelayCommand)
	req.IsType(event.PartnerLeftQuietly{}, relay.Event)
	leave := hub.commands[1].(domain.LeaveCommand)
	req.Equal(domain.SleepRoom("room-7"), leave.Room)
}

func TestDispatch_Sleep_Transport_Controls(t *testing.T) {
	req := require.New(t)
	server, hub, _ := newTestServer(t)
	conn := domain.NewConnectionID()

	server.dispatch(conn, frame(t, "volume_change", `{"roomId":"room-7","volume":0.3}`))
	server.dispatch(conn, frame(t, "play_trigger", `{"roomId":"room-7","trigger":"rain","volume":0.5}`))
	server.dispatch(conn, frame(t, "pause_trigger", `{"roomId":"room-7"}`))

	req.Len(hub.commands, 3)
	req.IsType(event.SyncVolume{}, hub.commands[0].(domain.RelayCommand).Event)
	req.IsType(event.SyncPlay{}, hub.commands[1].(domain.RelayCommand).Event)
	req.IsType(event.SyncPause{}, hub.commands[2].(domain.RelayCommand).Event)
}

func TestDispatch_Unknown_Event_Is_Dropped(t *testing.T) {
	req := require.New(t)
	server, hub, stats := newTestServer(t)

	server.dispatch(domain.NewConnectionID(), frame(t, "self_destruct", `{}`))

	req.Empty(hub.commands)
	req.Equal(uint64(1), stats.GetLatest().MalformedPayloads)
}

func TestDispatch_Malformed_JSON_Is_Dropped(t *testing.T) {
	req := require.New(t)
	server, hub, stats := newTestServer(t)

	server.dispatch(domain.NewConnectionID(), frame(t, "shield_heartbeat", `{"shieldMode":`))
	server.dispatch(domain.NewConnectionID(), frame(t, "join_shield_room", `{}`))

	req.Empty(hub.commands)
	req.Equal(uint64(2), stats.GetLatest().MalformedPayloads)
}

func TestDecodeStringArg(t *testing.T) {
	req := require.New(t)

	v, ok := decodeStringArg(json.RawMessage(`"office"`), "mode")
	req.True(ok)
	req.Equal("office", v)

	v, ok = decodeStringArg(json.RawMessage(`{"mode":"sky"}`), "mode")
	req.True(ok)
	req.Equal("sky", v)

	_, ok = decodeStringArg(json.RawMessage(`{"other":"sky"}`), "mode")
	req.False(ok)

	_, ok = decodeStringArg(json.RawMessage(`42`), "mode")
	req.False(ok)
}
