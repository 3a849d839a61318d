// Package ws is the websocket transport of the presence core. It
// translates inbound named-event frames into hub commands, enqueued in
// transport arrival order per connection, and drains the per-connection
// sink back onto the socket.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/Bitcomethub/Somnus/contract"
	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/domain/event"
	"github.com/Bitcomethub/Somnus/observability"
)

type Server struct {
	log        *slog.Logger
	hub        contract.IHub
	stats      *observability.PresenceStats
	validate   *validator.Validate
	upgrader   websocket.Upgrader
	sinkBuffer int
}

func NewServer(log *slog.Logger, hub contract.IHub, stats *observability.PresenceStats, sinkBuffer int) *Server {
	return &Server{
		log:      log,
		hub:      hub,
		stats:    stats,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Mobile clients connect from app webviews with no stable origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sinkBuffer: sinkBuffer,
	}
}

// ServeWS upgrades the request and runs the connection until the client
// goes away. Registration happens before the first read so every
// command from this socket finds its session; the deferred disconnect
// command cascades into the same cleanup as explicit leaves.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("Websocket upgrade failed", "error", err)
		return
	}

	sink := NewSink(s.sinkBuffer)
	conn := NewConn(socket, sink, s.log)
	s.hub.Connect(conn.ID(), sink)
	s.log.Info("Connection opened", "conn", conn.ID())

	ctx := r.Context()
	go conn.WritePump(ctx)

	conn.PrepareRead()
	for {
		env, ok := conn.ReadFrame()
		if !ok {
			break
		}
		s.dispatch(conn.ID(), env)
	}

	s.hub.Enqueue(domain.DisconnectCommand{Conn: conn.ID()})
	s.log.Info("Connection closed", "conn", conn.ID())
}

// dispatch maps one inbound envelope to hub commands. Malformed frames
// are dropped with a log line; there is no reply and no crash, the
// presence layer must never bring the process down.
func (s *Server) dispatch(conn domain.ConnectionID, env Envelope) {
	switch env.Event {
	case "join_shield_room":
		mode, ok := decodeStringArg(env.Data, "mode")
		if !ok {
			s.reject(conn, env.Event, "missing mode")
			return
		}
		s.hub.Enqueue(domain.JoinCommand{Conn: conn, Room: domain.ShieldRoom(mode)})

	case "leave_shield_room":
		mode, ok := decodeStringArg(env.Data, "mode")
		if !ok {
			s.reject(conn, env.Event, "missing mode")
			return
		}
		s.hub.Enqueue(domain.LeaveCommand{Conn: conn, Room: domain.ShieldRoom(mode)})

	case "shield_heartbeat":
		var p shieldHeartbeatPayload
		if !s.decode(conn, env, &p) {
			return
		}
		// "Silent High-Five" relayed to everyone else in the shield.
		s.hub.Enqueue(domain.RelayCommand{
			Conn:  conn,
			Room:  domain.ShieldRoom(p.ShieldMode),
			Event: event.ShieldSignal{Mode: p.ShieldMode, Type: "heartbeat"},
		})

	case "join_jam":
		var p joinJamPayload
		if !s.decode(conn, env, &p) {
			return
		}
		room := domain.JamRoom(p.RoomID)
		s.hub.Enqueue(domain.JoinCommand{Conn: conn, Room: room})
		s.hub.Enqueue(domain.RelayCommand{
			Conn:  conn,
			Room:  room,
			Event: event.UserJoinedJam{Target: room, UserID: p.UserID},
		})

	case "jam_trigger":
		var p jamTriggerPayload
		if !s.decode(conn, env, &p) {
			return
		}
		room := domain.JamRoom(p.RoomID)
		s.hub.Enqueue(domain.RelayCommand{
			Conn: conn,
			Room: room,
			Event: event.PlayJamLayer{
				Target:    room,
				TriggerID: p.TriggerID,
				UserID:    p.UserID,
				Volume:    p.Volume,
			},
		})

	case "jam_gift":
		var p jamGiftPayload
		if !s.decode(conn, env, &p) {
			return
		}
		room := domain.JamRoom(p.RoomID)
		s.hub.Enqueue(domain.RelayCommand{
			Conn: conn,
			Room: room,
			Event: event.GiftReceived{
				Target:     room,
				SenderID:   p.SenderID,
				ReceiverID: p.ReceiverID,
				GiftType:   p.GiftType,
				Amount:     p.Amount,
			},
		})

	case "join_sleep_room":
		roomKey, ok := decodeStringArg(env.Data, "roomId")
		if !ok {
			s.reject(conn, env.Event, "missing roomId")
			return
		}
		s.hub.Enqueue(domain.JoinCommand{Conn: conn, Room: domain.SleepRoom(roomKey)})

	case "leave_quietly":
		var p leaveQuietlyPayload
		if !s.decode(conn, env, &p) {
			return
		}
		room := domain.SleepRoom(p.RoomID)
		// Soft notification first, then the actual leave; both land on
		// the hub queue in this order.
		s.hub.Enqueue(domain.RelayCommand{
			Conn:  conn,
			Room:  room,
			Event: event.PartnerLeftQuietly{Target: room},
		})
		s.hub.Enqueue(domain.LeaveCommand{Conn: conn, Room: room})

	case "volume_change":
		var p volumeChangePayload
		if !s.decode(conn, env, &p) {
			return
		}
		room := domain.SleepRoom(p.RoomID)
		s.hub.Enqueue(domain.RelayCommand{
			Conn:  conn,
			Room:  room,
			Event: event.SyncVolume{Target: room, Volume: p.Volume},
		})

	case "play_trigger":
		var p playTriggerPayload
		if !s.decode(conn, env, &p) {
			return
		}
		room := domain.SleepRoom(p.RoomID)
		s.hub.Enqueue(domain.RelayCommand{
			Conn:  conn,
			Room:  room,
			Event: event.SyncPlay{Target: room, Trigger: p.Trigger, Volume: p.Volume},
		})

	case "pause_trigger":
		var p pauseTriggerPayload
		if !s.decode(conn, env, &p) {
			return
		}
		room := domain.SleepRoom(p.RoomID)
		s.hub.Enqueue(domain.RelayCommand{
			Conn:  conn,
			Room:  room,
			Event: event.SyncPause{Target: room},
		})

	default:
		s.reject(conn, env.Event, "unknown event")
	}
}

// decode unmarshals and validates the payload in one step.
func (s *Server) decode(conn domain.ConnectionID, env Envelope, out any) bool {
	if err := json.Unmarshal(env.Data, out); err != nil {
		s.reject(conn, env.Event, err.Error())
		return false
	}
	if err := s.validate.Struct(out); err != nil {
		s.reject(conn, env.Event, err.Error())
		return false
	}
	return true
}

func (s *Server) reject(conn domain.ConnectionID, eventName, reason string) {
	s.stats.PayloadRejected()
	s.log.Warn("Dropping malformed frame", "conn", conn, "event", eventName, "reason", reason)
}

func marshalPayload(evt event.DomainEvent, log *slog.Logger) json.RawMessage {
	bytes, err := json.Marshal(evt)
	if err != nil {
		log.Error("Payload marshaling failed", "event", evt.Name(), "error", err)
		return json.RawMessage(`{}`)
	}
	return bytes
}
