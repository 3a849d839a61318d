//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one delivery target. A connection's sink is an ordered
// channel drained by a single writer, so two events consumed in
// sequence reach the client in that order.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks live connections and their room memberships.
// Join is idempotent; Leave and Disconnect of unknown handles are no-ops.
type IRegistry interface {
	Connect(conn domain.ConnectionID, sink EventSink)
	Disconnect(conn domain.ConnectionID) []domain.RoomID
	Join(conn domain.ConnectionID, room domain.RoomID) (count int, first bool, changed bool)
	Leave(conn domain.ConnectionID, room domain.RoomID) (count int, last bool, changed bool)
	Count(room domain.RoomID) int
	SinksForRoom(room domain.RoomID, exclude ...domain.ConnectionID) []EventSink
	AllSinks() []EventSink
	Occupancies() []domain.Occupancy
}

// IScheduler owns every pulse-timer lifecycle transition. The hub calls
// the hooks on the first-member and last-member transitions only.
type IScheduler interface {
	OnFirstMember(room domain.RoomID)
	OnLastMember(room domain.RoomID)
	Active(room domain.RoomID) bool
	StopAll()
}

// IHub accepts commands from transports and schedulers. Enqueue never
// blocks the caller; a full queue drops the command with a log line.
// Connect is synchronous so the session exists before the first command
// from the same socket is processed.
type IHub interface {
	Connect(conn domain.ConnectionID, sink EventSink)
	Enqueue(cmd domain.Command)
}
