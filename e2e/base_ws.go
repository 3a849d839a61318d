package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"

	"github.com/Bitcomethub/Somnus/client"
	"github.com/Bitcomethub/Somnus/observability"
	"github.com/Bitcomethub/Somnus/runtime"
	"github.com/Bitcomethub/Somnus/ws"
)

// BaseWsSuite boots a full in-process presence stack (registry, hub,
// scheduler, websocket transport) on an ephemeral port and hands out
// typed clients. Each test file embeds it.
type BaseWsSuite struct {
	suite.Suite
	Config    Config
	Scheduler *runtime.PulseScheduler
	Stats     *observability.PresenceStats

	server *httptest.Server
	cancel context.CancelFunc
}

func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

func (s *BaseWsSuite) SetupTest() {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	s.Stats = observability.NewPresenceStats(log)

	registry := runtime.NewRegistry()
	s.Scheduler = runtime.NewPulseScheduler(log, s.Stats, s.Config.PulseInterval)
	hub := runtime.NewHub(log, registry, s.Scheduler, s.Stats, 256, s.Config.Wait)
	s.Scheduler.Bind(hub)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() { _ = hub.Run(ctx) }()

	wsServer := ws.NewServer(log, hub, s.Stats, 64)
	s.server = httptest.NewServer(http.HandlerFunc(wsServer.ServeWS))
}

func (s *BaseWsSuite) TearDownTest() {
	s.Scheduler.StopAll()
	s.cancel()
	s.server.Close()
}

// Dial opens a typed websocket client against the suite server and
// registers its cleanup.
func (s *BaseWsSuite) Dial(name string) *client.Client {
	s.Header(fmt.Sprintf("connecting %s", name))

	url := "ws" + strings.TrimPrefix(s.server.URL, "http")
	c, err := client.Dial(context.Background(), url)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = c.Close() })
	return c
}

// Header prints a colorized step marker in the test log.
func (s *BaseWsSuite) Header(step string) {
	header := fmt.Sprintf("  ====== %s ======", step)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}
