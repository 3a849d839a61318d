package services

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/errors"
	"github.com/Bitcomethub/Somnus/moderation"
)

type fakeCompleter struct {
	answer string
	err    error
	asked  []string
}

func (c *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	c.asked = append(c.asked, user)
	return c.answer, c.err
}

func newVibeService(t *testing.T, completer *fakeCompleter, users *fakeUserRepository) *VibeService {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	moderator, err := moderation.NewModerator([]string{"badword"}, '*')
	require.NoError(t, err)
	return NewVibeService(log, completer, &moderator, users)
}

func TestVibeService_Check_Parses_Model_Answer(t *testing.T) {
	req := require.New(t)
	users := newFakeUsers(domain.User{ID: "u-1"})
	completer := &fakeCompleter{answer: `{"mode":"office","vibe":"High Focus"}`}
	service := newVibeService(t, completer, users)

	result, err := service.Check(context.Background(), "u-1", "grinding through a deadline")

	req.NoError(err)
	req.Equal("office", result.Mode)
	req.Equal("High Focus", result.Vibe)

	// And the vibe tag landed on the profile
	user, err := users.Get("u-1")
	req.NoError(err)
	req.Equal("High Focus", user.CurrentVibe)
}

func TestVibeService_Check_Tolerates_Fenced_JSON(t *testing.T) {
	req := require.New(t)
	completer := &fakeCompleter{answer: "```json\n{\"mode\":\"sky\",\"vibe\":\"Deep Rest\"}\n```"}
	service := newVibeService(t, completer, newFakeUsers())

	result, err := service.Check(context.Background(), "", "floating away")

	req.NoError(err)
	req.Equal("sky", result.Mode)
}

func TestVibeService_Check_Falls_Back_When_Model_Is_Down(t *testing.T) {
	req := require.New(t)
	completer := &fakeCompleter{err: fmt.Errorf("connection refused")}
	service := newVibeService(t, completer, newFakeUsers())

	result, err := service.Check(context.Background(), "", "any status")

	// Offline fallback never surfaces the transport error
	req.NoError(err)
	req.Equal("nomad", result.Mode)
	req.Equal("Offline Zen", result.Vibe)
}

func TestVibeService_Check_Falls_Back_On_Garbage_Answer(t *testing.T) {
	req := require.New(t)
	completer := &fakeCompleter{answer: "sure! here is some prose instead of JSON"}
	service := newVibeService(t, completer, newFakeUsers())

	result, err := service.Check(context.Background(), "", "any status")

	req.NoError(err)
	req.Equal("nomad", result.Mode)
	req.Equal("Chill", result.Vibe)
}

func TestVibeService_Check_Screens_Flagged_Text(t *testing.T) {
	req := require.New(t)
	completer := &fakeCompleter{answer: `{"mode":"office","vibe":"x"}`}
	service := newVibeService(t, completer, newFakeUsers())

	_, err := service.Check(context.Background(), "", "you badword")

	// Screened content never reaches the model
	req.ErrorIs(err, errors.ErrScreenedContent)
	req.Empty(completer.asked)
}

func TestVibeService_WingmanWhisper_Uses_Model_Answer(t *testing.T) {
	req := require.New(t)
	completer := &fakeCompleter{answer: "  The rain seems to know you both.  "}
	service := newVibeService(t, completer, newFakeUsers())

	result := service.WingmanWhisper(context.Background(), "rain, typing", "rain, pages", "office")

	req.Equal("The rain seems to know you both.", result.Whisper)
	req.Contains(completer.asked[0], "User A likes: rain, typing")
}

func TestVibeService_WingmanWhisper_Masks_Flagged_Words(t *testing.T) {
	req := require.New(t)
	completer := &fakeCompleter{answer: "Even a badword sounds soft in the rain."}
	service := newVibeService(t, completer, newFakeUsers())

	result := service.WingmanWhisper(context.Background(), "rain", "rain", "office")

	req.Equal("Even a ******* sounds soft in the rain.", result.Whisper)
}

func TestVibeService_WingmanWhisper_Fallback_Matches_Language(t *testing.T) {
	req := require.New(t)
	service := newVibeService(t, &fakeCompleter{err: fmt.Errorf("down")}, newFakeUsers())

	english := service.WingmanWhisper(context.Background(),
		"gentle rain and slow page turning sounds", "soft fan humming all night", "office")
	req.Equal("The silence here is comfortable, isn't it?", english.Whisper)

	turkish := service.WingmanWhisper(context.Background(),
		"yağmur sesi ve sayfa çevirme sesleri çok güzel", "sessiz vantilatör uğultusu dinlemek", "office")
	req.Equal("Buradaki sessizlik rahatlatıcı, değil mi?", turkish.Whisper)
}
