package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/Bitcomethub/Somnus/ai"
	"github.com/Bitcomethub/Somnus/errors"
	"github.com/Bitcomethub/Somnus/moderation"
	"github.com/Bitcomethub/Somnus/repositories"
)

const vibeSystemPrompt = "You are Somnus AI. Analyze the user's status text and recommend one of the following Shield Modes: 'commuter' (for travel/chaos), 'office' (for focus/work), 'nomad' (for nature/escape), 'sky' (for detachment/sleep). Also provide a short 2-3 word Vibe Tag (e.g. 'High Focus', 'Deep Rest'). Return JSON: { \"mode\": string, \"vibe\": string }."

const wingmanSystemPrompt = "You are Somnus Wingman. Function: Identify shared niche interests between two users and the current environment. Action: Whisper a single, gentle, poetic icebreaker sentence to start a deep conversation. Tone: Mystical, intimate, non-cringe. Max 20 words."

type VibeResult struct {
	Mode string `json:"mode"`
	Vibe string `json:"vibe"`
}

type WingmanResult struct {
	Whisper string `json:"whisper"`
}

type VibeService struct {
	log       *slog.Logger
	completer ai.Completer
	moderator *moderation.Moderator
	users     repositories.IUserRepository
}

func NewVibeService(log *slog.Logger, completer ai.Completer, moderator *moderation.Moderator, users repositories.IUserRepository) *VibeService {
	return &VibeService{log: log, completer: completer, moderator: moderator, users: users}
}

// Check classifies a freeform status text into a shield mode and a
// short vibe tag. Screened content never reaches the model, and any
// model failure degrades to a neutral fallback instead of an error.
func (s *VibeService) Check(ctx context.Context, userID, statusText string) (VibeResult, error) {
	if s.moderator.Flagged(statusText) {
		return VibeResult{}, errors.ErrScreenedContent
	}

	content, err := s.completer.Complete(ctx, vibeSystemPrompt, statusText)
	if err != nil {
		s.log.Warn("vibe engine unavailable, using fallback", slog.Any("error", err))
		return VibeResult{Mode: "nomad", Vibe: "Offline Zen"}, nil
	}

	var result VibeResult
	if err := json.Unmarshal([]byte(extractJSON(content)), &result); err != nil || result.Mode == "" {
		s.log.Warn("vibe engine returned an unparseable answer", slog.String("content", content))
		return VibeResult{Mode: "nomad", Vibe: "Chill"}, nil
	}

	if userID != "" {
		if err := s.users.SetVibe(userID, result.Vibe, nil); err != nil && err != errors.ErrUserNotFound {
			return VibeResult{}, err
		}
	}
	return result, nil
}

// WingmanWhisper asks the model for a one-line icebreaker between two
// users sharing a shield. If the model is down, the fallback line is
// picked by the language of the users' preferences so a Turkish pair
// does not get an English whisper.
func (s *VibeService) WingmanWhisper(ctx context.Context, userAPrefs, userBPrefs, currentShield string) WingmanResult {
	prompt := fmt.Sprintf("User A likes: %s. User B likes: %s. They are currently in: %s.",
		userAPrefs, userBPrefs, currentShield)

	whisper, err := s.completer.Complete(ctx, wingmanSystemPrompt, prompt)
	if err != nil || strings.TrimSpace(whisper) == "" {
		s.log.Warn("wingman unavailable, using fallback", slog.Any("error", err))
		return WingmanResult{Whisper: fallbackWhisper(userAPrefs + " " + userBPrefs)}
	}
	// The model occasionally parrots flagged words from the prompt.
	return WingmanResult{Whisper: s.moderator.Censor(strings.TrimSpace(whisper))}
}

func fallbackWhisper(sample string) string {
	info := whatlanggo.Detect(sample)
	if info.Lang == whatlanggo.Tur {
		return "Buradaki sessizlik rahatlatıcı, değil mi?"
	}
	return "The silence here is comfortable, isn't it?"
}

// extractJSON tolerates models that wrap their answer in a markdown fence.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start != -1 {
		if end := strings.LastIndex(content, "}"); end > start {
			return content[start : end+1]
		}
	}
	return content
}
