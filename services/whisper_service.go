package services

import (
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/errors"
	"github.com/Bitcomethub/Somnus/repositories"
)

// Voice notes only. Sniffed from the decoded bytes, never trusted
// from the payload.
var allowedAudioTypes = map[string]struct{}{
	"audio/mpeg": {},
	"audio/ogg":  {},
	"audio/wav":  {},
	"audio/webm": {},
	"video/webm": {}, // browser MediaRecorder labels opus voice notes this way
	"audio/aac":  {},
	"audio/flac": {},
}

type WhisperService struct {
	log      *slog.Logger
	whispers repositories.IWhisperRepository
	blocks   repositories.IBlockRepository
}

func NewWhisperService(log *slog.Logger, whispers repositories.IWhisperRepository, blocks repositories.IBlockRepository) *WhisperService {
	return &WhisperService{log: log, whispers: whispers, blocks: blocks}
}

// Send stores a voice note for the receiver. The audio arrives as
// base64 (optionally a data URI); it is decoded and content-sniffed
// before anything touches the store.
func (s *WhisperService) Send(senderID, receiverID, audioData string) (domain.Whisper, error) {
	blocked, err := s.blocks.IsBlocked(receiverID, senderID)
	if err != nil {
		return domain.Whisper{}, err
	}
	if blocked {
		// The sender must not learn they are blocked. Pretend success.
		s.log.Info("whisper dropped silently", slog.String("sender", senderID), slog.String("receiver", receiverID))
		return domain.Whisper{
			ID:         uuid.New(),
			SenderID:   senderID,
			ReceiverID: receiverID,
			CreatedAt:  time.Now(),
		}, nil
	}

	raw, err := decodeAudio(audioData)
	if err != nil {
		return domain.Whisper{}, errors.ErrUnsupportedAudio
	}

	detected := mimetype.Detect(raw)
	if _, ok := allowedAudioTypes[detected.String()]; !ok {
		s.log.Warn("rejected whisper upload", slog.String("mime", detected.String()))
		return domain.Whisper{}, errors.ErrUnsupportedAudio
	}

	whisper := domain.Whisper{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		AudioData:  base64.StdEncoding.EncodeToString(raw),
		MimeType:   detected.String(),
		CreatedAt:  time.Now(),
	}
	if err := s.whispers.Save(whisper); err != nil {
		return domain.Whisper{}, err
	}
	return whisper, nil
}

func (s *WhisperService) Inbox(receiverID string) ([]domain.Whisper, error) {
	return s.whispers.Inbox(receiverID)
}

func decodeAudio(audioData string) ([]byte, error) {
	// Strip a "data:audio/webm;base64," prefix if the client sent one.
	if idx := strings.Index(audioData, ","); idx != -1 && strings.HasPrefix(audioData, "data:") {
		audioData = audioData[idx+1:]
	}
	return base64.StdEncoding.DecodeString(audioData)
}
