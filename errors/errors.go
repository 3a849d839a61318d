package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrSinkFull          = fmt.Errorf("sink buffer full")
	ErrUnknownEvent      = fmt.Errorf("unknown event name")
	ErrMalformedPayload  = fmt.Errorf("malformed payload")
	ErrUserNotFound      = fmt.Errorf("user not found")
	ErrWhisperNotFound   = fmt.Errorf("whisper not found")
	ErrInsufficientFunds = fmt.Errorf("insufficient ember balance")
	ErrUnsupportedAudio  = fmt.Errorf("unsupported audio payload")
	ErrEmptyWords        = fmt.Errorf("no words have been found")
	ErrScreenedContent   = fmt.Errorf("status text rejected by moderation")
	ErrVectorRequired    = fmt.Errorf("vibe vector required")
	ErrImageGeneration   = fmt.Errorf("image generation failed")
)
