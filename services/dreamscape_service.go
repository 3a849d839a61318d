package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Bitcomethub/Somnus/ai"
	"github.com/Bitcomethub/Somnus/errors"
	"github.com/Bitcomethub/Somnus/repositories"
)

const dreamscapeCost = 10

const dreamscapePromptTemplate = "A cinematic, atmospheric, moody digital sanctuary background for a meditation app. Theme: %s. Minimalist, soothing, high resolution, 9:16 aspect ratio."

type DreamscapeResult struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
}

// DreamscapeService renders a personal sanctuary background for ember
// currency.
type DreamscapeService struct {
	log    *slog.Logger
	images ai.ImageGenerator
	users  repositories.IUserRepository
}

func NewDreamscapeService(log *slog.Logger, images ai.ImageGenerator, users repositories.IUserRepository) *DreamscapeService {
	return &DreamscapeService{log: log, images: images, users: users}
}

// Generate burns the embers first so a failed payment never reaches the
// renderer, then asks for the image. A render failure refunds the
// embers for real before surfacing the error.
func (s *DreamscapeService) Generate(ctx context.Context, userID, theme string) (DreamscapeResult, error) {
	if _, err := s.users.BurnEmbers(userID, dreamscapeCost); err != nil {
		return DreamscapeResult{}, err
	}

	imageURL, err := s.images.GenerateImage(ctx, fmt.Sprintf(dreamscapePromptTemplate, theme))
	if err != nil {
		s.log.Warn("dreamscape render failed, refunding embers",
			slog.String("user", userID), slog.Any("error", err))
		if _, refundErr := s.users.CreditEmbers(userID, dreamscapeCost); refundErr != nil {
			s.log.Error("ember refund failed", slog.String("user", userID), slog.Any("error", refundErr))
		}
		return DreamscapeResult{}, errors.ErrImageGeneration
	}

	s.log.Info("dreamscape rendered", slog.String("user", userID))
	return DreamscapeResult{Success: true, ImageURL: imageURL}, nil
}
