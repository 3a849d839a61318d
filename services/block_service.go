package services

import (
	"log/slog"
	"time"

	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/repositories"
)

type BlockService struct {
	log    *slog.Logger
	blocks repositories.IBlockRepository
}

func NewBlockService(log *slog.Logger, blocks repositories.IBlockRepository) *BlockService {
	return &BlockService{log: log, blocks: blocks}
}

// Block severs the pair: future whispers from the blocked user are
// dropped silently.
func (s *BlockService) Block(blockerID, blockedID string) error {
	block := domain.Block{
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: time.Now(),
	}
	if err := s.blocks.Save(block); err != nil {
		return err
	}
	s.log.Info("user blocked", slog.String("blocker", blockerID), slog.String("blocked", blockedID))
	return nil
}
