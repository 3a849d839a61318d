package services

import (
	"log/slog"

	"github.com/Bitcomethub/Somnus/repositories"
)

type BurnResult struct {
	Success    bool `json:"success"`
	NewBalance int  `json:"newBalance"`
}

type WalletService struct {
	log   *slog.Logger
	users repositories.IUserRepository
}

func NewWalletService(log *slog.Logger, users repositories.IUserRepository) *WalletService {
	return &WalletService{log: log, users: users}
}

// Burn spends embers from a user's balance. The repository rejects
// overdrafts inside the transaction, so a concurrent double-spend
// cannot take the balance negative.
func (s *WalletService) Burn(userID string, cost int) (BurnResult, error) {
	newBalance, err := s.users.BurnEmbers(userID, cost)
	if err != nil {
		return BurnResult{}, err
	}
	s.log.Info("embers burned", slog.String("user", userID), slog.Int("cost", cost), slog.Int("balance", newBalance))
	return BurnResult{Success: true, NewBalance: newBalance}, nil
}
