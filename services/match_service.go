package services

import (
	"log/slog"
	"math"

	"github.com/samber/lo"

	"github.com/Bitcomethub/Somnus/domain"
	"github.com/Bitcomethub/Somnus/errors"
	"github.com/Bitcomethub/Somnus/repositories"
)

const (
	tolerancePenaltyWeight = 8
	frequencyThreshold     = 0.82
)

type MatchScore struct {
	Score          int `json:"score"`
	Common         int `json:"common"`
	ToleranceDelta int `json:"toleranceDelta"`
}

type FrequencyMatch struct {
	Match      bool         `json:"match"`
	User       *domain.User `json:"user,omitempty"`
	Similarity float64      `json:"similarity,omitempty"`
}

type MatchService struct {
	log   *slog.Logger
	users repositories.IUserRepository
}

func NewMatchService(log *slog.Logger, users repositories.IUserRepository) *MatchService {
	return &MatchService{log: log, users: users}
}

// Score measures trigger compatibility between two users: the share of
// triggers they have in common, minus a penalty when one wants whisper
// volume and the other wants a loud room.
func (s *MatchService) Score(userAID, userBID string) (MatchScore, error) {
	userA, err := s.users.Get(userAID)
	if err != nil {
		return MatchScore{}, err
	}
	userB, err := s.users.Get(userBID)
	if err != nil {
		return MatchScore{}, err
	}

	common := lo.Intersect(userA.TriggerInventory, userB.TriggerInventory)
	union := lo.Union(userA.TriggerInventory, userB.TriggerInventory)
	unionSize := len(union)
	if unionSize == 0 {
		unionSize = 1
	}
	baseScore := float64(len(common)) / float64(unionSize) * 100

	toleranceDelta := abs(defaultTolerance(userA.SensoryTolerance) - defaultTolerance(userB.SensoryTolerance))
	penalty := toleranceDelta * tolerancePenaltyWeight

	score := int(math.Round(baseScore)) - penalty
	if score < 0 {
		score = 0
	}

	return MatchScore{Score: score, Common: len(common), ToleranceDelta: toleranceDelta}, nil
}

// FrequencyCheck finds the closest user by vibe embedding, ignoring
// anyone below the similarity threshold.
func (s *MatchService) FrequencyCheck(userID string, vector []float64) (FrequencyMatch, error) {
	if len(vector) == 0 {
		return FrequencyMatch{}, errors.ErrVectorRequired
	}

	users, err := s.users.List()
	if err != nil {
		return FrequencyMatch{}, err
	}

	var best *domain.User
	bestSimilarity := frequencyThreshold
	for i := range users {
		candidate := users[i]
		if candidate.ID == userID || len(candidate.VibeEmbedding) == 0 {
			continue
		}
		similarity := cosineSimilarity(vector, candidate.VibeEmbedding)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = &users[i]
		}
	}

	if best == nil {
		return FrequencyMatch{Match: false}, nil
	}
	public := best.PublicView()
	return FrequencyMatch{Match: true, User: &public, Similarity: bestSimilarity}, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func defaultTolerance(tolerance int) int {
	if tolerance == 0 {
		return 5
	}
	return tolerance
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
