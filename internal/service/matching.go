package service

import (
	"math"
	"sort"

	"backend/internal/models"
	"backend/internal/repository"

	"go.uber.org/zap"
)

// MatchResult pairs a candidate with their compatibility score.
type MatchResult struct {
	User  *models.User `json:"user"`
	Score int          `json:"match_percentage"`
}

type MatchingService interface {
	Similarity(userID1, userID2 int64) (int, error)
	RankedMatches(userID int64, limit int) ([]MatchResult, error)
}

type matchingService struct {
	userRepo         repository.UserRepository
	verificationRepo repository.VerificationRepository
	logger           *zap.Logger
}

func NewMatchingService(userRepo repository.UserRepository, verificationRepo repository.VerificationRepository, logger *zap.Logger) MatchingService {
	return &matchingService{
		userRepo:         userRepo,
		verificationRepo: verificationRepo,
		logger:           logger,
	}
}

// ChildrenSimilarity computes a 0-100 compatibility score between two
// users' children profiles. Users without a verification record or with
// no children score 0; missing data is the lowest-compatibility input,
// not an error.
//
// Every child of one user is compared against every child of the other.
// Each pair contributes three comparisons: age within one year, matching
// screen-restriction flags, and the Jaccard index of the permitted
// activity sets. The score is the matched fraction of all comparisons,
// as a rounded percentage.
//
// The function is pure and recomputes from scratch on every call; child
// lists are single-digit sized, so the quadratic pairing is not worth
// caching.
func ChildrenSimilarity(user1, user2 *models.User) int {
	if user1 == nil || user2 == nil ||
		user1.Verification == nil || user2.Verification == nil {
		return 0
	}

	children1 := user1.Verification.Children
	children2 := user2.Verification.Children
	if len(children1) == 0 || len(children2) == 0 {
		return 0
	}

	var totalMatches float64
	var totalComparisons int

	for _, child1 := range children1 {
		for _, child2 := range children2 {
			// 1. Age proximity, with one year of tolerance.
			totalComparisons++
			if absInt(child1.Age-child2.Age) <= 1 {
				totalMatches++
			}

			// 2. Screen restriction agreement.
			totalComparisons++
			if child1.ScreenRestricted == child2.ScreenRestricted {
				totalMatches++
			}

			// 3. Activity overlap (Jaccard index).
			totalComparisons++
			totalMatches += activityOverlap(child1.Activities, child2.Activities)
		}
	}

	if totalComparisons == 0 {
		return 0
	}

	return int(math.Round(totalMatches / float64(totalComparisons) * 100))
}

// activityOverlap returns |intersection| / |union| of two activity lists,
// or 0 when both are empty. Both lists are deduplicated first; a repeated
// label counts once.
func activityOverlap(activities1, activities2 []string) float64 {
	set1 := make(map[string]struct{}, len(activities1))
	for _, a := range activities1 {
		set1[a] = struct{}{}
	}
	set2 := make(map[string]struct{}, len(activities2))
	for _, a := range activities2 {
		set2[a] = struct{}{}
	}

	common := 0
	union := len(set1)
	for a := range set2 {
		if _, ok := set1[a]; ok {
			common++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Similarity scores two users by id.
func (s *matchingService) Similarity(userID1, userID2 int64) (int, error) {
	user1, err := s.loadWithVerification(userID1)
	if err != nil {
		return 0, err
	}
	user2, err := s.loadWithVerification(userID2)
	if err != nil {
		return 0, err
	}
	return ChildrenSimilarity(user1, user2), nil
}

// RankedMatches scores every other user against the given one and returns
// them ordered by descending score. The sort is stable, so candidates
// with equal scores keep directory order; unverified candidates
// legitimately tie at 0. A positive limit truncates the result.
func (s *matchingService) RankedMatches(userID int64, limit int) ([]MatchResult, error) {
	users, err := s.userRepo.List()
	if err != nil {
		return nil, err
	}

	verifications, err := s.verificationRepo.LoadAll()
	if err != nil {
		return nil, err
	}

	var current *models.User
	for _, user := range users {
		user.Verification = verifications[user.ID]
		if user.ID == userID {
			current = user
		}
	}
	if current == nil {
		return nil, ErrUserNotFound
	}

	results := make([]MatchResult, 0, len(users)-1)
	for _, candidate := range users {
		if candidate.ID == userID {
			continue
		}
		results = append(results, MatchResult{
			User:  candidate,
			Score: ChildrenSimilarity(current, candidate),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	return results, nil
}

func (s *matchingService) loadWithVerification(userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	verification, err := s.verificationRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	user.Verification = verification
	return user, nil
}
