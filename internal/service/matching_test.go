package service

import (
	"testing"

	"backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func verifiedUser(id int64, children ...models.ChildProfile) *models.User {
	return &models.User{
		ID:           id,
		Verified:     true,
		Verification: &models.VerificationRecord{UserID: id, Children: children},
	}
}

func TestChildrenSimilarity_IdenticalChildren(t *testing.T) {
	user := verifiedUser(1, models.ChildProfile{
		Age:              4,
		ScreenRestricted: true,
		Activities:       []string{"Leitura", "Música"},
	})

	// A user compared against itself matches on every sub-score.
	assert.Equal(t, 100, ChildrenSimilarity(user, user))
}

func TestChildrenSimilarity_DocumentedScenario(t *testing.T) {
	// Age diff of 1 matches, restriction flags match, activity Jaccard is
	// 1/3: (1 + 1 + 1/3) / 3 = 77.78% which rounds to 78.
	userA := verifiedUser(1, models.ChildProfile{
		Age:              4,
		ScreenRestricted: false,
		Activities:       []string{"Leitura", "Música"},
	})
	userB := verifiedUser(2, models.ChildProfile{
		Age:              5,
		ScreenRestricted: false,
		Activities:       []string{"Música", "Desenho"},
	})

	assert.Equal(t, 78, ChildrenSimilarity(userA, userB))
}

func TestChildrenSimilarity_Symmetry(t *testing.T) {
	userA := verifiedUser(1,
		models.ChildProfile{Age: 3, ScreenRestricted: true, Activities: []string{"Leitura"}},
		models.ChildProfile{Age: 7, ScreenRestricted: false, Activities: []string{"Esportes", "Música"}},
	)
	userB := verifiedUser(2,
		models.ChildProfile{Age: 5, ScreenRestricted: false, Activities: []string{"Música"}},
	)

	assert.Equal(t, ChildrenSimilarity(userA, userB), ChildrenSimilarity(userB, userA))
}

func TestChildrenSimilarity_MissingVerificationData(t *testing.T) {
	verified := verifiedUser(1, models.ChildProfile{Age: 4})
	unverified := &models.User{ID: 2}
	noChildren := &models.User{ID: 3, Verification: &models.VerificationRecord{UserID: 3}}

	assert.Equal(t, 0, ChildrenSimilarity(verified, unverified))
	assert.Equal(t, 0, ChildrenSimilarity(unverified, verified))
	assert.Equal(t, 0, ChildrenSimilarity(verified, noChildren))
	assert.Equal(t, 0, ChildrenSimilarity(nil, verified))
}

func TestChildrenSimilarity_DuplicateActivityLabels(t *testing.T) {
	// Repeated labels survive the catalog check, so they must count once.
	userA := verifiedUser(1, models.ChildProfile{
		Age:        4,
		Activities: []string{"Leitura"},
	})
	userB := verifiedUser(2, models.ChildProfile{
		Age:        4,
		Activities: []string{"Leitura", "Leitura"},
	})

	score := ChildrenSimilarity(userA, userB)
	assert.Equal(t, 100, score)
	assert.Equal(t, score, ChildrenSimilarity(userB, userA))

	// Duplicates on both sides of a partial overlap.
	userC := verifiedUser(3, models.ChildProfile{
		Age:        4,
		Activities: []string{"Leitura", "Leitura", "Música"},
	})
	userD := verifiedUser(4, models.ChildProfile{
		Age:        4,
		Activities: []string{"Música", "Música", "Esportes"},
	})

	// Jaccard is 1/3 over {Leitura, Música, Esportes}:
	// (1 + 1 + 1/3) / 3 rounds to 78.
	score = ChildrenSimilarity(userC, userD)
	assert.Equal(t, 78, score)
	assert.Equal(t, score, ChildrenSimilarity(userD, userC))
	assert.LessOrEqual(t, score, 100)
}

func TestChildrenSimilarity_EmptyActivitySets(t *testing.T) {
	// Empty activity union contributes 0, not a division by zero: age and
	// restriction match, activities do not. 2/3 rounds to 67.
	userA := verifiedUser(1, models.ChildProfile{Age: 4, ScreenRestricted: false})
	userB := verifiedUser(2, models.ChildProfile{Age: 4, ScreenRestricted: false})

	assert.Equal(t, 67, ChildrenSimilarity(userA, userB))
}

func TestChildrenSimilarity_MultipleChildrenCartesianProduct(t *testing.T) {
	// 2x1 children means 2 pairs and 6 comparisons in total.
	userA := verifiedUser(1,
		models.ChildProfile{Age: 4, ScreenRestricted: false, Activities: []string{"Leitura"}},
		models.ChildProfile{Age: 9, ScreenRestricted: true, Activities: []string{"Esportes"}},
	)
	userB := verifiedUser(2,
		models.ChildProfile{Age: 4, ScreenRestricted: false, Activities: []string{"Leitura"}},
	)

	// First pair matches fully (3), second matches nothing (0): 3/6 = 50%.
	assert.Equal(t, 50, ChildrenSimilarity(userA, userB))
}

func setupMatching(t *testing.T) (*fakeUserRepo, *fakeVerificationRepo, MatchingService) {
	t.Helper()
	userRepo := newFakeUserRepo()
	verificationRepo := newFakeVerificationRepo()
	svc := NewMatchingService(userRepo, verificationRepo, zap.NewNop())
	return userRepo, verificationRepo, svc
}

func TestRankedMatches_OrderingAndExclusion(t *testing.T) {
	userRepo, verificationRepo, svc := setupMatching(t)

	// Current user with one child.
	userRepo.add(&models.User{ID: 1, Name: "Maria"})
	verificationRepo.records[1] = &models.VerificationRecord{UserID: 1, Children: []models.ChildProfile{
		{Age: 4, ScreenRestricted: false, Activities: []string{"Leitura", "Música"}},
	}}

	// Perfect match.
	userRepo.add(&models.User{ID: 2, Name: "Ana"})
	verificationRepo.records[2] = &models.VerificationRecord{UserID: 2, Children: []models.ChildProfile{
		{Age: 4, ScreenRestricted: false, Activities: []string{"Leitura", "Música"}},
	}}

	// Partial match.
	userRepo.add(&models.User{ID: 3, Name: "Fernanda"})
	verificationRepo.records[3] = &models.VerificationRecord{UserID: 3, Children: []models.ChildProfile{
		{Age: 9, ScreenRestricted: false, Activities: []string{"Esportes"}},
	}}

	// Unverified users score 0 and keep directory order between themselves.
	userRepo.add(&models.User{ID: 4, Name: "Carla"})
	userRepo.add(&models.User{ID: 5, Name: "Beatriz"})

	matches, err := svc.RankedMatches(1, 0)
	require.NoError(t, err)
	require.Len(t, matches, 4)

	assert.Equal(t, int64(2), matches[0].User.ID)
	assert.Equal(t, 100, matches[0].Score)
	assert.Equal(t, int64(3), matches[1].User.ID)

	// Stable sort: the two zero-score candidates keep their input order.
	assert.Equal(t, int64(4), matches[2].User.ID)
	assert.Equal(t, int64(5), matches[3].User.ID)
	assert.Equal(t, 0, matches[2].Score)

	// The querying user never appears in their own feed.
	for _, match := range matches {
		assert.NotEqual(t, int64(1), match.User.ID)
	}

	// Scores are descending.
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
}

func TestRankedMatches_LimitIsPrefixOfUnlimited(t *testing.T) {
	userRepo, verificationRepo, svc := setupMatching(t)

	userRepo.add(&models.User{ID: 1})
	verificationRepo.records[1] = &models.VerificationRecord{UserID: 1, Children: []models.ChildProfile{{Age: 2}}}
	for id := int64(2); id <= 6; id++ {
		userRepo.add(&models.User{ID: id})
	}

	all, err := svc.RankedMatches(1, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)

	limited, err := svc.RankedMatches(1, 3)
	require.NoError(t, err)
	require.Len(t, limited, 3)
	for i := range limited {
		assert.Equal(t, all[i].User.ID, limited[i].User.ID)
		assert.Equal(t, all[i].Score, limited[i].Score)
	}

	// A limit larger than the candidate set returns everything.
	oversized, err := svc.RankedMatches(1, 50)
	require.NoError(t, err)
	assert.Len(t, oversized, 5)
}

func TestRankedMatches_UnknownUser(t *testing.T) {
	_, _, svc := setupMatching(t)

	_, err := svc.RankedMatches(99, 0)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRankedMatches_EmptyDirectory(t *testing.T) {
	userRepo, _, svc := setupMatching(t)
	userRepo.add(&models.User{ID: 1})

	matches, err := svc.RankedMatches(1, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSimilarity_ByID(t *testing.T) {
	userRepo, verificationRepo, svc := setupMatching(t)

	userRepo.add(&models.User{ID: 1})
	userRepo.add(&models.User{ID: 2})
	verificationRepo.records[1] = &models.VerificationRecord{UserID: 1, Children: []models.ChildProfile{
		{Age: 4, Activities: []string{"Leitura"}},
	}}
	verificationRepo.records[2] = &models.VerificationRecord{UserID: 2, Children: []models.ChildProfile{
		{Age: 4, Activities: []string{"Leitura"}},
	}}

	score, err := svc.Similarity(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	_, err = svc.Similarity(1, 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
