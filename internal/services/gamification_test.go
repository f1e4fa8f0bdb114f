package services

import (
	"context"
	"testing"

	"github.com/princeprakhar/review-catalog-backend/internal/events"
	"github.com/princeprakhar/review-catalog-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T) *GamificationService {
	t.Helper()
	st, err := storage.OpenJSONStore(t.TempDir())
	require.NoError(t, err)
	return NewGamificationService(st)
}

func TestFirstReviewAwardsBaseAndBonus(t *testing.T) {
	g := newLedger(t)
	p, err := g.ApplyReviewContribution(context.Background(), "u1", "Laptops", Contribution{HasNotes: true, HasAttributes: true, Recommend: true})
	require.NoError(t, err)

	assert.Equal(t, 50+6+8+4+25, p.Points)
	assert.Equal(t, 1, p.ReviewCount)
	assert.True(t, p.Badges.FirstReview)
	assert.False(t, p.Badges.TrustedReviewer)
}

func TestBadgesAwardedExactlyOnce(t *testing.T) {
	g := newLedger(t)
	ctx := context.Background()

	var points []int
	for i := 0; i < 7; i++ {
		p, err := g.ApplyReviewContribution(ctx, "u1", "Electronics", Contribution{})
		require.NoError(t, err)
		points = append(points, p.Points)
	}

	// review 1: 50+25, reviews 2-4: 50, review 5: 50+75+100, reviews 6-7: 50
	assert.Equal(t, []int{75, 125, 175, 225, 450, 500, 550}, points)

	p, err := g.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, p.Badges.FirstReview)
	assert.True(t, p.Badges.TrustedReviewer)
	assert.True(t, p.Badges.CategoryExpert["Electronics"])
	assert.Equal(t, []string{"Electronics"}, p.ExpertCategories())
}

func TestFifthCategoryReviewAfterTrustedGivesExpertBonus(t *testing.T) {
	g := newLedger(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := g.ApplyReviewContribution(ctx, "u1", "Books", Contribution{})
		require.NoError(t, err)
	}
	for i := 0; i < 4; i++ {
		_, err := g.ApplyReviewContribution(ctx, "u1", "Electronics", Contribution{})
		require.NoError(t, err)
	}
	before, err := g.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.True(t, before.Badges.TrustedReviewer)
	require.False(t, before.Badges.CategoryExpert["Electronics"])

	after, err := g.ApplyReviewContribution(ctx, "u1", "Electronics", Contribution{HasNotes: true})
	require.NoError(t, err)
	assert.True(t, after.Badges.CategoryExpert["Electronics"])
	assert.Equal(t, before.Points+50+6+100, after.Points)
}

func TestHelpfulVoteCreditsAuthor(t *testing.T) {
	g := newLedger(t)
	ctx := context.Background()

	_, err := g.ApplyHelpfulVote(ctx, "author")
	require.NoError(t, err)
	p, err := g.ApplyHelpfulVote(ctx, "author")
	require.NoError(t, err)

	assert.Equal(t, 2, p.HelpfulReceived)
	assert.Equal(t, 10, p.Points)
	assert.Equal(t, 0, p.ReviewCount)
}

func TestGetProfileUnknownUser(t *testing.T) {
	g := newLedger(t)
	_, err := g.GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestHandleEventRoutesByKind(t *testing.T) {
	g := newLedger(t)
	ctx := context.Background()

	require.NoError(t, g.HandleEvent(ctx, events.Event{Kind: events.ReviewCreated, UserID: "u1", Category: "Audio", Recommend: true}))
	require.NoError(t, g.HandleEvent(ctx, events.Event{Kind: events.ReviewHelpful, UserID: "u1"}))

	p, err := g.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 50+4+25+5, p.Points)
	assert.Equal(t, 1, p.ReviewCountByCategory["Audio"])
}
