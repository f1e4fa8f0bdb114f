package services

import (
	"context"
	"testing"

	"github.com/princeprakhar/review-catalog-backend/internal/events"
	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) bool {
	p.events = append(p.events, e)
	return true
}

func TestCreateReviewValidation(t *testing.T) {
	s := NewReviewService(newTestStore(t), nil)
	ctx := context.Background()

	_, err := s.CreateReview(ctx, "", models.CreateReviewRequest{ProductID: "1", OverallRating: 4})
	require.ErrorIs(t, err, ErrInvalidReview)
	assert.Contains(t, err.Error(), "Missing required fields")

	_, err = s.CreateReview(ctx, "", models.CreateReviewRequest{ProductID: "1", OverallRating: 6, ReviewerName: "Ana"})
	assert.ErrorIs(t, err, ErrInvalidReview)

	bad := models.ReviewAttributes{Battery: 9}
	_, err = s.CreateReview(ctx, "", models.CreateReviewRequest{ProductID: "1", OverallRating: 4, ReviewerName: "Ana", Attributes: &bad})
	assert.ErrorIs(t, err, ErrInvalidReview)

	_, err = s.CreateReview(ctx, "", models.CreateReviewRequest{ProductID: "1", OverallRating: 4, ReviewerName: "Ana", ReviewerEmail: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidReview)

	_, err = s.CreateReview(ctx, "", models.CreateReviewRequest{ProductID: "ghost", OverallRating: 4, ReviewerName: "Ana"})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateReviewDefaultsAndEvent(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewReviewService(newTestStore(t), pub)

	review, err := s.CreateReview(context.Background(), "user-7", models.CreateReviewRequest{
		ProductID:      "1",
		OverallRating:  5,
		Attributes:     &models.ReviewAttributes{},
		Notes:          "  Battery lasts two days  ",
		ReviewerName:   "Ana",
		WouldRecommend: true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.DefaultAttributes(), review.Attributes)
	assert.Equal(t, "Website", review.Source)
	assert.Equal(t, "Battery lasts two days", review.Notes)
	assert.Equal(t, "user-7", review.UserID)

	require.Len(t, pub.events, 1)
	e := pub.events[0]
	assert.Equal(t, events.ReviewCreated, e.Kind)
	assert.Equal(t, "user-7", e.UserID)
	assert.Equal(t, "Smartphones", e.Category)
	assert.True(t, e.HasNotes)
	assert.False(t, e.HasAttributes)
	assert.True(t, e.Recommend)
}

func TestCreateReviewWithoutUserPublishesNothing(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewReviewService(newTestStore(t), pub)

	_, err := s.CreateReview(context.Background(), "", models.CreateReviewRequest{
		ProductID: "2", OverallRating: 3, ReviewerName: "Guest", Source: "Reddit",
	})
	require.NoError(t, err)
	assert.Empty(t, pub.events)

	reviews, err := s.GetProductReviews(context.Background(), "2")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Reddit", reviews[0].Source)
}

func TestToggleHelpful(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewReviewService(newTestStore(t), pub)
	ctx := context.Background()

	review, err := s.CreateReview(ctx, "author", models.CreateReviewRequest{ProductID: "1", OverallRating: 4, ReviewerName: "Ana"})
	require.NoError(t, err)
	pub.events = nil

	res, err := s.ToggleHelpful(ctx, review.ID, "voter-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.HelpfulCount)
	assert.True(t, res.HasVoted)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.ReviewHelpful, pub.events[0].Kind)
	assert.Equal(t, "author", pub.events[0].UserID)

	res, err = s.ToggleHelpful(ctx, review.ID, "voter-1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.HelpfulCount)
	assert.False(t, res.HasVoted)
	assert.Len(t, pub.events, 1)

	_, err = s.ToggleHelpful(ctx, review.ID, " ")
	assert.ErrorIs(t, err, ErrInvalidReview)

	_, err = s.ToggleHelpful(ctx, "missing", "voter-1")
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestUpdateAndDeleteReview(t *testing.T) {
	s := NewReviewService(newTestStore(t), nil)
	ctx := context.Background()

	review, err := s.CreateReview(ctx, "", models.CreateReviewRequest{ProductID: "1", OverallRating: 2, ReviewerName: "Ana"})
	require.NoError(t, err)

	_, err = s.UpdateReview(ctx, review.ID, models.UpdateReviewRequest{OverallRating: intPtr(0)})
	assert.ErrorIs(t, err, ErrInvalidReview)

	notes := "Changed my mind"
	updated, err := s.UpdateReview(ctx, review.ID, models.UpdateReviewRequest{OverallRating: intPtr(5), Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.OverallRating)
	assert.Equal(t, notes, updated.Notes)

	require.NoError(t, s.DeleteReview(ctx, review.ID))
	assert.ErrorIs(t, s.DeleteReview(ctx, review.ID), ErrReviewNotFound)

	_, err = s.GetProductReviews(ctx, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}
