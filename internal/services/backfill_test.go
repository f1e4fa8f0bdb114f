package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu      sync.Mutex
	to      []string
	reports []BackfillReport
}

func (m *recordingMailer) SendBackfillReport(to string, report BackfillReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, to)
	m.reports = append(m.reports, report)
	return nil
}

func TestBackfillRunSkipsCompleteProducts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	url, source, status := "https://img.test/s10.jpg", models.ImageSourceOfficial, models.VerificationVerified
	_, err := store.UpdateProduct(ctx, "1", models.ProductUpdate{ImageURL: &url, ImageSource: &source, VerificationStatus: &status})
	require.NoError(t, err)

	verifier := &fakeVerifier{result: verified(), imageURL: "https://cdn.test/generated/x.png"}
	mailer := &recordingMailer{}
	s := NewBackfillService(store, verifier, mailer, "ops@example.com", 0)

	report, err := s.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 11, report.Total)
	assert.Equal(t, 10, report.Processed)
	assert.Equal(t, 10, report.ImagesGenerated)
	assert.Equal(t, 10, report.Verified)
	assert.Zero(t, report.Errors)
	assert.False(t, report.Cancelled)
	assert.False(t, s.Running())

	p, err := store.GetProduct(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, models.ImageSourceAIGenerated, p.ImageSource)
	assert.Equal(t, models.VerificationVerified, p.VerificationStatus)

	untouched, err := store.GetProduct(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, url, untouched.ImageURL)

	require.Len(t, mailer.reports, 1)
	assert.Equal(t, []string{"ops@example.com"}, mailer.to)
}

func TestBackfillCountsImageFailures(t *testing.T) {
	verifier := &fakeVerifier{result: verified(), imageFails: true}
	s := NewBackfillService(newTestStore(t), verifier, nil, "", 0)

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, report.Errors)
	assert.Equal(t, 11, report.Verified)
	assert.Equal(t, 11, report.Processed)
	assert.Zero(t, report.ImagesGenerated)
}

func TestBackfillRejectsConcurrentRuns(t *testing.T) {
	s := NewBackfillService(newTestStore(t), &fakeVerifier{result: verified()}, nil, "", 0)
	s.running.Store(true)

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrBackfillRunning)
	_, err = s.Start(context.Background())
	assert.ErrorIs(t, err, ErrBackfillRunning)
}

func TestBackfillStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewBackfillService(newTestStore(t), &fakeVerifier{result: verified(), imageURL: "u"}, nil, "", 0)
	s.onProgress = func(done int) {
		if done == 3 {
			cancel()
		}
	}

	report, err := s.Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Equal(t, 3, report.Processed)
}

func TestBackfillStartRunsInBackground(t *testing.T) {
	mailer := &recordingMailer{}
	s := NewBackfillService(newTestStore(t), &fakeVerifier{result: verified(), imageURL: "u"}, mailer, "ops@example.com", time.Millisecond)

	n, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	require.Eventually(t, func() bool { return !s.Running() }, 5*time.Second, 10*time.Millisecond)
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	require.Len(t, mailer.reports, 1)
	assert.Equal(t, 11, mailer.reports[0].Processed)
}
