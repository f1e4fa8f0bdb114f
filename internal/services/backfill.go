package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/internal/storage"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

var ErrBackfillRunning = errors.New("backfill already running")

type BackfillReport struct {
	Total           int           `json:"total"`
	Processed       int           `json:"processed"`
	ImagesGenerated int           `json:"imagesGenerated"`
	Verified        int           `json:"verified"`
	Errors          int           `json:"errors"`
	Cancelled       bool          `json:"cancelled"`
	Duration        time.Duration `json:"duration"`
}

// BackfillService generates missing images and verifications for products
// that predate the AI gate. Products are handled one at a time.
type BackfillService struct {
	store      storage.CatalogStore
	verifier   ProductVerifier
	mailer     Mailer // nil disables the report
	reportTo   string
	delay      time.Duration
	running    atomic.Bool
	log        *logrus.Entry
	onProgress func(done int)
}

func NewBackfillService(store storage.CatalogStore, verifier ProductVerifier, mailer Mailer, reportTo string, delay time.Duration) *BackfillService {
	return &BackfillService{
		store:    store,
		verifier: verifier,
		mailer:   mailer,
		reportTo: reportTo,
		delay:    delay,
		log:      logger.Component("backfill"),
	}
}

// Running reports whether a run is in progress.
func (s *BackfillService) Running() bool {
	return s.running.Load()
}

// Start launches a run in the background and returns the number of products
// it will look at. ctx bounds the whole run, not just the call.
func (s *BackfillService) Start(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		return 0, ErrBackfillRunning
	}
	products, err := s.store.ListProducts(ctx, models.ProductFilter{})
	if err != nil {
		s.running.Store(false)
		return 0, fmt.Errorf("%w: failed to load catalog: %v", ErrDatabaseQuery, err)
	}

	go func() {
		defer s.running.Store(false)
		defer func() {
			if r := recover(); r != nil {
				s.log.WithField("panic", r).Error("backfill crashed")
			}
		}()
		s.process(ctx, products)
	}()
	return len(products), nil
}

// Run processes the catalog synchronously.
func (s *BackfillService) Run(ctx context.Context) (*BackfillReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBackfillRunning
	}
	defer s.running.Store(false)

	products, err := s.store.ListProducts(ctx, models.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load catalog: %v", ErrDatabaseQuery, err)
	}
	report := s.process(ctx, products)
	return &report, nil
}

func (s *BackfillService) process(ctx context.Context, products []models.Product) BackfillReport {
	started := time.Now()
	report := BackfillReport{Total: len(products)}
	s.log.WithField("products", len(products)).Info("backfill started")

	for i, p := range products {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		if s.processOne(ctx, p, &report) && s.delay > 0 && i < len(products)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(s.delay):
			}
		}
		if s.onProgress != nil {
			s.onProgress(i + 1)
		}
	}

	report.Duration = time.Since(started)
	s.log.WithFields(logrus.Fields{
		"processed":        report.Processed,
		"images_generated": report.ImagesGenerated,
		"verified":         report.Verified,
		"errors":           report.Errors,
		"cancelled":        report.Cancelled,
	}).Info("backfill finished")

	if s.mailer != nil && s.reportTo != "" {
		if err := s.mailer.SendBackfillReport(s.reportTo, report); err != nil {
			s.log.WithError(err).Warn("failed to send backfill report")
		}
	}
	return report
}

// processOne reports whether the product needed any work.
func (s *BackfillService) processOne(ctx context.Context, p models.Product, report *BackfillReport) bool {
	needsImage := p.ImageURL == ""
	needsVerification := p.VerificationStatus == ""
	if !needsImage && !needsVerification {
		return false
	}

	log := s.log.WithFields(logrus.Fields{"product_id": p.ID, "title": p.Title})
	var update models.ProductUpdate

	if needsImage {
		if url, ok := s.verifier.GenerateImage(ctx, p.Title, p.BrandName(), p.Category); ok {
			source := models.ImageSourceAIGenerated
			update.ImageURL = &url
			update.ImageSource = &source
			report.ImagesGenerated++
		} else {
			report.Errors++
		}
	}

	if needsVerification {
		res := s.verifier.VerifyProduct(ctx, p.Title, p.BrandName(), p.Category, p.Description)
		update.VerificationStatus = &res.Status
		update.AIRiskScore = &res.Score
		update.AIReason = &res.Reason
		report.Verified++
	}

	if len(update.Columns()) > 0 {
		if _, err := s.store.UpdateProduct(ctx, p.ID, update); err != nil {
			log.WithError(err).Warn("backfill update failed")
			report.Errors++
			if update.ImageURL != nil {
				s.verifier.DiscardImage(*update.ImageURL)
			}
			return true
		}
	}
	report.Processed++
	log.Debug("backfill processed product")
	return true
}
