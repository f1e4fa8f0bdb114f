package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
)

const (
	productsFile = "products.json"
	reviewsFile  = "reviews.json"
	profilesFile = "profiles.json"
)

// JSONStore keeps the catalog in flat JSON files under a data directory.
// All read-modify-write cycles hold mu and files are replaced atomically.
type JSONStore struct {
	dir string

	mu       sync.Mutex
	products map[string]models.Product
	reviews  map[string][]models.Review // by product id, newest first
	profiles map[string]models.UserProfile
}

// OpenJSONStore loads (or seeds) the data files in dir.
func OpenJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &JSONStore{
		dir:      dir,
		products: map[string]models.Product{},
		reviews:  map[string][]models.Review{},
		profiles: map[string]models.UserProfile{},
	}

	seeded, err := s.load(productsFile, &s.products)
	if err != nil {
		return nil, err
	}
	if !seeded {
		s.products = seedProducts()
		if err := s.write(productsFile, s.products); err != nil {
			return nil, err
		}
	}
	if _, err := s.load(reviewsFile, &s.reviews); err != nil {
		return nil, err
	}
	if _, err := s.load(profilesFile, &s.profiles); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) load(name string, into interface{}) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, into); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

// write replaces name with v through a temp file and rename.
func (s *JSONStore) write(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (s *JSONStore) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *JSONStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *JSONStore) CreateProduct(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return fmt.Errorf("%w: product %s", ErrConflict, product.ID)
	}
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	s.products[product.ID] = *product
	if err := s.write(productsFile, s.products); err != nil {
		delete(s.products, product.ID)
		return err
	}
	return nil
}

func (s *JSONStore) UpdateProduct(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := prev
	update.Apply(&next)
	next.UpdatedAt = time.Now()
	s.products[id] = next
	if err := s.write(productsFile, s.products); err != nil {
		s.products[id] = prev
		return nil, err
	}
	return &next, nil
}

func (s *JSONStore) Categories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{}
	for _, p := range s.products {
		if p.Category != "" {
			seen[p.Category] = true
		}
	}
	return sortedKeys(seen), nil
}

func (s *JSONStore) ListReviews(ctx context.Context, productID string) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.reviews[productID]
	out := make([]models.Review, len(list))
	copy(out, list)
	return out, nil
}

func (s *JSONStore) AllReviews(ctx context.Context) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Review
	for _, list := range s.reviews {
		out = append(out, list...)
	}
	return out, nil
}

func (s *JSONStore) GetReview(ctx context.Context, id string) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, idx, r := s.findReview(id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *JSONStore) AddReview(ctx context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = now

	prev := s.reviews[review.ProductID]
	s.reviews[review.ProductID] = append([]models.Review{*review}, prev...)
	if err := s.write(reviewsFile, s.reviews); err != nil {
		s.reviews[review.ProductID] = prev
		return err
	}
	return nil
}

func (s *JSONStore) UpdateReview(ctx context.Context, id string, req models.UpdateReviewRequest) (*models.Review, error) {
	return s.mutateReview(id, func(r *models.Review) {
		ApplyReviewUpdate(r, req)
		r.UpdatedAt = time.Now()
	})
}

func (s *JSONStore) DeleteReview(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	productID, idx, _ := s.findReview(id)
	if idx < 0 {
		return ErrNotFound
	}
	prev := s.reviews[productID]
	next := make([]models.Review, 0, len(prev)-1)
	next = append(next, prev[:idx]...)
	next = append(next, prev[idx+1:]...)
	s.reviews[productID] = next
	if err := s.write(reviewsFile, s.reviews); err != nil {
		s.reviews[productID] = prev
		return err
	}
	return nil
}

func (s *JSONStore) ToggleHelpful(ctx context.Context, reviewID, voterID string) (*models.Review, bool, error) {
	var added bool
	r, err := s.mutateReview(reviewID, func(r *models.Review) {
		added = r.ToggleHelpful(voterID)
	})
	if err != nil {
		return nil, false, err
	}
	return r, added, nil
}

func (s *JSONStore) mutateReview(id string, fn func(*models.Review)) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	productID, idx, r := s.findReview(id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	r.HelpfulVoters = append(r.HelpfulVoters[:0:0], r.HelpfulVoters...)
	fn(&r)

	list := s.reviews[productID]
	prev := list[idx]
	list[idx] = r
	if err := s.write(reviewsFile, s.reviews); err != nil {
		list[idx] = prev
		return nil, err
	}
	return &r, nil
}

func (s *JSONStore) findReview(id string) (string, int, models.Review) {
	for productID, list := range s.reviews {
		for i, r := range list {
			if r.ID == id {
				return productID, i, r
			}
		}
	}
	return "", -1, models.Review{}
}

func (s *JSONStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	p.EnsureMaps()
	return &p, nil
}

func (s *JSONStore) UpdateProfile(ctx context.Context, userID string, fn func(*models.UserProfile) error) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.profiles[userID]
	var profile *models.UserProfile
	if existed {
		profile = cloneProfile(prev)
	} else {
		profile = models.NewUserProfile(userID)
	}
	if err := fn(profile); err != nil {
		return nil, err
	}
	profile.UpdatedAt = time.Now()

	s.profiles[userID] = *profile
	if err := s.write(profilesFile, s.profiles); err != nil {
		if existed {
			s.profiles[userID] = prev
		} else {
			delete(s.profiles, userID)
		}
		return nil, err
	}
	return profile, nil
}

func cloneProfile(p models.UserProfile) *models.UserProfile {
	out := p
	out.ReviewCountByCategory = make(map[string]int, len(p.ReviewCountByCategory))
	for k, v := range p.ReviewCountByCategory {
		out.ReviewCountByCategory[k] = v
	}
	out.Badges.CategoryExpert = make(map[string]bool, len(p.Badges.CategoryExpert))
	for k, v := range p.Badges.CategoryExpert {
		out.Badges.CategoryExpert[k] = v
	}
	return &out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func seedProducts() map[string]models.Product {
	type seed struct {
		id, title, brand, category string
		min, max                   int64
	}
	seeds := []seed{
		{"1", "Samsung Galaxy S10", "Samsung", "Smartphones", 59999, 79999},
		{"2", "Dell XPS 13", "Dell", "Laptops", 89999, 119999},
		{"3", "iPhone 15 Pro", "Apple", "Phones", 99999, 119999},
		{"4", "Bose QuietComfort 45 Headphones", "Bose", "Audio", 34999, 39999},
		{"5", "Samsung Galaxy Tab S9", "Samsung", "Tablets", 69999, 89999},
		{"6", "Samsung 65-inch QLED TV", "Samsung", "TVs", 149999, 199999},
		{"7", "OnePlus 12", "OnePlus", "Smartphones", 64999, 84999},
		{"8", "MacBook Pro 14-inch M3", "Apple", "Laptops", 169999, 219999},
		{"9", "LG 38-inch UltraWide Gaming Monitor", "LG", "Monitors", 79999, 99999},
		{"10", "DJI Mini 4 Pro Drone", "DJI", "Drones", 39999, 49999},
		{"user-1", "iPhone 16 Pro", "Apple", "Phones", 99999, 119999},
	}

	now := time.Now()
	out := make(map[string]models.Product, len(seeds))
	for _, sd := range seeds {
		brand, min, max := sd.brand, sd.min, sd.max
		out[sd.id] = models.Product{
			ID:            sd.id,
			Title:         sd.title,
			Brand:         &brand,
			Category:      sd.category,
			PriceMinCents: &min,
			PriceMaxCents: &max,
			CreatedBy:     "seed",
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	return out
}
