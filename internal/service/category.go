package service

import (
	"context"
	"sort"
	"time"

	"github.com/Vaibhav5418/leadgen-backend/internal/cache"

	"go.mongodb.org/mongo-driver/bson"
)

type categoryStore interface {
	DistinctValues(ctx context.Context, field string, filter bson.M) ([]string, error)
}

// CategoryService lists the distinct category labels in the databank. The
// label set changes only on imports, so reads go through a short TTL cache.
type CategoryService struct {
	contacts categoryStore
	cached   *cache.TTL[[]string]
}

func NewCategoryService(contacts categoryStore, ttl time.Duration) *CategoryService {
	return &CategoryService{
		contacts: contacts,
		cached:   cache.NewTTL[[]string](ttl),
	}
}

// ListCategories returns the sorted distinct non-empty category values.
func (s *CategoryService) ListCategories(ctx context.Context) ([]string, error) {
	return s.cached.Get(func() ([]string, error) {
		values, err := s.contacts.DistinctValues(ctx, "category", bson.M{
			"category": bson.M{"$exists": true, "$nin": bson.A{nil, ""}},
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(values)
		return values, nil
	})
}

// Invalidate drops the cached label set; called after bulk imports.
func (s *CategoryService) Invalidate() {
	s.cached.Invalidate()
}
