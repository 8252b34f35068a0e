package catalog

import (
	"context"

	"github.com/DevanshBajpai09/product-management/internal/identity"
	"github.com/DevanshBajpai09/product-management/internal/logging"
	"github.com/DevanshBajpai09/product-management/internal/models"
	"github.com/DevanshBajpai09/product-management/internal/service"
)

const (
	// CategoryAll disables category filtering.
	CategoryAll = "all"

	defaultPriceMin = 0
	defaultPriceMax = 10000
)

// View holds the catalog screen's list state: the fetched products (set
// only by Fetch), a derived filtered subset, and the filter inputs. It is
// meant for single-goroutine, event-driven use; a stale fetch simply loses
// to the last one that resolves.
type View struct {
	svc      *service.ProductService
	identity identity.Provider

	all      []models.Product
	filtered []models.Product

	// captured at fetch time, deliberately stale between fetches
	categories []string

	categoryFilter string
	priceMin       float64
	priceMax       float64
	minRating      float64

	needsRefresh bool
	loading      bool
}

func NewView(svc *service.ProductService, id identity.Provider) *View {
	return &View{
		svc:            svc,
		identity:       id,
		categoryFilter: CategoryAll,
		priceMin:       defaultPriceMin,
		priceMax:       defaultPriceMax,
	}
}

// Fetch loads the current owner's products, newest first, and resets the
// derived list before reapplying the active filters. On error the view
// keeps its prior state.
func (v *View) Fetch(ctx context.Context) error {
	v.loading = true
	defer func() { v.loading = false }()

	items, err := v.svc.List(ctx)
	if err != nil {
		return err
	}

	v.all = items
	v.filtered = items
	v.categories = collectCategories(items)
	v.recompute()
	return nil
}

// Refresh flips the refresh token and re-fetches.
func (v *View) Refresh(ctx context.Context) error {
	v.needsRefresh = !v.needsRefresh
	return v.Fetch(ctx)
}

func (v *View) SetCategoryFilter(category string) {
	v.categoryFilter = category
	v.recompute()
}

func (v *View) SetPriceRange(min, max float64) {
	v.priceMin = min
	v.priceMax = max
	v.recompute()
}

func (v *View) SetMinRating(rating float64) {
	v.minRating = rating
	v.recompute()
}

// Delete removes a product through the service and then forces a re-fetch
// whether or not the delete succeeded, mirroring the screen's behavior.
// Without a session nothing happens at all.
func (v *View) Delete(ctx context.Context, id uint) error {
	if _, err := v.identity.CurrentUser(ctx); err != nil {
		return service.ErrUnauthenticated
	}

	delErr := v.svc.Delete(ctx, id)
	if err := v.Refresh(ctx); err != nil {
		logging.FromContext(ctx).Warn("refresh after delete failed", "error", err)
	}
	return delErr
}

// Products is the filtered, viewable subset, order preserved from the
// last fetch.
func (v *View) Products() []models.Product {
	return v.filtered
}

func (v *View) All() []models.Product {
	return v.all
}

// Categories returns the selectable options as of the last fetch: "all"
// plus every distinct category then present. It is not recomputed on
// filter changes, so an option filtered out by price or rating stays
// selectable until the next fetch.
func (v *View) Categories() []string {
	if v.categories == nil {
		return []string{CategoryAll}
	}
	return v.categories
}

func (v *View) Loading() bool {
	return v.loading
}

// recompute derives the filtered list from the fetched one. It never
// fetches, and it is a no-op while no products are loaded.
func (v *View) recompute() {
	if len(v.all) == 0 {
		return
	}

	results := make([]models.Product, 0, len(v.all))
	for _, p := range v.all {
		if v.categoryFilter != CategoryAll && p.Category != v.categoryFilter {
			continue
		}
		if p.Price < v.priceMin || p.Price > v.priceMax {
			continue
		}
		if v.minRating > 0 && p.Rating < v.minRating {
			continue
		}
		results = append(results, p)
	}
	v.filtered = results
}

func collectCategories(items []models.Product) []string {
	categories := []string{CategoryAll}
	seen := map[string]bool{}
	for _, p := range items {
		if seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		categories = append(categories, p.Category)
	}
	return categories
}
