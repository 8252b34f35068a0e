package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DevanshBajpai09/product-management/internal/blob"
	"github.com/DevanshBajpai09/product-management/internal/identity"
	"github.com/DevanshBajpai09/product-management/internal/logging"
	"github.com/DevanshBajpai09/product-management/internal/models"
	"github.com/DevanshBajpai09/product-management/internal/mykafka"
	"github.com/DevanshBajpai09/product-management/internal/repo"
	"github.com/DevanshBajpai09/product-management/internal/service/search"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("product not found")
	ErrUploadFailed    = errors.New("image upload failed")
	ErrValidation      = errors.New("invalid product")
)

const productEventsTopic = "product_events"

// ProductService composes identity, record and blob operations into
// owner-safe CRUD for products. Producer and Index are optional; when set,
// mutations publish events and mirror the index best effort.
type ProductService struct {
	Repo     repo.ProductRepo
	Blobs    blob.Store
	Identity identity.Provider
	Producer *mykafka.Producer
	Index    *search.Indexer
}

type ProductInput struct {
	Name        string
	Description string
	Category    string
	Price       float64
	Rating      float64
}

// ImageUpload is an image supplied alongside a create. Filename only
// contributes its extension to the stored path.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

func validate(in ProductInput) error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if in.Rating != 0 && (in.Rating < 1 || in.Rating > 5) {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	return nil
}

// uploadPath is unique per upload: owner id, upload time and a random
// suffix, keeping the original extension.
func uploadPath(ownerID uint, filename string, now time.Time) string {
	return fmt.Sprintf("products/%d/%d_%s%s",
		ownerID, now.UnixMilli(), uuid.NewString()[:8], path.Ext(filename))
}

func (s *ProductService) Create(ctx context.Context, in ProductInput, image *ImageUpload) (*models.Product, error) {
	userID, err := s.Identity.CurrentUser(ctx)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	if err := validate(in); err != nil {
		return nil, err
	}

	imagePath := ""
	if image != nil {
		p := uploadPath(userID, image.Filename, time.Now())
		if err := s.Blobs.Upload(ctx, p, image.Content); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		imagePath = p
	}

	prod := &models.Product{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Rating:      in.Rating,
		ImagePath:   imagePath,
	}

	if err := s.Repo.Insert(ctx, prod); err != nil {
		// The image made it to the blob store but the record did not;
		// remove the blob so no orphan is left behind.
		if imagePath != "" {
			if rmErr := s.Blobs.Remove(ctx, imagePath); rmErr != nil {
				logging.FromContext(ctx).Warn("orphaned blob cleanup failed", "path", imagePath, "error", rmErr)
			}
		}
		return nil, fmt.Errorf("insert product: %w", err)
	}

	s.publish(ctx, map[string]interface{}{
		"type":      "product_created",
		"productID": prod.ID,
		"userID":    userID,
		"name":      prod.Name,
	})
	s.index(ctx, *prod)

	s.resolveImageURL(prod)
	return prod, nil
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	userID, err := s.Identity.CurrentUser(ctx)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	prod, err := s.Repo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	s.resolveImageURL(prod)
	return prod, nil
}

// List returns every product of the current owner, newest first.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	userID, err := s.Identity.CurrentUser(ctx)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	items, err := s.Repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	for i := range items {
		s.resolveImageURL(&items[i])
	}
	return items, nil
}

func (s *ProductService) Update(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	userID, err := s.Identity.CurrentUser(ctx)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	if err := validate(in); err != nil {
		return nil, err
	}

	rows, err := s.Repo.Update(ctx, id, userID, repo.ProductFields{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Rating:      in.Rating,
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	prod, err := s.Repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("reload product: %w", err)
	}

	s.publish(ctx, map[string]interface{}{
		"type":      "product_updated",
		"productID": prod.ID,
		"userID":    userID,
		"name":      prod.Name,
	})
	s.index(ctx, *prod)

	s.resolveImageURL(prod)
	return prod, nil
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	userID, err := s.Identity.CurrentUser(ctx)
	if err != nil {
		return ErrUnauthenticated
	}

	rows, err := s.Repo.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.publish(ctx, map[string]interface{}{
		"type":      "product_deleted",
		"productID": id,
		"userID":    userID,
	})
	if err := s.Index.RemoveProduct(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("search deindex failed", "productID", id, "error", err)
	}

	return nil
}

// resolveImageURL fills the derived public URL. Resolution cannot abort a
// read; a product without a resolvable image is returned with an empty URL.
func (s *ProductService) resolveImageURL(prod *models.Product) {
	if prod.ImagePath == "" || s.Blobs == nil {
		return
	}
	prod.ImageURL = s.Blobs.PublicURL(prod.ImagePath)
}

func (s *ProductService) publish(ctx context.Context, event map[string]interface{}) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, productEventsTopic, fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(ctx).Warn("kafka publish failed", "type", event["type"], "error", err)
	}
}

func (s *ProductService) index(ctx context.Context, prod models.Product) {
	if err := s.Index.IndexProduct(ctx, prod); err != nil {
		logging.FromContext(ctx).Warn("search index failed", "productID", prod.ID, "error", err)
	}
}
