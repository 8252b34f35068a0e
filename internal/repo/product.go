package repo

import (
	"context"

	"github.com/DevanshBajpai09/product-management/internal/models"
	"gorm.io/gorm"
)

// ProductRepo is the record store for the products collection. Every
// operation is scoped by the owning user's id; a record owned by someone
// else behaves exactly like a missing one.
type ProductRepo interface {
	Insert(ctx context.Context, prod *models.Product) error
	GetByID(ctx context.Context, id, ownerID uint) (*models.Product, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Product, error)
	Update(ctx context.Context, id, ownerID uint, fields ProductFields) (int64, error)
	Delete(ctx context.Context, id, ownerID uint) (int64, error)
}

// ProductFields is the full replaceable field set of a product. Updates
// always write every field, matching the edit form.
type ProductFields struct {
	Name        string
	Description string
	Category    string
	Price       float64
	Rating      float64
}

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Insert(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

func (r *GormRepo) GetByID(ctx context.Context, id, ownerID uint) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&prod).Error; err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) ListByOwner(ctx context.Context, ownerID uint) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) Update(ctx context.Context, id, ownerID uint, fields ProductFields) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(map[string]any{
			"name":        fields.Name,
			"description": fields.Description,
			"category":    fields.Category,
			"price":       fields.Price,
			"rating":      fields.Rating,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *GormRepo) Delete(ctx context.Context, id, ownerID uint) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Product{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
