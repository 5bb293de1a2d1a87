// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Product
// model.
//
// Products are never hard-deleted: SoftDeleteProduct flips the deleted
// flag so that order items referencing the product keep resolving for
// historic rendering. Listings distinguish the storefront view
// (purchasable rows only) from the admin view (everything).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/avalle/go-store-backend/internal/domain"
)

// CreateProduct inserts a new catalog row.
func CreateProduct(ctx context.Context, db *gorm.DB, p *domain.Product) (*domain.Product, error) {
	p.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetProduct fetches a product by id, including soft-deleted rows, or
// ErrNotFound. Historic order rendering depends on deleted rows staying
// resolvable here.
func GetProduct(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActiveProducts returns the storefront catalog: products that are
// not soft-deleted and carry a price, ordered by id.
func ListActiveProducts(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).
		Where("deleted = ? AND price IS NOT NULL", false).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// ListAllProducts returns every product including drafts and
// soft-deleted rows (the admin catalog view).
func ListAllProducts(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// UpdateProduct overwrites name, description, and price of an existing
// product. Returns ErrNotFound when the row is missing.
func UpdateProduct(ctx context.Context, db *gorm.DB, id int64, name, description string, price *int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":        name,
			"description": description,
			"price":       price,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SoftDeleteProduct marks a product as deleted without removing the
// row. Already-deleted products are a no-op. Returns ErrNotFound when
// the row is missing.
func SoftDeleteProduct(ctx context.Context, db *gorm.DB, id int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Update("deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetProductImage stores the binary image payload. No format validation
// happens here; the payload is interpreted as an image at send time.
func SetProductImage(ctx context.Context, db *gorm.DB, id int64, image []byte) error {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Update("image", image)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
