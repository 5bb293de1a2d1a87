// Package services – CatalogService
//
// This file implements the CatalogService, which manages the product
// catalog on behalf of admins with edit rights. Products are
// soft-deleted only, so historic order lines keep resolving. Image
// attachment goes through an injected fetcher, keeping the catalog core
// free of network I/O and independently testable.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/avalle/go-store-backend/internal/domain"
	"github.com/avalle/go-store-backend/internal/repo"
)

// ImageFetcher retrieves the binary payload behind a platform file
// handle. The Telegram adapter provides the production implementation;
// tests substitute their own.
type ImageFetcher interface {
	// FetchFile downloads the file identified by fileID and returns
	// its raw bytes.
	FetchFile(ctx context.Context, fileID string) ([]byte, error)
}

// ProductFields carries the editable attributes of a product.
type ProductFields struct {
	Name        string
	Description string
	// Price in minor units; nil marks the product not purchasable.
	Price *int64
}

// CatalogService provides product lifecycle operations.
type CatalogService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Fetcher resolves platform file handles to image bytes.
	Fetcher ImageFetcher
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB, fetcher ImageFetcher) *CatalogService {
	return &CatalogService{DB: db, Fetcher: fetcher}
}

// Create inserts a new product.
func (s *CatalogService) Create(ctx context.Context, f ProductFields) (*domain.Product, error) {
	p := &domain.Product{
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
	}
	created, err := repo.CreateProduct(ctx, s.DB, p)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("product_id", created.ID).Str("name", created.Name).Msg("product created")
	return created, nil
}

// Update overwrites the editable fields of an existing product.
func (s *CatalogService) Update(ctx context.Context, id int64, f ProductFields) error {
	err := repo.UpdateProduct(ctx, s.DB, id, f.Name, f.Description, f.Price)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

// SoftDelete removes a product from the storefront without deleting the
// row, preserving historic order references.
func (s *CatalogService) SoftDelete(ctx context.Context, id int64) error {
	err := repo.SoftDeleteProduct(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrProductNotFound
	}
	if err == nil {
		log.Info().Int64("product_id", id).Msg("product soft-deleted")
	}
	return err
}

// Get resolves a product by id, including soft-deleted rows.
func (s *CatalogService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := repo.GetProduct(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// ListActive returns the purchasable storefront catalog.
func (s *CatalogService) ListActive(ctx context.Context) ([]domain.Product, error) {
	return repo.ListActiveProducts(ctx, s.DB)
}

// ListAll returns every product including drafts and soft-deleted rows.
func (s *CatalogService) ListAll(ctx context.Context) ([]domain.Product, error) {
	return repo.ListAllProducts(ctx, s.DB)
}

// AttachImage downloads the image behind fileID through the injected
// fetcher and stores it on the product. A fetch failure is an external
// error: it is wrapped and surfaced, and nothing is written. No image
// format validation happens here; the payload is interpreted at send
// time.
func (s *CatalogService) AttachImage(ctx context.Context, productID int64, fileID string) error {
	if _, err := repo.GetProduct(ctx, s.DB, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	payload, err := s.Fetcher.FetchFile(ctx, fileID)
	if err != nil {
		return fmt.Errorf("fetch product image: %w", err)
	}
	if err := repo.SetProductImage(ctx, s.DB, productID, payload); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	log.Info().Int64("product_id", productID).Int("bytes", len(payload)).Msg("product image attached")
	return nil
}
