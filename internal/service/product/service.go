package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository"
	"github.com/quickbite/storefront-api/internal/service/authz"
	apperrors "github.com/quickbite/storefront-api/pkg/errors"
	"github.com/quickbite/storefront-api/pkg/feed"
	"github.com/quickbite/storefront-api/pkg/logger"
)

type Service struct {
	repo       repository.ProductRepository
	authz      *authz.Service
	changeFeed *feed.Feed
	logger     *logger.Logger
}

func NewService(repo repository.ProductRepository, authzSvc *authz.Service, changeFeed *feed.Feed, logger *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		authz:      authzSvc,
		changeFeed: changeFeed,
		logger:     logger,
	}
}

// Catalog is the customer-facing menu: available products only,
// optionally filtered by category. No session required.
func (s *Service) Catalog(ctx context.Context, category string) ([]*model.Product, error) {
	return s.repo.List(ctx, true, category)
}

// ListAll is the admin product table, availability ignored.
func (s *Service) ListAll(ctx context.Context, session model.Session) ([]*model.Product, error) {
	if err := s.authz.RequireAdmin(ctx, session); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, false, "")
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("product", err)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *Service) Create(ctx context.Context, session model.Session, product *model.Product) error {
	if err := s.authz.RequireAdmin(ctx, session); err != nil {
		return err
	}
	if err := s.validate(product); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	s.publishChange(ctx, feed.ActionInsert, product)
	return nil
}

func (s *Service) Update(ctx context.Context, session model.Session, product *model.Product) error {
	if err := s.authz.RequireAdmin(ctx, session); err != nil {
		return err
	}
	if err := s.validate(product); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("product", err)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	s.publishChange(ctx, feed.ActionUpdate, product)
	return nil
}

func (s *Service) Delete(ctx context.Context, session model.Session, id uuid.UUID) error {
	if err := s.authz.RequireAdmin(ctx, session); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("product", err)
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.publishChange(ctx, feed.ActionDelete, &model.Product{ID: id})
	return nil
}

// ToggleAvailability flips catalog visibility without touching the rest
// of the product.
func (s *Service) ToggleAvailability(ctx context.Context, session model.Session, id uuid.UUID) (*model.Product, error) {
	if err := s.authz.RequireAdmin(ctx, session); err != nil {
		return nil, err
	}
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetAvailability(ctx, id, !product.IsAvailable); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("product", err)
		}
		return nil, fmt.Errorf("failed to toggle availability: %w", err)
	}
	product.IsAvailable = !product.IsAvailable
	s.publishChange(ctx, feed.ActionUpdate, product)
	return product, nil
}

func (s *Service) validate(product *model.Product) error {
	if product.Name == "" {
		return apperrors.Validation("product name is required")
	}
	if product.Price <= 0 {
		return apperrors.Validation("product price must be positive")
	}
	if product.Category == "" {
		product.Category = model.CategoryOther
	}
	return nil
}

// publishChange pushes the catalog update to open sessions; failures
// are logged and dropped.
func (s *Service) publishChange(ctx context.Context, action string, product *model.Product) {
	record, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := s.changeFeed.Publish(ctx, feed.Filter{Table: "products"}, feed.Change{
		Table:  "products",
		Action: action,
		Record: record,
	}); err != nil {
		s.logger.Error(err, "failed to publish product change", "product_id", product.ID.String())
	}
}
