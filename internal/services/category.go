package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/domain"
	"eventhub/internal/slug"
)

type categoryService struct {
	repo           domain.CategoryRepository
	audit          domain.AuditService
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewCategoryService(repo domain.CategoryRepository, audit domain.AuditService, logger *slog.Logger, timeout time.Duration) domain.CategoryService {
	return &categoryService{repo: repo, audit: audit, logger: logger.With("component", "categories"), contextTimeout: timeout}
}

func (s *categoryService) Create(ctx context.Context, caller domain.Principal, c *domain.Category) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Invalid("name is required")
	}
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	if c.Slug == "" {
		c.Slug = slug.Make(c.Name)
	}
	if !slug.Valid(c.Slug) {
		return domain.Invalid("invalid slug")
	}
	c.Description = strings.TrimSpace(c.Description)

	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	if err := s.repo.Create(ctx, c); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	s.audit.Record(ctx, &caller.UserID, domain.AuditCategoryChange, "category", c.ID, map[string]any{"op": "create", "slug": c.Slug})
	return nil
}

// Get looks a category up by id when idOrSlug parses as a UUID, by slug otherwise.
func (s *categoryService) Get(ctx context.Context, idOrSlug string) (*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := uuid.Parse(idOrSlug); err == nil {
		return s.repo.GetByID(ctx, idOrSlug)
	}
	return s.repo.GetBySlug(ctx, strings.ToLower(idOrSlug))
}

func (s *categoryService) List(ctx context.Context, search string, params domain.PaginationParams) ([]*domain.Category, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.repo.List(ctx, strings.TrimSpace(search), params)
}

func (s *categoryService) Update(ctx context.Context, caller domain.Principal, id string, upd domain.CategoryUpdate) (*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if upd.Name != nil {
		n := strings.TrimSpace(*upd.Name)
		if n == "" {
			return nil, domain.Invalid("name cannot be empty")
		}
		upd.Name = &n
	}
	if upd.Slug != nil {
		sl := strings.ToLower(strings.TrimSpace(*upd.Slug))
		if !slug.Valid(sl) {
			return nil, domain.Invalid("invalid slug")
		}
		upd.Slug = &sl
	}
	c, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &caller.UserID, domain.AuditCategoryChange, "category", id, map[string]any{"op": "update"})
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, caller domain.Principal, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, &caller.UserID, domain.AuditCategoryChange, "category", id, map[string]any{"op": "delete"})
	return nil
}
