package domain

import (
	"context"
	"time"
)

// Category groups events by topic.
// swagger:model Category
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryUpdate holds the optional fields of a partial category update.
type CategoryUpdate struct {
	Name        *string
	Slug        *string
	Description *string
}

// CategoryRepository defines storage for categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	List(ctx context.Context, search string, params PaginationParams) ([]*Category, int, error)
	Update(ctx context.Context, id string, upd CategoryUpdate) (*Category, error)
	Delete(ctx context.Context, id string) error
}

// CategoryService defines category management. Writes require the admin role.
type CategoryService interface {
	Create(ctx context.Context, caller Principal, c *Category) error
	Get(ctx context.Context, idOrSlug string) (*Category, error)
	List(ctx context.Context, search string, params PaginationParams) ([]*Category, int, error)
	Update(ctx context.Context, caller Principal, id string, upd CategoryUpdate) (*Category, error)
	Delete(ctx context.Context, caller Principal, id string) error
}
