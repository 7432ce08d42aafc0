package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"eventhub/internal/domain"
)

const categoryColumns = `id, name, slug, description, created_at, updated_at`

type categoryRepository struct {
	DB *sql.DB
}

// NewCategoryRepository returns a domain.CategoryRepository implemented with Postgres.
func NewCategoryRepository(db *sql.DB) domain.CategoryRepository {
	return &categoryRepository{DB: db}
}

func scanCategory(s scanner) (*domain.Category, error) {
	c := &domain.Category{}
	if err := s.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	query := `
		INSERT INTO categories (name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, c.Name, c.Slug, c.Description, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	return mapErr(err, domain.ErrConflict)
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	c, err := scanCategory(r.DB.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return c, nil
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	c, err := scanCategory(r.DB.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return c, nil
}

func (r *categoryRepository) List(ctx context.Context, search string, params domain.PaginationParams) ([]*domain.Category, int, error) {
	var args queryArgs
	var where whereClause
	if search != "" {
		where = append(where, "name ILIKE "+args.bind(likePattern(search)))
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories`+where.String()+` ORDER BY name`+pageClause(&args, params), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	return categories, total, nil
}

func (r *categoryRepository) Update(ctx context.Context, id string, upd domain.CategoryUpdate) (*domain.Category, error) {
	var args queryArgs
	setClauses := []string{"updated_at = NOW()"}
	if upd.Name != nil {
		setClauses = append(setClauses, "name = "+args.bind(*upd.Name))
	}
	if upd.Slug != nil {
		setClauses = append(setClauses, "slug = "+args.bind(*upd.Slug))
	}
	if upd.Description != nil {
		setClauses = append(setClauses, "description = "+args.bind(*upd.Description))
	}
	query := fmt.Sprintf(`UPDATE categories SET %s WHERE id = %s RETURNING %s`, strings.Join(setClauses, ", "), args.bind(id), categoryColumns)
	c, err := scanCategory(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapErr(err, domain.ErrConflict)
	}
	return c, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	return execAffected(r.DB.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id))
}
