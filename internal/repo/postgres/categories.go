package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/guruhub/internal/domain/category"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoriesRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewCategoriesRepo(pool *pgxpool.Pool, obs DBObserver) *CategoriesRepo {
	return &CategoriesRepo{pool: pool, obs: observerOrDefault(obs)}
}

func (r *CategoriesRepo) Create(ctx context.Context, req category.CreateCategoryRequest) (category.Category, error) {
	c := category.NewFromCreateRequest(req)

	err := r.obs.ObserveDB("categories.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO categories (id, name, description, created_at, updated_at) VALUES ($1,$2,$3,$4,$5)`,
			c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return category.Category{}, category.ErrNameTaken
		}
		return category.Category{}, err
	}

	return c, nil
}

func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, error) {
	out := make([]category.Category, 0)

	err := r.obs.ObserveDB("categories.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c category.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
				return err
			}
			out = append(out, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *CategoriesRepo) GetByID(ctx context.Context, id string) (category.Category, error) {
	var c category.Category

	err := r.obs.ObserveDB("categories.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, description, created_at, updated_at FROM categories WHERE id = $1`, id,
		).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, err
	}

	return c, nil
}

// Update keeps the stored value for any empty field in req.
func (r *CategoriesRepo) Update(ctx context.Context, id string, req category.UpdateCategoryRequest) (category.Category, error) {
	var c category.Category

	err := r.obs.ObserveDB("categories.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE categories
				SET name = COALESCE(NULLIF($2, ''), name),
					description = COALESCE(NULLIF($3, ''), description),
					updated_at = NOW()
			WHERE id = $1
			RETURNING id, name, description, created_at, updated_at`,
			id, strings.TrimSpace(req.Name), strings.TrimSpace(req.Description),
		).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	})

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return category.Category{}, category.ErrNotFound
		case isUniqueViolation(err):
			return category.Category{}, category.ErrNameTaken
		}
		return category.Category{}, err
	}

	return c, nil
}

func (r *CategoriesRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.obs.ObserveDB("categories.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		if isForeignKeyViolation(err) {
			return category.ErrInUse
		}
		return err
	}

	if affected == 0 {
		return category.ErrNotFound
	}

	return nil
}
