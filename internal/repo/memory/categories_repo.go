package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/geocoder89/guruhub/internal/domain/category"
)

type CategoriesRepo struct {
	mu    sync.RWMutex
	items map[string]category.Category
}

func NewCategoriesRepo() *CategoriesRepo {
	return &CategoriesRepo{
		items: make(map[string]category.Category),
	}
}

func (r *CategoriesRepo) Create(_ context.Context, req category.CreateCategoryRequest) (category.Category, error) {
	c := category.NewFromCreateRequest(req)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTakenLocked(c.Name, "") {
		return category.Category{}, category.ErrNameTaken
	}

	r.items[c.ID] = c

	return c, nil
}

func (r *CategoriesRepo) List(_ context.Context) ([]category.Category, error) {
	r.mu.RLock()
	out := make([]category.Category, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out, nil
}

func (r *CategoriesRepo) GetByID(_ context.Context, id string) (category.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}

	return c, nil
}

func (r *CategoriesRepo) Update(_ context.Context, id string, req category.UpdateCategoryRequest) (category.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}

	updated := c.Apply(req)

	if updated.Name != c.Name && r.nameTakenLocked(updated.Name, id) {
		return category.Category{}, category.ErrNameTaken
	}

	r.items[id] = updated

	return updated, nil
}

func (r *CategoriesRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return category.ErrNotFound
	}

	delete(r.items, id)

	return nil
}

func (r *CategoriesRepo) nameTakenLocked(name, exceptID string) bool {
	for id, c := range r.items {
		if id != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
