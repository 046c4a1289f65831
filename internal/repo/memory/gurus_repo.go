package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/guruhub/internal/domain/guru"
)

type GurusRepo struct {
	mu         sync.RWMutex
	items      map[string]guru.Guru
	categories *CategoriesRepo
}

// NewGurusRepo resolves era names through the given categories repo.
func NewGurusRepo(categories *CategoriesRepo) *GurusRepo {
	return &GurusRepo{
		items:      make(map[string]guru.Guru),
		categories: categories,
	}
}

func (r *GurusRepo) Create(ctx context.Context, req guru.CreateGuruRequest) (guru.Guru, error) {
	g := guru.NewFromCreateRequest(req)

	if _, err := r.categories.GetByID(ctx, g.Era.ID); err != nil {
		return guru.Guru{}, guru.ErrUnknownEra
	}

	r.mu.Lock()
	r.items[g.ID] = g
	r.mu.Unlock()

	return r.withEra(ctx, g), nil
}

func (r *GurusRepo) List(ctx context.Context, filter guru.ListGurusFilter) ([]guru.Guru, error) {
	r.mu.RLock()
	out := make([]guru.Guru, 0, len(r.items))
	for _, g := range r.items {
		if filter.EraID != nil && g.Era.ID != *filter.EraID {
			continue
		}
		out = append(out, g.Summary())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName == out[j].FullName {
			return out[i].ID < out[j].ID
		}
		return out[i].FullName < out[j].FullName
	})

	for i := range out {
		out[i] = r.withEra(ctx, out[i])
	}

	return out, nil
}

func (r *GurusRepo) GetByID(ctx context.Context, id string) (guru.Guru, error) {
	r.mu.RLock()
	g, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return guru.Guru{}, guru.ErrNotFound
	}

	return r.withEra(ctx, g), nil
}

func (r *GurusRepo) Update(ctx context.Context, id string, req guru.UpdateGuruRequest) (guru.Guru, error) {
	if req.Era != nil {
		if _, err := r.categories.GetByID(ctx, *req.Era); err != nil {
			return guru.Guru{}, guru.ErrUnknownEra
		}
	}

	r.mu.Lock()
	g, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return guru.Guru{}, guru.ErrNotFound
	}

	updated := g.Apply(req)
	r.items[id] = updated
	r.mu.Unlock()

	return r.withEra(ctx, updated), nil
}

func (r *GurusRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return guru.ErrNotFound
	}

	delete(r.items, id)

	return nil
}

func (r *GurusRepo) CountByEra(_ context.Context, eraID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, g := range r.items {
		if g.Era.ID == eraID {
			n++
		}
	}

	return n, nil
}

func (r *GurusRepo) withEra(ctx context.Context, g guru.Guru) guru.Guru {
	if c, err := r.categories.GetByID(ctx, g.Era.ID); err == nil {
		g.Era.Name = c.Name
	}
	return g
}
