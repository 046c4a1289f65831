package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/guruhub/internal/cache"
	"github.com/geocoder89/guruhub/internal/domain/category"
	"github.com/geocoder89/guruhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type CategoriesRepo interface {
	Create(ctx context.Context, req category.CreateCategoryRequest) (category.Category, error)
	List(ctx context.Context) ([]category.Category, error)
	GetByID(ctx context.Context, id string) (category.Category, error)
	Update(ctx context.Context, id string, req category.UpdateCategoryRequest) (category.Category, error)
	Delete(ctx context.Context, id string) error
}

// EraUsage tells whether gurus still point at a category.
type EraUsage interface {
	CountByEra(ctx context.Context, eraID string) (int, error)
}

type CategoriesHandler struct {
	repo  CategoriesRepo
	usage EraUsage
	cache cache.Store

	timeout time.Duration
}

func NewCategoriesHandler(repo CategoriesRepo, usage EraUsage, store cache.Store) *CategoriesHandler {
	return &CategoriesHandler{repo: repo, usage: usage, cache: store, timeout: DefaultStoreTimeout}
}

func (h *CategoriesHandler) WithTimeout(d time.Duration) *CategoriesHandler {
	h.timeout = d
	return h
}

func (h *CategoriesHandler) ListCategories(ctx *gin.Context) {
	key := utils.BuildCategoriesListCacheKey()

	if body, ok := h.cache.Get(ctx.Request.Context(), key); ok {
		RespondCachedJSON(ctx, http.StatusOK, body)
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	items, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list categories", err)
		return
	}

	body, err := json.Marshal(items)

	if err != nil {
		RespondInternal(ctx, "Could not list categories", err)
		return
	}

	h.cache.Set(ctx.Request.Context(), key, body)

	RespondCachedJSON(ctx, http.StatusOK, body)
}

func (h *CategoriesHandler) GetCategoryByID(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	c, err := h.repo.GetByID(cctx, id)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, c)
}

func (h *CategoriesHandler) CreateCategory(ctx *gin.Context) {
	var req category.CreateCategoryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	c, err := h.repo.Create(cctx, req)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.invalidate(ctx)

	ctx.JSON(http.StatusCreated, c)
}

func (h *CategoriesHandler) UpdateCategory(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req category.UpdateCategoryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	c, err := h.repo.Update(cctx, id, req)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	// guru payloads embed the era name
	h.invalidate(ctx)
	h.cache.InvalidatePrefix(ctx.Request.Context(), utils.GurusCachePrefix)

	ctx.JSON(http.StatusOK, c)
}

func (h *CategoriesHandler) DeleteCategory(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	n, err := h.usage.CountByEra(cctx, id)

	if err != nil {
		RespondInternal(ctx, "Could not delete category", err)
		return
	}

	if n > 0 {
		RespondConflict(ctx, "category_in_use", "Category still has gurus assigned")
		return
	}

	if err := h.repo.Delete(cctx, id); err != nil {
		h.respondError(ctx, err)
		return
	}

	h.invalidate(ctx)

	RespondMessage(ctx, http.StatusOK, "Category removed successfully")
}

func (h *CategoriesHandler) invalidate(ctx *gin.Context) {
	h.cache.InvalidatePrefix(ctx.Request.Context(), utils.CategoriesCachePrefix)
}

func (h *CategoriesHandler) respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, category.ErrNotFound):
		RespondNotFound(ctx, "Category not found")
	case errors.Is(err, category.ErrNameTaken):
		RespondError(ctx, http.StatusBadRequest, "category_exists", "Category already exists", nil)
	case errors.Is(err, category.ErrInUse):
		RespondConflict(ctx, "category_in_use", "Category still has gurus assigned")
	default:
		RespondInternal(ctx, "Could not process category", err)
	}
}

// pathID reads :id and rejects anything that is not a uuid.
func pathID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "id must be a valid UUID", nil)
		return "", false
	}

	return id, true
}
