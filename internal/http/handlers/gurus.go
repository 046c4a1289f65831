package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/guruhub/internal/cache"
	"github.com/geocoder89/guruhub/internal/domain/guru"
	"github.com/geocoder89/guruhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type GurusRepo interface {
	Create(ctx context.Context, req guru.CreateGuruRequest) (guru.Guru, error)
	List(ctx context.Context, filter guru.ListGurusFilter) ([]guru.Guru, error)
	GetByID(ctx context.Context, id string) (guru.Guru, error)
	Update(ctx context.Context, id string, req guru.UpdateGuruRequest) (guru.Guru, error)
	Delete(ctx context.Context, id string) error
}

type GurusHandler struct {
	repo    GurusRepo
	cache   cache.Store
	timeout time.Duration
}

func NewGurusHandler(repo GurusRepo, store cache.Store) *GurusHandler {
	return &GurusHandler{repo: repo, cache: store, timeout: DefaultStoreTimeout}
}

func (h *GurusHandler) WithTimeout(d time.Duration) *GurusHandler {
	h.timeout = d
	return h
}

func (h *GurusHandler) ListGurus(ctx *gin.Context) {
	var filter guru.ListGurusFilter

	if era := strings.TrimSpace(ctx.Query("era")); era != "" {
		if !utils.IsUUID(era) {
			RespondBadRequest(ctx, "Invalid query parameters", gin.H{"era": "must be a valid UUID"})
			return
		}
		filter.EraID = &era
	}

	key := utils.BuildGurusListCacheKey(filter.EraID)

	if body, ok := h.cache.Get(ctx.Request.Context(), key); ok {
		RespondCachedJSON(ctx, http.StatusOK, body)
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	items, err := h.repo.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list gurus", err)
		return
	}

	h.serveAndCache(ctx, key, items)
}

func (h *GurusHandler) GetGuruByID(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	key := utils.BuildGuruDetailCacheKey(id)

	if body, ok := h.cache.Get(ctx.Request.Context(), key); ok {
		RespondCachedJSON(ctx, http.StatusOK, body)
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	g, err := h.repo.GetByID(cctx, id)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.serveAndCache(ctx, key, g)
}

func (h *GurusHandler) CreateGuru(ctx *gin.Context) {
	var req guru.CreateGuruRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !utils.IsUUID(req.Era) {
		h.respondError(ctx, guru.ErrUnknownEra)
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	g, err := h.repo.Create(cctx, req)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.invalidate(ctx)

	ctx.JSON(http.StatusCreated, g)
}

func (h *GurusHandler) UpdateGuru(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req guru.UpdateGuruRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Era != nil && !utils.IsUUID(*req.Era) {
		h.respondError(ctx, guru.ErrUnknownEra)
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	g, err := h.repo.Update(cctx, id, req)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.invalidate(ctx)

	ctx.JSON(http.StatusOK, g)
}

func (h *GurusHandler) DeleteGuru(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	if err := h.repo.Delete(cctx, id); err != nil {
		h.respondError(ctx, err)
		return
	}

	h.invalidate(ctx)

	RespondMessage(ctx, http.StatusOK, "Guru removed successfully")
}

func (h *GurusHandler) serveAndCache(ctx *gin.Context, key string, payload interface{}) {
	body, err := json.Marshal(payload)

	if err != nil {
		RespondInternal(ctx, "Could not encode response", err)
		return
	}

	h.cache.Set(ctx.Request.Context(), key, body)

	RespondCachedJSON(ctx, http.StatusOK, body)
}

func (h *GurusHandler) invalidate(ctx *gin.Context) {
	h.cache.InvalidatePrefix(ctx.Request.Context(), utils.GurusCachePrefix)
}

func (h *GurusHandler) respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, guru.ErrNotFound):
		RespondNotFound(ctx, "Guru not found")
	case errors.Is(err, guru.ErrUnknownEra):
		RespondError(ctx, http.StatusBadRequest, "invalid_era", "Era must reference an existing category", nil)
	default:
		RespondInternal(ctx, "Could not process guru", err)
	}
}
