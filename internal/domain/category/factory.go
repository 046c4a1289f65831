package category

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateCategoryRequest) Category {
	now := time.Now().UTC()

	return Category{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply returns c with the non-empty fields of req applied.
func (c Category) Apply(req UpdateCategoryRequest) Category {
	if name := strings.TrimSpace(req.Name); name != "" {
		c.Name = name
	}

	if desc := strings.TrimSpace(req.Description); desc != "" {
		c.Description = desc
	}

	c.UpdatedAt = time.Now().UTC()

	return c
}
