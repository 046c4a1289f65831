package category

import (
	"errors"
	"time"
)

// Category groups gurus by era.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var (
	ErrNotFound  = errors.New("category not found")
	ErrNameTaken = errors.New("category name already exists")
	ErrInUse     = errors.New("category still has gurus")
)

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description" binding:"required,max=2000"`
}

// empty fields keep the stored value
type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"omitempty,max=120"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}
