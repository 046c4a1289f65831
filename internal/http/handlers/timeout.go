package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultStoreTimeout bounds store calls when no timeout was configured.
const DefaultStoreTimeout = 3 * time.Second

func storeContext(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultStoreTimeout
	}

	return context.WithTimeout(ctx.Request.Context(), d)
}
