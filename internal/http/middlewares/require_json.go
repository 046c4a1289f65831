package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON refuses write requests whose media type is not JSON. Parameters
// such as charset are ignored, and structured suffixes ("+json") are accepted.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if hasBody(c.Request.Method) && !isJSON(c.ContentType()) {
			abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type",
				"Content-Type must be application/json")
			return
		}

		c.Next()
	}
}

func hasBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func isJSON(mediaType string) bool {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
