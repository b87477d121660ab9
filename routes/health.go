package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterHealthRoutes exposes the liveness endpoint.
func RegisterHealthRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
}

// RegisterStaticRoutes serves the bundled frontend shell for any path not
// claimed by the API. Unknown paths fall back to index.html so the SPA
// router can take over.
func RegisterStaticRoutes(router *gin.Engine, staticDir string) {
	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		requested := filepath.Join(staticDir, filepath.Clean("/"+c.Request.URL.Path))
		if !strings.HasPrefix(requested, filepath.Clean(staticDir)) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			c.File(requested)
			return
		}
		c.File(filepath.Join(staticDir, "index.html"))
	})
}
