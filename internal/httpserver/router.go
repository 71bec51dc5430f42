package httpserver

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/kv"
)

// Deps carries the services the handlers depend on.
type Deps struct {
	Carts    *cart.Manager
	Sessions *auth.Service
}

// buildRouter wires the cart/session API plus static SPA serving.
func buildRouter(logger *log.Logger, store kv.Store, deps Deps, staticDir string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(store))

	api := router.Group("/api")
	{
		api.GET("/cart", getCartHandler(deps.Carts))
		api.DELETE("/cart", clearCartHandler(deps.Carts))
		api.POST("/cart/items", addItemHandler(deps.Carts))
		api.PUT("/cart/items/:productId", updateQuantityHandler(deps.Carts))
		api.DELETE("/cart/items/:productId", removeItemHandler(deps.Carts))
		api.GET("/cart/count", itemCountHandler(deps.Carts))
		api.GET("/cart/events", cartEventsHandler(deps.Carts))

		api.GET("/session", getSessionHandler(deps.Sessions))
		api.POST("/session", setSessionHandler(deps.Sessions))
		api.DELETE("/session", clearSessionHandler(deps.Sessions))
	}

	registerStatic(router, staticDir)

	return router
}

// registerStatic serves the built frontend with an index.html fallback so
// client-side routes resolve on refresh and deep links.
func registerStatic(router *gin.Engine, staticDir string) {
	if staticDir == "" {
		return
	}
	if _, err := os.Stat(staticDir); err != nil {
		return
	}

	index := filepath.Join(staticDir, "index.html")
	fs := http.FileServer(http.Dir(staticDir))

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		requested := filepath.Join(staticDir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			fs.ServeHTTP(c.Writer, c.Request)
			return
		}
		c.File(index)
	})
}
