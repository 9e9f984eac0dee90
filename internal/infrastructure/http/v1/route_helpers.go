package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler defines the interface for catalog handlers.
type CatalogRouteHandler interface {
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	CanDelete() bool
}

// RegisterCatalogRoutes registers the CRUD routes of a catalog. DELETE is
// only registered for catalogs that support it.
//
// Usage:
//
//	handler := handlers.NewCatalogHandler(baseHandler, services.Currencies, setCurrencyID)
//	RegisterCatalogRoutes(v1.Group("/currencies"), handler)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	if handler.CanDelete() {
		group.DELETE("/:id", handler.Delete)
	}
}
