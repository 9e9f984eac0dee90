// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
)

// CatalogService is the part of a catalog service the generic handler needs.
type CatalogService[T any] interface {
	Get(ctx context.Context, entityID id.ID) (*T, error)
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
}

// CatalogDeleter is implemented by catalogs whose entries can be removed.
type CatalogDeleter interface {
	Delete(ctx context.Context, entityID id.ID) error
}

// CatalogHandler provides generic HTTP handlers for catalog entities.
type CatalogHandler[T any] struct {
	*BaseHandler
	service CatalogService[T]
	setID   func(entity *T, entityID id.ID)
}

// NewCatalogHandler creates a catalog handler. setID stamps the path id
// onto an update body.
func NewCatalogHandler[T any](base *BaseHandler, service CatalogService[T], setID func(*T, id.ID)) *CatalogHandler[T] {
	return &CatalogHandler[T]{BaseHandler: base, service: service, setID: setID}
}

// Get handles GET /{entity}/:id.
func (h *CatalogHandler[T]) Get(c *gin.Context) {
	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	entity, err := h.service.Get(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entity)
}

// Create handles POST /{entity}.
func (h *CatalogHandler[T]) Create(c *gin.Context) {
	entity := new(T)
	if !h.BindJSON(c, entity) {
		return
	}

	if err := h.service.Create(c.Request.Context(), entity); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entity)
}

// Update handles PUT /{entity}/:id.
func (h *CatalogHandler[T]) Update(c *gin.Context) {
	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	entity := new(T)
	if !h.BindJSON(c, entity) {
		return
	}
	h.setID(entity, entityID)

	if err := h.service.Update(c.Request.Context(), entity); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entity)
}

// Delete handles DELETE /{entity}/:id. Catalogs without a delete
// operation never get this route registered.
func (h *CatalogHandler[T]) Delete(c *gin.Context) {
	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	deleter, _ := h.service.(CatalogDeleter)
	if err := deleter.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// CanDelete reports whether the underlying catalog supports Delete.
func (h *CatalogHandler[T]) CanDelete() bool {
	_, ok := h.service.(CatalogDeleter)
	return ok
}
