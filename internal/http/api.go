package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"inventory-api/internal/domain"
	"inventory-api/internal/exporter"
	"inventory-api/internal/service"
)

// Options carries the request-independent settings of the API.
type Options struct {
	AuthRequired      bool
	AuthUsername      string
	LowStockThreshold int
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	inventory service.InventoryService
	auth      service.AuthService
	tokens    TokenValidator
	exports   exporter.Exporter
	logger    *logrus.Logger
	opts      Options
}

// NewHandler builds the API. exports may be nil when object storage is not configured.
func NewHandler(inventory service.InventoryService, auth service.AuthService, tokens TokenValidator, exports exporter.Exporter, logger *logrus.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		inventory: inventory,
		auth:      auth,
		tokens:    tokens,
		exports:   exports,
		logger:    logger,
		opts:      opts,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	router.POST("/auth/login", h.login)

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}

	inventory := api.Group("/inventory")
	if h.opts.AuthRequired {
		inventory.Use(h.bearerAuth())
	}
	{
		inventory.GET("/items", h.listItems)
		inventory.GET("/items/paged", h.listItemsPaged)
		inventory.GET("/items/search", h.searchItems)
		inventory.GET("/items/low-stock", h.listLowStock)
		inventory.GET("/items/:id", h.getItem)
		inventory.POST("/items", h.createItem)
		inventory.PUT("/items/:id", h.updateItem)
		inventory.DELETE("/items/:id", h.deleteItem)
		inventory.POST("/exports", h.createExport)
		inventory.GET("/exports", h.listExports)
	}
}

func (h *Handler) listItems(c *gin.Context) {
	items, err := h.inventory.ListInventory(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, itemsToResponse(items))
}

func (h *Handler) listItemsPaged(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	size := 0
	if raw := c.Query("size"); raw != "" {
		if size, err = strconv.Atoi(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size"})
			return
		}
	}

	result, err := h.inventory.ListInventoryPaged(c.Request.Context(), domain.PageRequest{
		Page:      page,
		Size:      size,
		SortBy:    c.DefaultQuery("sortBy", domain.SortByName),
		Direction: domain.SortDirection(c.DefaultQuery("direction", string(domain.SortAsc))),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageToResponse(result))
}

func (h *Handler) searchItems(c *gin.Context) {
	query, ok := c.GetQuery("query")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}

	items, err := h.inventory.SearchInventory(c.Request.Context(), query)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, itemsToResponse(items))
}

func (h *Handler) listLowStock(c *gin.Context) {
	threshold := h.opts.LowStockThreshold
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid threshold"})
			return
		}
		threshold = v
	}

	items, err := h.inventory.ListBelowStockThreshold(c.Request.Context(), threshold)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, itemsToResponse(items))
}

func (h *Handler) getItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	item, err := h.inventory.GetInventory(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, itemToResponse(*item))
}

func (h *Handler) createItem(c *gin.Context) {
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.inventory.CreateInventory(c.Request.Context(), req.toDomain())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, itemToResponse(*item))
}

func (h *Handler) updateItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.inventory.UpdateInventory(c.Request.Context(), id, req.toDomain())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, itemToResponse(*item))
}

func (h *Handler) deleteItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.inventory.DeleteInventory(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createExport(c *gin.Context) {
	if h.exports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage service not configured"})
		return
	}

	snap, err := h.exports.ExportNow(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshotToResponse(*snap))
}

func (h *Handler) listExports(c *gin.Context) {
	if h.exports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage service not configured"})
		return
	}

	objects, err := h.exports.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]SnapshotObjectResponse, len(objects))
	for i := range objects {
		resp[i] = snapshotObjectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inventory id"})
		return 0, false
	}
	return id, true
}

// writeError maps service errors to status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
