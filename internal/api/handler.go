package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/service"
	"inventory-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuyerHeader carries the already-authenticated buyer identity.
const BuyerHeader = "X-Buyer-ID"

type ItemManager interface {
	GetItem(ctx context.Context, itemID string) (*models.Item, error)
	CreateItem(ctx context.Context, req *service.CreateItemRequest) (*models.Item, error)
	UpdateItem(ctx context.Context, itemID string, patch models.ItemPatch) (*models.Item, error)
	Restock(ctx context.Context, itemID string, delta int) (*models.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
}

type Purchaser interface {
	Purchase(ctx context.Context, itemID string, quantity int, buyerID string) (*service.PurchaseResult, error)
}

type OrderReader interface {
	ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error)
	Get(ctx context.Context, orderID int64) (*models.Order, error)
}

type SalesReader interface {
	GetSold(ctx context.Context, itemID string) (int64, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	items     ItemManager
	purchases Purchaser
	orders    OrderReader
	sales     SalesReader
	db        Pinger
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler. sales may be nil.
func NewHandler(items ItemManager, purchases Purchaser, orders OrderReader, sales SalesReader, db Pinger) *Handler {
	return &Handler{
		items:     items,
		purchases: purchases,
		orders:    orders,
		sales:     sales,
		db:        db,
		logger:    util.GetLogger(),
	}
}

// PurchaseRequest is the body of a purchase call.
type PurchaseRequest struct {
	Quantity int `json:"quantity"`
}

// RestockRequest is the body of a restock call.
type RestockRequest struct {
	Quantity int `json:"quantity"`
}

type purchaseResponse struct {
	*service.PurchaseResult
	JournalWarning string `json:"journal_warning,omitempty"`
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/items", h.createItem)
		v1.GET("/items/:id", h.getItem)
		v1.PUT("/items/:id", h.updateItem)
		v1.DELETE("/items/:id", h.deleteItem)
		v1.POST("/items/:id/purchase", h.purchase)
		v1.POST("/items/:id/restock", h.restock)
		v1.GET("/items/:id/sales", h.getSales)

		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/buyers/:buyerID/orders", h.listBuyerOrders)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only while the database answers.
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) getItem(c *gin.Context) {
	item, err := h.items.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "Failed to get item", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// purchase handles a buyer taking units of an item
func (h *Handler) purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.purchases.Purchase(c.Request.Context(), c.Param("id"), req.Quantity, c.GetHeader(BuyerHeader))
	if err != nil {
		h.writeError(c, "Purchase failed", err)
		return
	}

	resp := purchaseResponse{PurchaseResult: result}
	if result.JournalErr != nil {
		resp.JournalWarning = "purchase completed but the order record could not be saved"
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createItem(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	item, err := h.items.CreateItem(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "Failed to create item", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) updateItem(c *gin.Context) {
	var patch models.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	item, err := h.items.UpdateItem(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.writeError(c, "Failed to update item", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) restock(c *gin.Context) {
	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	item, err := h.items.Restock(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		h.writeError(c, "Failed to restock item", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) deleteItem(c *gin.Context) {
	if err := h.items.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, "Failed to delete item", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// getSales returns the projected sold-unit counter for an item.
func (h *Handler) getSales(c *gin.Context) {
	if h.sales == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sales projection not configured"})
		return
	}

	itemID := c.Param("id")
	sold, err := h.sales.GetSold(c.Request.Context(), itemID)
	if err != nil {
		h.writeError(c, "Failed to read sales", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"item_id":    itemID,
		"units_sold": sold,
	})
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	order, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, "Failed to get order", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) listBuyerOrders(c *gin.Context) {
	orders, err := h.orders.ListByBuyer(c.Request.Context(), c.Param("buyerID"))
	if err != nil {
		h.writeError(c, "Failed to list orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

func (h *Handler) writeError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidBuyer),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidItem):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrDuplicateItem):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
