package httpserver

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/cart"
	"storefront/internal/domain"
)

type addItemRequest struct {
	Product  domain.Product `json:"product" binding:"required"`
	Quantity int            `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func getCartHandler(m *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, m.CurrentCart())
	}
}

func addItemHandler(m *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		if req.Product.ID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product id required"})
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		m.AddItem(c.Request.Context(), req.Product, req.Quantity)
		c.JSON(http.StatusOK, m.CurrentCart())
	}
}

func updateQuantityHandler(m *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := productIDParam(c)
		if !ok {
			return
		}
		var req updateQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		m.UpdateQuantity(c.Request.Context(), productID, req.Quantity)
		c.JSON(http.StatusOK, m.CurrentCart())
	}
}

func removeItemHandler(m *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := productIDParam(c)
		if !ok {
			return
		}
		m.RemoveItem(c.Request.Context(), productID)
		c.JSON(http.StatusOK, m.CurrentCart())
	}
}

func clearCartHandler(m *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.Clear(c.Request.Context())
		c.JSON(http.StatusOK, m.CurrentCart())
	}
}

func itemCountHandler(m *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"count": m.ItemCount()})
	}
}

// cartEventsHandler streams cart states as server-sent events. The first
// event is the current cart; subsequent events follow each mutation.
func cartEventsHandler(m *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		updates, cancel := m.Subscribe()
		defer cancel()

		c.Stream(func(w io.Writer) bool {
			select {
			case snapshot, ok := <-updates:
				if !ok {
					return false
				}
				c.SSEvent("cart", snapshot)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}

func productIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return 0, false
	}
	return id, true
}
