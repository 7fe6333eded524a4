package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"warungmadura/internal/service"
)

// @Summary Get current cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.CartView
// @Failure 401 {object} map[string]string
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	v, err := s.svc.Cart.View(c.Request.Context(), mustSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type addCartItemReq struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
}

// @Summary Add product to cart
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body addCartItemReq true "Item"
// @Success 200 {object} service.CartView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /cart/items [post]
func (s *Server) addCartItem(c *gin.Context) {
	var req addCartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	v, err := s.svc.Cart.AddItem(c.Request.Context(), mustSession(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type setQuantityReq struct {
	Quantity int64 `json:"quantity"`
}

// @Summary Set cart item quantity
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart item ID"
// @Param input body setQuantityReq true "Quantity"
// @Success 200 {object} service.CartView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /cart/items/{id} [put]
func (s *Server) setCartItemQuantity(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req setQuantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	v, err := s.svc.Cart.SetQuantity(c.Request.Context(), mustSession(c), id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Remove cart item
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart item ID"
// @Success 200 {object} service.CartView
// @Failure 404 {object} map[string]string
// @Router /cart/items/{id} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	v, err := s.svc.Cart.RemoveItem(c.Request.Context(), mustSession(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type checkoutReq struct {
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
	Notes           string `json:"notes"`
}

// @Summary Place order from cart
// @Description Retries with the same Idempotency-Key return the original order
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Idempotency key"
// @Param input body checkoutReq true "Checkout"
// @Success 201 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /checkout [post]
func (s *Server) checkout(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.svc.Checkout.Checkout(c.Request.Context(), mustSession(c), service.CheckoutRequest{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		IdempotencyKey:  c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}
