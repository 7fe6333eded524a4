package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary List my orders
// @Description Newest first, with items
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Order
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	list, err := s.svc.Orders.ListForUser(c.Request.Context(), mustSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get order by id
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := s.svc.Orders.Get(c.Request.Context(), mustSession(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Download invoice
// @Tags orders
// @Produce plain
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {string} string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/invoice [get]
func (s *Server) getInvoice(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	name, body, err := s.svc.Orders.Invoice(c.Request.Context(), mustSession(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}
