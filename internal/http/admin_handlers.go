package httpapi

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"warungmadura/internal/export"
	"warungmadura/internal/service"
)

// @Summary List all products
// @Description Includes out-of-stock products
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Product
// @Failure 403 {object} map[string]string
// @Router /admin/products [get]
func (s *Server) adminListProducts(c *gin.Context) {
	list, err := s.svc.Admin.ListProducts(c.Request.Context(), mustSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Create product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.ProductInput true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/products [post]
func (s *Server) adminCreateProduct(c *gin.Context) {
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.svc.Admin.CreateProduct(c.Request.Context(), mustSession(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Update product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param input body service.ProductInput true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/products/{id} [put]
func (s *Server) adminUpdateProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.svc.Admin.UpdateProduct(c.Request.Context(), mustSession(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /admin/products/{id} [delete]
func (s *Server) adminDeleteProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := s.svc.Admin.DeleteProduct(c.Request.Context(), mustSession(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Export products to Excel
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Router /admin/products/export [get]
func (s *Server) adminExportProducts(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.svc.Admin.ExportProducts(c.Request.Context(), mustSession(c), &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+export.Filename)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// @Summary Create category
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.CategoryInput true "Category"
// @Success 201 {object} domain.Category
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/categories [post]
func (s *Server) adminCreateCategory(c *gin.Context) {
	var req service.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cat, err := s.svc.Admin.CreateCategory(c.Request.Context(), mustSession(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// @Summary List all orders
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Success 200 {array} domain.Order
// @Failure 400 {object} map[string]string
// @Router /admin/orders [get]
func (s *Server) adminListOrders(c *gin.Context) {
	list, err := s.svc.Admin.ListOrders(c.Request.Context(), mustSession(c), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// @Summary Update order status
// @Description Any of pending, paid, processing, shipped, completed, cancelled
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param input body updateStatusReq true "Status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/orders/{id}/status [put]
func (s *Server) adminUpdateOrderStatus(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.svc.Admin.UpdateOrderStatus(c.Request.Context(), mustSession(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
