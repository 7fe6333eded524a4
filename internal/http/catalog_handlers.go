package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"warungmadura/internal/service"
)

// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {array} domain.Category
// @Router /categories [get]
func (s *Server) listCategories(c *gin.Context) {
	list, err := s.svc.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary List products in stock
// @Description Popular products first, then by name
// @Tags catalog
// @Produce json
// @Param category query string false "Category slug"
// @Param q query string false "Name contains"
// @Success 200 {array} domain.Product
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	list, err := s.svc.Catalog.ListProducts(c.Request.Context(), service.CatalogQuery{
		CategorySlug: c.Query("category"),
		Search:       c.Query("q"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get product by slug
// @Tags catalog
// @Produce json
// @Param slug path string true "Product slug"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string
// @Router /products/{slug} [get]
func (s *Server) getProduct(c *gin.Context) {
	p, err := s.svc.Catalog.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
