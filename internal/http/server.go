package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"warungmadura/internal/auth"
	"warungmadura/internal/logging"
	"warungmadura/internal/repository"
	"warungmadura/internal/service"
)

// Services зависимости HTTP-слоя
type Services struct {
	Sessions *auth.Manager
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Admin    *service.AdminService
	Profiles *service.ProfileService
}

type Server struct {
	engine *gin.Engine
	svc    Services
}

func NewServer(svc Services, allowedOrigins []string) *Server {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), corsMiddleware(allowedOrigins))
	s := &Server{engine: r, svc: svc}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/categories", s.listCategories)
		v1.GET("/products", s.listProducts)
		v1.GET("/products/:slug", s.getProduct)

		authed := v1.Group("", s.authRequired())
		authed.POST("/auth/logout", s.logout)
		authed.GET("/me", s.me)
		authed.GET("/me/profile", s.getProfile)
		authed.PUT("/me/profile", s.updateProfile)

		authed.GET("/cart", s.getCart)
		authed.POST("/cart/items", s.addCartItem)
		authed.PUT("/cart/items/:id", s.setCartItemQuantity)
		authed.DELETE("/cart/items/:id", s.removeCartItem)
		authed.POST("/checkout", s.checkout)

		authed.GET("/orders", s.listOrders)
		authed.GET("/orders/:id", s.getOrder)
		authed.GET("/orders/:id/invoice", s.getInvoice)

		admin := authed.Group("/admin", s.adminOnly())
		admin.GET("/products", s.adminListProducts)
		admin.POST("/products", s.adminCreateProduct)
		admin.GET("/products/export", s.adminExportProducts)
		admin.PUT("/products/:id", s.adminUpdateProduct)
		admin.DELETE("/products/:id", s.adminDeleteProduct)
		admin.POST("/categories", s.adminCreateCategory)
		admin.GET("/orders", s.adminListOrders)
		admin.PUT("/orders/:id/status", s.adminUpdateOrderStatus)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func parseID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrNotEnoughStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError ожидаемые ошибки отдаются как есть, остальные логируются и скрываются
func respondError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		attrs := []any{
			slog.String(logging.TraceID, logging.TraceIDFrom(c.Request.Context())),
			slog.String(logging.Error, err.Error()),
		}
		if sess, ok := sessionFrom(c); ok {
			attrs = append(attrs, slog.String(logging.UserID, sess.UserID.String()))
		}
		slog.Error("request failed", attrs...)
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}
