package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"warungmadura/internal/auth"
	"warungmadura/internal/logging"
)

const sessionKey = "session"

// requestLogger trace id запроса и строка лога по завершении
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		traceID := c.GetHeader("X-Request-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Header("X-Request-ID", traceID)
		c.Request = c.Request.WithContext(logging.WithTraceID(c.Request.Context(), traceID))

		c.Next()

		slog.Info("request",
			slog.String(logging.TraceID, traceID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)))
	}
}

func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.svc.Sessions.Establish(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil && !errors.Is(err, auth.ErrUnauthenticated) {
			respondError(c, err)
			c.Abort()
			return
		}
		if err != nil {
			slog.Info("unauthenticated request",
				slog.String(logging.TraceID, logging.TraceIDFrom(c.Request.Context())),
				slog.String(logging.Error, err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func (s *Server) adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := sessionFrom(c)
		if !ok || !sess.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

func sessionFrom(c *gin.Context) (auth.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return auth.Session{}, false
	}
	sess, ok := v.(auth.Session)
	return sess, ok
}

// mustSession вызывается только за authRequired
func mustSession(c *gin.Context) auth.Session {
	sess, _ := sessionFrom(c)
	return sess
}
