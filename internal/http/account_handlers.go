package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"warungmadura/internal/service"
)

// @Summary Logout
// @Description Revokes the presented token
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	s.svc.Sessions.Invalidate(mustSession(c))
	c.Status(http.StatusNoContent)
}

// @Summary Current identity with profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Router /me [get]
func (s *Server) me(c *gin.Context) {
	sess := mustSession(c)
	p, err := s.svc.Profiles.GetProfile(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":  sess.UserID,
		"email":    sess.Email,
		"roles":    sess.Roles,
		"is_admin": sess.IsAdmin(),
		"profile":  p,
	})
}

// @Summary Get my profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Profile
// @Router /me/profile [get]
func (s *Server) getProfile(c *gin.Context) {
	p, err := s.svc.Profiles.GetProfile(c.Request.Context(), mustSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Update my profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.ProfileUpdate true "Profile"
// @Success 200 {object} domain.Profile
// @Failure 400 {object} map[string]string
// @Router /me/profile [put]
func (s *Server) updateProfile(c *gin.Context) {
	var req service.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.svc.Profiles.UpdateProfile(c.Request.Context(), mustSession(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
