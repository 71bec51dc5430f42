package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/auth"
	"storefront/internal/domain"
)

type setSessionRequest struct {
	User  domain.User `json:"user" binding:"required"`
	Token string      `json:"token"`
}

func getSessionHandler(s *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := s.CurrentUser()
		if user == nil {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// setSessionHandler records a login or registration confirmed by the
// external API: the authenticated profile plus its opaque token.
func setSessionHandler(s *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		if req.User.ID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user id required"})
			return
		}
		s.SetSession(c.Request.Context(), req.User, req.Token)
		c.JSON(http.StatusOK, gin.H{"user": req.User})
	}
}

func clearSessionHandler(s *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.ClearSession(c.Request.Context())
		c.Status(http.StatusNoContent)
	}
}
