package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type adminLoginRequest struct {
	AdminToken string `json:"adminToken"`
}

func (s *Server) handleAdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed payload"})
		return
	}
	token, err := s.authSvc.Login(req.AdminToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid admin token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// adminAuth guards /admin/gc and /admin/diagnostics (SPEC_FULL.md's admin
// surface), the same Authorization: Bearer <jwt> convention the teacher's
// authMiddleware uses.
func (s *Server) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "missing admin token"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if err := s.authSvc.ValidateToken(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid admin token"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleAdminGC(c *gin.Context) {
	n := s.registry.GC(time.Now())
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

func (s *Server) handleAdminDiagnostics(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	c.JSON(http.StatusOK, gin.H{"diagnostics": s.registry.Diagnostics(limit)})
}
