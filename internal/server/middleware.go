package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"auction-house/internal/accounts"
	"auction-house/internal/biddingerrors"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// TokenValidator resolves a bearer token to the caller it was issued to
type TokenValidator interface {
	ValidateToken(token string) (accounts.Principal, error)
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if p, ok := accounts.PrincipalFrom(c.Request.Context()); ok {
		fields["user_id"] = p.UserID
	}
	utils.Info("HTTP Request", fields)
}

// AuthMiddleware requires a valid bearer token and stores its principal in
// the request context
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header || token == "" {
			abortUnauthorized(c, errors.New("missing bearer token"))
			return
		}

		principal, err := validator.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Request = c.Request.WithContext(accounts.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusUnauthorized, err, biddingerrors.ErrInvalidToken.Error())
	c.Abort()
	utils.Warn("AuthMiddleware: rejected request", map[string]any{
		"path":  c.Request.URL.Path,
		"error": err.Error(),
	})
}
