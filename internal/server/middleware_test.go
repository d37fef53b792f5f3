package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-house/internal/accounts"
	model "auction-house/internal/models"
	"auction-house/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := accounts.NewService(repository.NewMemoryRepo(), "test-secret", time.Hour)

	router := gin.New()
	router.Use(AuthMiddleware(svc))
	router.GET("/whoami", func(c *gin.Context) {
		p, ok := accounts.PrincipalFrom(c.Request.Context())
		require.True(t, ok)
		c.String(http.StatusOK, p.UserID)
	})

	token, err := svc.IssueToken(model.User{UserID: "u1", Username: "alice"})
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{name: "valid_token", header: "Bearer " + token, expectedStatus: http.StatusOK},
		{name: "missing_header", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "wrong_scheme", header: "Basic " + token, expectedStatus: http.StatusUnauthorized},
		{name: "empty_token", header: "Bearer ", expectedStatus: http.StatusUnauthorized},
		{name: "garbage_token", header: "Bearer nonsense", expectedStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			if w.Code == http.StatusOK {
				require.Equal(t, "u1", w.Body.String())
			}
		})
	}
}
