package integrationtests

import (
	"auction-house/internal/accounts"
	bidding "auction-house/internal/biddingService"
	"auction-house/internal/repository"
	"auction-house/internal/rules"
	"auction-house/internal/server"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// SetupTestRouter initializes the router with in-memory repository for integration testing.
func SetupTestRouter(policy rules.Policy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRepo()
	service := bidding.NewBiddingService(repo, rules.NewEngine(policy))
	accountsSvc := accounts.NewService(repo, "integration-secret", time.Hour, accounts.WithBcryptCost(bcrypt.MinCost))
	return server.SetupRouter(service, accountsSvc)
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response.
// A non-empty token is sent as a bearer token.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}

// Data returns the envelope's data object
func Data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	data, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %v", resp)
	}
	return data
}

// RegisterAndLogin creates a user through the API and returns its token and ID
func RegisterAndLogin(t *testing.T, router *gin.Engine, username string) (string, string) {
	t.Helper()
	creds := map[string]string{"username": username, "password": "password123", "confirmation": "password123"}

	_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auth/register", "", creds)
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, w.Code, w.Body.String())
	}

	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auth/login", "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, w.Code, w.Body.String())
	}
	data := Data(t, resp)
	user := data["user"].(map[string]any)
	return data["token"].(string), user["user_id"].(string)
}

// CreateListing creates a listing through the API and returns its ID
func CreateListing(t *testing.T, router *gin.Engine, token, title, startingBid string) string {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/listings", token,
		map[string]any{"title": title, "starting_bid": startingBid})
	if w.Code != http.StatusCreated {
		t.Fatalf("create listing: status %d body %s", w.Code, w.Body.String())
	}
	return Data(t, resp)["listing_id"].(string)
}
