package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonchain/carbonchain-backend/internal/auth"
	"github.com/carbonchain/carbonchain-backend/internal/auth/middleware"
	"github.com/carbonchain/carbonchain-backend/internal/orders/domain"
	"github.com/carbonchain/carbonchain-backend/internal/orders/repository"
	"github.com/carbonchain/carbonchain-backend/internal/orders/service"
	quotes "github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
)

type tokenVerifier struct{}

func (tokenVerifier) VerifyIDToken(_ context.Context, token string) (*fbauth.Token, error) {
	if token != "bob-token" {
		return nil, errors.New("bad token")
	}
	return &fbauth.Token{UID: "bob"}, nil
}

func setup(t *testing.T, devMode bool) (*gin.Engine, *service.OrderService) {
	return setupWith(t, nil, devMode)
}

func setupWith(t *testing.T, verifier middleware.TokenVerifier, devMode bool) (*gin.Engine, *service.OrderService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.NewOrderService(repository.NewMemoryRepository(), nil, nil)
	r := gin.New()
	r.Use(middleware.Identity(verifier, devMode))
	New(svc, nil).Register(r)
	return r, svc
}

func record(svc *service.OrderService, userID, quoteID string) *domain.Receipt {
	return svc.Record(context.Background(), &quotes.Quote{
		QuoteID: quoteID, UserID: userID, ProjectID: "VCS-191", Quantity: 1, TotalCost: 2.5,
	}, quotes.Certificate{FirstName: "Ada", LastName: "Lovelace", Message: "hi"})
}

func get(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListOrders(t *testing.T) {
	r, svc := setup(t, true)
	record(svc, "alice", "q-1")
	record(svc, "alice", "q-2")
	record(svc, "bob", "q-3")

	w := get(r, "/orders", map[string]string{auth.HeaderUserID: "alice"})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Orders []domain.Order `json:"orders"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	for _, o := range body.Orders {
		assert.Equal(t, "alice", o.UserID)
	}
}

func TestListOrders_QueryUserOutsideDevMode(t *testing.T) {
	r, svc := setup(t, false)
	record(svc, "bob", "q-1")

	w := get(r, "/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/orders?userId=bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestListOrders_VerifierRequiresToken(t *testing.T) {
	r, svc := setupWith(t, tokenVerifier{}, false)
	record(svc, "bob", "q-1")

	w := get(r, "/orders?userId=bob", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/orders?userId=bob", map[string]string{auth.HeaderUserID: "bob"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/orders", map[string]string{"Authorization": "Bearer bob-token"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = get(r, "/orders?userId=alice", map[string]string{"Authorization": "Bearer bob-token"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetOrder(t *testing.T) {
	r, svc := setup(t, true)
	receipt := record(svc, "alice", "q-1")

	w := get(r, "/orders/"+receipt.OrderID, map[string]string{auth.HeaderUserID: "alice"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), receipt.OrderID)

	w = get(r, "/orders/"+receipt.OrderID, map[string]string{auth.HeaderUserID: "mallory"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
