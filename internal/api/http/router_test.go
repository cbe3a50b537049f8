package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/security"
	"rental-marketplace-backend/internal/service"
	"rental-marketplace-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-chars"

type revokedDenylist struct {
	revoked map[string]bool
}

func (d *revokedDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	d.revoked[jti] = true
	return nil
}

func (d *revokedDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return d.revoked[jti], nil
}

type testServer struct {
	handler  http.Handler
	tokens   security.TokenManager
	denylist *revokedDenylist
	auth     *MockAuthService
	products *MockProductService
	requests *MockRentalRequestService
	invoices *MockInvoiceService
	pingErr  error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := storage.NewLocalFileStore("http://localhost:8080", t.TempDir())
	require.NoError(t, err)

	ts := &testServer{
		tokens:   security.NewTokenManager(testSecret, 15*time.Minute, time.Hour),
		denylist: &revokedDenylist{revoked: map[string]bool{}},
		auth:     new(MockAuthService),
		products: new(MockProductService),
		requests: new(MockRentalRequestService),
		invoices: new(MockInvoiceService),
	}
	cfg := &config.Config{
		Server:  config.ServerConfig{Environment: "production"},
		JWT:     config.JWTConfig{AccessTokenExpiry: 15, RefreshTokenExpiry: 60},
		Storage: config.StorageConfig{MaxFileSize: 1, AllowedTypes: []string{"image/png"}},
	}
	ts.handler = NewRouter(cfg, Services{
		Auth:          ts.auth,
		Products:      ts.products,
		RentalRequest: ts.requests,
		Invoices:      ts.invoices,
	}, Deps{
		Tokens:   ts.tokens,
		Denylist: ts.denylist,
		Files:    store,
		Ping:     func(ctx context.Context) error { return ts.pingErr },
	})
	return ts
}

func (ts *testServer) accessToken(t *testing.T, userID int32, role domain.UserRole) string {
	t.Helper()
	token, err := ts.tokens.GenerateAccessToken(userID, "u@test.com", string(role))
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRouter_PublicCatalog(t *testing.T) {
	ts := newTestServer(t)
	ts.products.On("List", mock.Anything, domain.ProductFilter{Category: "av", Page: 1, PageSize: 20}).
		Return([]domain.Product{{ID: 5, Name: "Projector"}}, int32(1), nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/products?category=av", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusOK, env.StatusCode)
}

func TestRouter_Authentication(t *testing.T) {
	t.Run("Missing token", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/rental-requests", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.False(t, env.Success)
		assert.Equal(t, "authentication required", env.Message)
	})

	t.Run("Cookie token", func(t *testing.T) {
		ts := newTestServer(t)
		ts.requests.On("ListMine", mock.Anything, int32(7), "pending", int32(1), int32(20)).
			Return([]domain.RentalRequest{}, int32(0), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/rental-requests?status=pending", nil)
		req.AddCookie(&http.Cookie{Name: accessCookie, Value: ts.accessToken(t, 7, domain.UserRoleCustomer)})
		rec := ts.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		ts.requests.AssertNotCalled(t, "ListAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Admin sees every request", func(t *testing.T) {
		ts := newTestServer(t)
		ts.requests.On("ListAll", mock.Anything, "", int32(2), int32(10)).
			Return([]domain.RentalRequest{}, int32(0), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/rental-requests?page=2&page_size=10", nil)
		req.Header.Set("Authorization", "Bearer "+ts.accessToken(t, 1, domain.UserRoleAdmin))
		rec := ts.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Admin route rejects customers", func(t *testing.T) {
		ts := newTestServer(t)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/rental-requests/11/approve", nil)
		req.Header.Set("Authorization", "Bearer "+ts.accessToken(t, 7, domain.UserRoleCustomer))
		rec := ts.do(req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		ts.requests.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Revoked token", func(t *testing.T) {
		ts := newTestServer(t)
		token := ts.accessToken(t, 7, domain.UserRoleCustomer)
		claims, err := ts.tokens.ValidateToken(token)
		require.NoError(t, err)
		ts.denylist.revoked[claims.ID] = true

		req := httptest.NewRequest(http.MethodGet, "/api/v1/rental-requests", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := ts.do(req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "token has been revoked", decodeEnvelope(t, rec).Message)
	})

	t.Run("Refresh endpoint rejects access tokens", func(t *testing.T) {
		ts := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.Header.Set("Authorization", "Bearer "+ts.accessToken(t, 7, domain.UserRoleCustomer))
		rec := ts.do(req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		ts.auth.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_LoginSetsCookies(t *testing.T) {
	ts := newTestServer(t)
	ts.auth.On("Login", mock.Anything, "c@test.com", "password1").Return(&service.AuthResult{
		User:         &domain.User{ID: 7, Email: "c@test.com", Role: domain.UserRoleCustomer},
		AccessToken:  "access",
		RefreshToken: "refresh",
	}, nil)

	body := strings.NewReader(`{"email":"c@test.com","password":"password1"}`)
	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, accessCookie)
	require.Contains(t, cookies, refreshCookie)
	assert.Equal(t, "access", cookies[accessCookie].Value)
	assert.True(t, cookies[accessCookie].HttpOnly)
	assert.True(t, cookies[accessCookie].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[accessCookie].SameSite)
	assert.Equal(t, 900, cookies[accessCookie].MaxAge)

	var env struct {
		Data authResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "refresh", env.Data.RefreshToken)
}

func TestAuthHandler_LoginInvalidCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.auth.On("Login", mock.Anything, "c@test.com", "wrong").Return(nil, apperr.Unauthorized("invalid email or password"))

	body := strings.NewReader(`{"email":"c@test.com","password":"wrong"}`)
	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRentalRequestHandler_CreateParsesDates(t *testing.T) {
	ts := newTestServer(t)
	ts.requests.On("Create", mock.Anything, int32(7), service.CreateRentalRequestInput{
		ProductID: 5,
		Quantity:  2,
		StartDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
	}).Return(&domain.RentalRequest{ID: 11}, nil)

	body := strings.NewReader(`{"product_id":5,"quantity":2,"start_date":"2024-01-10","end_date":"2024-01-14"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rental-requests", body)
	req.Header.Set("Authorization", "Bearer "+ts.accessToken(t, 7, domain.UserRoleCustomer))
	rec := ts.do(req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	ts.requests.AssertExpectations(t)
}

func TestRentalRequestHandler_InvalidDate(t *testing.T) {
	ts := newTestServer(t)
	body := strings.NewReader(`{"product_id":5,"quantity":2,"start_date":"10/01/2024","end_date":"2024-01-14"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rental-requests", body)
	req.Header.Set("Authorization", "Bearer "+ts.accessToken(t, 7, domain.UserRoleCustomer))
	rec := ts.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceHandler_Document(t *testing.T) {
	caller := service.Caller{UserID: 7, Role: domain.UserRoleCustomer}

	t.Run("Streams the PDF", func(t *testing.T) {
		ts := newTestServer(t)
		ts.invoices.On("Document", mock.Anything, caller, int32(3), mock.Anything).
			Run(func(args mock.Arguments) { args.Get(3).(io.Writer).Write([]byte("%PDF-1.3 body")) }).
			Return(&domain.Invoice{ID: 3, InvoiceNumber: "INV-202401-ABCDEF12"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/3/document", nil)
		req.Header.Set("Authorization", "Bearer "+ts.accessToken(t, 7, domain.UserRoleCustomer))
		rec := ts.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="invoice-INV-202401-ABCDEF12.pdf"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "%PDF-1.3 body", rec.Body.String())
	})

	t.Run("Render failure", func(t *testing.T) {
		ts := newTestServer(t)
		ts.invoices.On("Document", mock.Anything, caller, int32(3), mock.Anything).
			Return(nil, apperr.Internal("failed to generate invoice PDF", errors.New("font missing")))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/3/document", nil)
		req.Header.Set("Authorization", "Bearer "+ts.accessToken(t, 7, domain.UserRoleCustomer))
		rec := ts.do(req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "failed to generate invoice PDF: font missing", decodeEnvelope(t, rec).Message)
	})
}

func TestInvoiceHandler_ProcessPayment(t *testing.T) {
	ts := newTestServer(t)
	caller := service.Caller{UserID: 1, Role: domain.UserRoleAdmin}
	ts.invoices.On("ProcessPayment", mock.Anything, caller, int32(3), int64(0), "card").
		Return(nil, apperr.Validation("payment amount must be positive"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/3/payments", strings.NewReader(`{"amount_cents":0,"method":"card"}`))
	req.Header.Set("Authorization", "Bearer "+ts.accessToken(t, 1, domain.UserRoleAdmin))
	rec := ts.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "payment amount must be positive", decodeEnvelope(t, rec).Message)
}

func TestRouter_InvalidPathID(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/products/abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.products.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestRouter_Health(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/health", nil)).Code)

	ts.pingErr = errors.New("connection refused")
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}

func TestImageUploadHandler_RoundTrip(t *testing.T) {
	ts := newTestServer(t)
	png := []byte("\x89PNG\r\n\x1a\nfake")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/upload/tok?key=5%2Fimg.png", bytes.NewReader(png))
	req.Header.Set("Content-Type", "image/png")
	require.Equal(t, http.StatusOK, ts.do(req).Code)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/download/hash?key=5%2Fimg.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.Bytes())
}

func TestImageUploadHandler_Rejects(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/upload/tok?key=5%2Fdoc.pdf", strings.NewReader("x"))
	req.Header.Set("Content-Type", "application/pdf")
	assert.Equal(t, http.StatusBadRequest, ts.do(req).Code)

	req = httptest.NewRequest(http.MethodPut, "/api/v1/upload/tok?key=..%2F..%2Fescape.png", strings.NewReader("x"))
	req.Header.Set("Content-Type", "image/png")
	assert.Equal(t, http.StatusBadRequest, ts.do(req).Code)

	big := bytes.Repeat([]byte("a"), 2<<20)
	req = httptest.NewRequest(http.MethodPut, "/api/v1/upload/tok?key=5%2Fbig.png", bytes.NewReader(big))
	req.Header.Set("Content-Type", "image/png")
	assert.Equal(t, http.StatusRequestEntityTooLarge, ts.do(req).Code)

	assert.Equal(t, http.StatusNotFound, ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/download/x?key=5%2Fmissing.png", nil)).Code)
}
