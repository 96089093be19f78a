package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop-api/internal/domain"
	"shop-api/internal/middleware"
	"shop-api/internal/repository"
	"shop-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "transport-test-secret"

// tokenService validates real tokens; it never reaches a repository
func tokenService() service.UserService {
	return service.NewUserService(nil, nil, service.TokenSettings{Secret: testSecret})
}

func authGate() func(http.Handler) http.Handler {
	return middleware.AuthMiddleware(tokenService(), zap.NewNop())
}

func bearer(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	claims := &service.Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func newRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r chi.Router, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorDetail {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Error
}

// Stubs embed the interface so only the methods a test sets are callable

type stubUserService struct {
	service.UserService
	register        func(ctx context.Context, name, email, password string) (*domain.User, error)
	login           func(ctx context.Context, email, password string) (string, string, *domain.User, error)
	getUser         func(ctx context.Context, id string) (*domain.User, error)
	updateProfile   func(ctx context.Context, id string, update service.ProfileUpdate) (*domain.User, error)
	updateUser      func(ctx context.Context, id string, update service.UserUpdate) (*domain.User, error)
	loginWithGoogle func(ctx context.Context, profile service.ExternalProfile) (string, *domain.User, error)
}

func (s *stubUserService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.register(ctx, name, email, password)
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (string, string, *domain.User, error) {
	return s.login(ctx, email, password)
}

func (s *stubUserService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.getUser(ctx, id)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, id string, update service.ProfileUpdate) (*domain.User, error) {
	return s.updateProfile(ctx, id, update)
}

func (s *stubUserService) UpdateUser(ctx context.Context, id string, update service.UserUpdate) (*domain.User, error) {
	return s.updateUser(ctx, id, update)
}

func (s *stubUserService) LoginWithGoogle(ctx context.Context, profile service.ExternalProfile) (string, *domain.User, error) {
	return s.loginWithGoogle(ctx, profile)
}

type stubSellerService struct {
	service.SellerService
	approve func(ctx context.Context, id string) (*domain.User, error)
}

func (s *stubSellerService) Approve(ctx context.Context, id string) (*domain.User, error) {
	return s.approve(ctx, id)
}

type stubProductService struct {
	service.ProductService
	list   func(ctx context.Context, query repository.ProductQuery) (*service.ProductPage, error)
	update func(ctx context.Context, id string, update service.ProductUpdate) (*domain.Product, error)
	delete func(ctx context.Context, id string) error
}

func (s *stubProductService) ListProducts(ctx context.Context, query repository.ProductQuery) (*service.ProductPage, error) {
	return s.list(ctx, query)
}

func (s *stubProductService) UpdateProduct(ctx context.Context, id string, update service.ProductUpdate) (*domain.Product, error) {
	return s.update(ctx, id, update)
}

func (s *stubProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

type stubOrderService struct {
	service.OrderService
	placeOrder    func(ctx context.Context, caller service.Caller, input service.PlaceOrderInput) (*domain.Order, error)
	getOrder      func(ctx context.Context, caller service.Caller, id string) (*domain.OrderView, error)
	listMine      func(ctx context.Context, caller service.Caller) ([]*domain.OrderView, error)
	setStatus     func(ctx context.Context, caller service.Caller, id string, status domain.OrderStatus) (*domain.OrderView, error)
	paymentIntent func(ctx context.Context, amount decimal.Decimal) (string, error)
}

func (s *stubOrderService) PlaceOrder(ctx context.Context, caller service.Caller, input service.PlaceOrderInput) (*domain.Order, error) {
	return s.placeOrder(ctx, caller, input)
}

func (s *stubOrderService) GetOrder(ctx context.Context, caller service.Caller, id string) (*domain.OrderView, error) {
	return s.getOrder(ctx, caller, id)
}

func (s *stubOrderService) ListMyOrders(ctx context.Context, caller service.Caller) ([]*domain.OrderView, error) {
	return s.listMine(ctx, caller)
}

func (s *stubOrderService) SetOrderStatus(ctx context.Context, caller service.Caller, id string, status domain.OrderStatus) (*domain.OrderView, error) {
	return s.setStatus(ctx, caller, id, status)
}

func (s *stubOrderService) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal) (string, error) {
	return s.paymentIntent(ctx, amount)
}

type stubWishlistService struct {
	service.WishlistService
	add func(ctx context.Context, userID, productID string) (*domain.Wishlist, error)
}

func (s *stubWishlistService) AddToWishlist(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	return s.add(ctx, userID, productID)
}
