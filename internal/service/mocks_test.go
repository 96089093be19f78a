package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"shop-api/internal/domain"
	"shop-api/internal/notify"
	"shop-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mock repositories for testing. Reads return copies so tests observe only persisted state.

type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if match(user) {
			found := *user
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Email == email })
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.ID == id })
}

func (m *mockUserRepository) FindByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.GoogleID != "" && u.GoogleID == googleID })
}

func (m *mockUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := make(map[string]*domain.User)
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			copied := *user
			found[id] = &copied
		}
	}
	return found, nil
}

func (m *mockUserRepository) List(ctx context.Context, page, pageSize int) ([]*domain.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*domain.User, 0, len(m.users))
	for _, user := range m.users {
		copied := *user
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := (page - 1) * pageSize
	if start >= len(all) {
		return []*domain.User{}, len(all), nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for id, existing := range m.users {
		if id != user.ID && existing.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

type mockRefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, token := range m.tokens {
		if token.UserID == userID && !token.Revoked {
			token.Revoked = true
			n++
		}
	}
	return n, nil
}

type mockProductRepository struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	// decrementErr, when set, is returned by DecrementStock for that product id
	decrementErr map[string]error
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{
		products:     make(map[string]*domain.Product),
		decrementErr: make(map[string]error),
	}
	for _, p := range products {
		stored := *p
		m.products[p.ID] = &stored
	}
	return m
}

func (m *mockProductRepository) stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	found := *product
	return &found, nil
}

func (m *mockProductRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := make(map[string]*domain.Product)
	for _, id := range ids {
		if product, ok := m.products[id]; ok {
			copied := *product
			found[id] = &copied
		}
	}
	return found, nil
}

func (m *mockProductRepository) List(ctx context.Context, query repository.ProductQuery) ([]*domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*domain.Product
	for _, product := range m.products {
		if query.Category != "" && product.Category != query.Category {
			continue
		}
		if query.Search != "" && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(query.Search)) {
			continue
		}
		copied := *product
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	start := (query.Page - 1) * query.PageSize
	if start >= len(matched) {
		return nil, len(matched), nil
	}
	end := start + query.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (m *mockProductRepository) Categories(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var categories []string
	for _, product := range m.products {
		if product.Category != "" && !seen[product.Category] {
			seen[product.Category] = true
			categories = append(categories, product.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.decrementErr[id]; err != nil {
		return err
	}
	product, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if product.Stock < qty {
		return repository.ErrInsufficientStock
	}
	product.Stock -= qty
	return nil
}

func (m *mockProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.Stock += qty
	return nil
}

type mockOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	// createErr, when set, fails every Create
	createErr error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[string]*domain.Order)}
}

func (m *mockOrderRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func copyOrder(order *domain.Order) *domain.Order {
	copied := *order
	copied.Items = append([]domain.OrderItem(nil), order.Items...)
	return &copied
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return copyOrder(order), nil
}

func (m *mockOrderRepository) list(match func(*domain.Order) bool) []*domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []*domain.Order
	for _, order := range m.orders {
		if match(order) {
			orders = append(orders, copyOrder(order))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return m.list(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (m *mockOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return m.list(func(*domain.Order) bool { return true }), nil
}

func (m *mockOrderRepository) UpdatePayment(ctx context.Context, id string, payment domain.Payment, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Payment = payment
	order.Status = status
	return nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (m *mockOrderRepository) ExistsForProduct(ctx context.Context, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		for _, item := range order.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

type mockWishlistRepository struct {
	mu        sync.Mutex
	wishlists map[string]*domain.Wishlist
}

func newMockWishlistRepository() *mockWishlistRepository {
	return &mockWishlistRepository{wishlists: make(map[string]*domain.Wishlist)}
}

func copyWishlist(w *domain.Wishlist) *domain.Wishlist {
	copied := *w
	copied.ProductIDs = append([]string{}, w.ProductIDs...)
	return &copied
}

func (m *mockWishlistRepository) FindByUser(ctx context.Context, userID string) (*domain.Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wishlist, ok := m.wishlists[userID]
	if !ok {
		return nil, repository.ErrWishlistNotFound
	}
	return copyWishlist(wishlist), nil
}

func (m *mockWishlistRepository) AddProduct(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wishlist, ok := m.wishlists[userID]
	if !ok {
		wishlist = &domain.Wishlist{ID: uuid.New().String(), UserID: userID, ProductIDs: []string{}}
		m.wishlists[userID] = wishlist
	}
	if !wishlist.Contains(productID) {
		wishlist.ProductIDs = append(wishlist.ProductIDs, productID)
	}
	return copyWishlist(wishlist), nil
}

func (m *mockWishlistRepository) RemoveProduct(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wishlist, ok := m.wishlists[userID]
	if !ok {
		return nil, repository.ErrWishlistNotFound
	}
	kept := wishlist.ProductIDs[:0]
	for _, id := range wishlist.ProductIDs {
		if id != productID {
			kept = append(kept, id)
		}
	}
	wishlist.ProductIDs = kept
	return copyWishlist(wishlist), nil
}

type fakeGateway struct {
	secret string
	err    error
	calls  []decimal.Decimal
}

func (f *fakeGateway) CreateIntent(ctx context.Context, amount decimal.Decimal) (string, error) {
	f.calls = append(f.calls, amount)
	if f.err != nil {
		return "", f.err
	}
	return f.secret, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Email
	err  error
}

func (r *recordingNotifier) Notify(ctx context.Context, email notify.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, email)
	return r.err
}
