package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"aroma-tales/internal/domain"
	"aroma-tales/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory repositories mirroring the Postgres semantics the services rely on

type mockProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) add(name, price string, inStock bool) *domain.Product {
	p := &domain.Product{
		ID:       uuid.New(),
		Name:     name,
		Category: domain.CategoryUnisex,
		Price:    decimal.RequireFromString(price),
		InStock:  inStock,
	}
	m.mu.Lock()
	m.products[p.ID] = p
	m.mu.Unlock()
	return p
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) delete(id uuid.UUID) {
	m.mu.Lock()
	delete(m.products, id)
	m.mu.Unlock()
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Product
	for _, p := range m.products {
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if filter.InStockOnly && !p.InStock {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type mockCartRepository struct {
	mu       sync.Mutex
	carts    map[string]*domain.Cart
	products *mockProductRepository
}

func newMockCartRepository(products *mockProductRepository) *mockCartRepository {
	return &mockCartRepository{carts: make(map[string]*domain.Cart), products: products}
}

// resolved returns a copy of the cart with product data joined from the catalog
func (m *mockCartRepository) resolved(cart *domain.Cart) *domain.Cart {
	out := *cart
	out.Lines = make([]domain.CartLine, len(cart.Lines))
	for i, line := range cart.Lines {
		if p, err := m.products.FindByID(context.Background(), line.ProductID); err == nil {
			line.Product = p
		} else {
			line.Product = nil
		}
		out.Lines[i] = line
	}
	return &out
}

func (m *mockCartRepository) GetOrCreate(ctx context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[sessionID]
	if !ok {
		cart = &domain.Cart{SessionID: sessionID, Lines: []domain.CartLine{}, CreatedAt: time.Now()}
		m.carts[sessionID] = cart
	}
	return m.resolved(cart), nil
}

func (m *mockCartRepository) Find(ctx context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[sessionID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return m.resolved(cart), nil
}

func (m *mockCartRepository) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if quantity > domain.MaxLineQuantity {
		return nil, repository.ErrQuantityLimit
	}
	cart, ok := m.carts[sessionID]
	if !ok {
		cart = &domain.Cart{SessionID: sessionID, CreatedAt: time.Now()}
		m.carts[sessionID] = cart
	}
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			if cart.Lines[i].Quantity+quantity > domain.MaxLineQuantity {
				return nil, repository.ErrQuantityLimit
			}
			cart.Lines[i].Quantity += quantity
			return m.resolved(cart), nil
		}
	}
	cart.Lines = append(cart.Lines, domain.CartLine{ID: uuid.New(), ProductID: productID, Quantity: quantity, AddedAt: time.Now()})
	return m.resolved(cart), nil
}

func (m *mockCartRepository) SetQuantity(ctx context.Context, sessionID string, lineID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return m.RemoveItem(ctx, sessionID, lineID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[sessionID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	line, ok := cart.Line(lineID)
	if !ok {
		return nil, repository.ErrCartItemNotFound
	}
	line.Quantity = quantity
	return m.resolved(cart), nil
}

func (m *mockCartRepository) RemoveItem(ctx context.Context, sessionID string, lineID uuid.UUID) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[sessionID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	for i, line := range cart.Lines {
		if line.ID == lineID {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			return m.resolved(cart), nil
		}
	}
	return nil, repository.ErrCartItemNotFound
}

// consume deletes the cart only if it still holds exactly the order's lines
func (m *mockCartRepository) consume(order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[order.SessionID]
	if !ok {
		return repository.ErrCartNotFound
	}
	if len(cart.Lines) != len(order.Lines) {
		return repository.ErrCartChanged
	}
	for _, want := range order.Lines {
		found := false
		for _, line := range cart.Lines {
			if line.ProductID == want.ProductID && line.Quantity == want.Quantity {
				found = true
				break
			}
		}
		if !found {
			return repository.ErrCartChanged
		}
	}
	delete(m.carts, order.SessionID)
	return nil
}

func (m *mockCartRepository) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[sessionID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, sessionID)
	return nil
}

type mockOrderRepository struct {
	mu            sync.Mutex
	orders        []*domain.Order
	carts         *mockCartRepository
	duplicates    int
	placeErr      error
	placeAttempts int
}

func newMockOrderRepository(carts *mockCartRepository) *mockOrderRepository {
	return &mockOrderRepository{carts: carts}
}

func (m *mockOrderRepository) PlaceFromCart(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placeAttempts++
	if m.duplicates > 0 {
		m.duplicates--
		return repository.ErrDuplicateOrderNumber
	}
	if m.placeErr != nil {
		return m.placeErr
	}
	if err := m.carts.consume(order); err != nil {
		return err
	}
	stored := *order
	stored.Lines = append([]domain.OrderLine(nil), order.Lines...)
	m.orders = append(m.orders, &stored)
	return nil
}

func (m *mockOrderRepository) find(match func(*domain.Order) bool) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if match(o) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return m.find(func(o *domain.Order) bool { return o.ID == id })
}

func (m *mockOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return m.find(func(o *domain.Order) bool { return o.OrderNumber == orderNumber })
}

func (m *mockOrderRepository) list(match func(*domain.Order) bool) []*domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Order{}
	for i := len(m.orders) - 1; i >= 0; i-- {
		if match(m.orders[i]) {
			cp := *m.orders[i]
			out = append(out, &cp)
		}
	}
	return out
}

func (m *mockOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return m.list(func(*domain.Order) bool { return true }), nil
}

func (m *mockOrderRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	return m.list(func(o *domain.Order) bool { return o.SessionID == sessionID }), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			o.Status = status
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

// recordingNotifier captures dispatched notifications and can be told to fail
type recordingNotifier struct {
	mu       sync.Mutex
	admin    []string
	customer []string
	contacts []domain.ContactMessage
	err      error
}

func (n *recordingNotifier) NotifyAdmin(ctx context.Context, order *domain.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.admin = append(n.admin, order.OrderNumber)
	return nil
}

func (n *recordingNotifier) NotifyCustomer(ctx context.Context, order *domain.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.customer = append(n.customer, order.Customer.Email)
	return nil
}

func (n *recordingNotifier) NotifyContact(ctx context.Context, msg *domain.ContactMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.contacts = append(n.contacts, *msg)
	return nil
}

var errSMTPDown = errors.New("smtp: connection refused")
