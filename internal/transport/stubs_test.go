package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"aroma-tales/internal/domain"
	"aroma-tales/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Function-field stubs so each test only wires the calls it exercises

type stubCatalog struct {
	list func(category string) ([]*domain.Product, error)
	get  func(id uuid.UUID) (*domain.Product, error)
}

func (s *stubCatalog) ListProducts(ctx context.Context, category string) ([]*domain.Product, error) {
	return s.list(category)
}

func (s *stubCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.get(id)
}

type stubCart struct {
	cart       *domain.Cart
	err        error
	lastQty    int
	lastLineID uuid.UUID
}

func (s *stubCart) result() (*domain.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cart, nil
}

func (s *stubCart) GetOrCreateCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.result()
}

func (s *stubCart) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	s.lastQty = quantity
	return s.result()
}

func (s *stubCart) SetItemQuantity(ctx context.Context, sessionID string, lineID uuid.UUID, quantity int) (*domain.Cart, error) {
	s.lastQty = quantity
	s.lastLineID = lineID
	return s.result()
}

func (s *stubCart) RemoveItem(ctx context.Context, sessionID string, lineID uuid.UUID) (*domain.Cart, error) {
	s.lastLineID = lineID
	return s.result()
}

func (s *stubCart) ClearCart(ctx context.Context, sessionID string) error {
	return s.err
}

type stubOrders struct {
	order *domain.Order
	err   error
	input service.PlaceOrderInput
}

func (s *stubOrders) PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (*domain.Order, error) {
	s.input = in
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func (s *stubOrders) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	o := *s.order
	o.Status = status
	return &o, nil
}

func (s *stubOrders) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func (s *stubOrders) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return s.GetOrder(ctx, uuid.Nil)
}

func (s *stubOrders) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return []*domain.Order{s.order}, s.err
}

func (s *stubOrders) ListOrdersForSession(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	return []*domain.Order{s.order}, s.err
}

func (s *stubOrders) Wait() {}

type stubNotifier struct {
	err error
}

func (n *stubNotifier) NotifyAdmin(ctx context.Context, order *domain.Order) error    { return n.err }
func (n *stubNotifier) NotifyCustomer(ctx context.Context, order *domain.Order) error { return n.err }
func (n *stubNotifier) NotifyContact(ctx context.Context, msg *domain.ContactMessage) error {
	return n.err
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.NotNil(t, body.Error, "response has no error envelope")
	return body.Error
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
