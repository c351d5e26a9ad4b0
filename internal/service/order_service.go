package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"aroma-tales/internal/domain"
	"aroma-tales/internal/notification"
	"aroma-tales/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// orderNumberAttempts bounds regeneration when a freshly generated order number collides
	orderNumberAttempts = 3
	// checkoutAttempts bounds re-reading a cart that changed between pricing and commit
	checkoutAttempts = 3
)

// PlaceOrderInput is everything checkout needs besides the cart itself
type PlaceOrderInput struct {
	SessionID     string
	Customer      domain.Customer
	PaymentMethod domain.PaymentMethod
	Notes         string
}

// OrderService defines checkout and order administration
type OrderService interface {
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	ListOrdersForSession(ctx context.Context, sessionID string) ([]*domain.Order, error)
	// Wait blocks until every post-checkout notification dispatch has finished
	Wait()
}

type orderService struct {
	cartRepo        repository.CartRepository
	orderRepo       repository.OrderRepository
	notifier        notification.Notifier
	dispatchTimeout time.Duration
	logger          *zap.Logger
	inflight        sync.WaitGroup
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	notifier notification.Notifier,
	dispatchTimeout time.Duration,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		cartRepo:        cartRepo,
		orderRepo:       orderRepo,
		notifier:        notifier,
		dispatchTimeout: dispatchTimeout,
		logger:          logger,
	}
}

// PlaceOrder converts the session cart into a price-snapshotted order.
// The order insert and the cart deletion commit together; notifications are
// dispatched afterwards and can never fail the checkout.
func (s *orderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	if err := validSessionID(in.SessionID); err != nil {
		return nil, err
	}

	var (
		order *domain.Order
		err   error
	)
	for attempt := 1; ; attempt++ {
		order, err = s.placeFromCurrentCart(ctx, in)
		if !errors.Is(err, repository.ErrCartChanged) || attempt == checkoutAttempts {
			break
		}
		s.logger.Info("Cart changed during checkout, repricing", zap.String("session_id", in.SessionID))
	}
	if err != nil {
		if errors.Is(err, repository.ErrCartChanged) {
			return nil, fmt.Errorf("%w: %w", ErrCartChanged, err)
		}
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("session_id", order.SessionID),
		zap.Int("lines", len(order.Lines)),
		zap.String("total", order.Total.StringFixed(2)),
	)

	s.dispatchNotifications(ctx, order)

	return order, nil
}

// placeFromCurrentCart prices the cart as it is now and commits it.
// The repository refuses the commit with ErrCartChanged if the cart moved underneath.
func (s *orderService) placeFromCurrentCart(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	cart, err := s.cartRepo.Find(ctx, in.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	customer := in.Customer.Normalize()
	if err := validate.Struct(customer); err != nil {
		return nil, newFieldErrors(ErrInvalidCustomer, err)
	}

	method := in.PaymentMethod
	if method == "" {
		method = domain.PaymentCashOnDelivery
	}
	if !method.Valid() {
		return nil, ErrInvalidPayment
	}

	lines := make([]domain.OrderLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		if line.Product == nil {
			return nil, fmt.Errorf("cart line %s references %s: %w", line.ID, line.ProductID, repository.ErrProductNotFound)
		}
		lines = append(lines, domain.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
			Product:   line.Product,
		})
	}

	order := domain.NewOrder(in.SessionID, customer, lines, method, in.Notes)

	for attempt := 1; ; attempt++ {
		err = s.orderRepo.PlaceFromCart(ctx, order)
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) || attempt == orderNumberAttempts {
			break
		}
		s.logger.Warn("Order number collision, regenerating", zap.String("order_number", order.OrderNumber))
		order.OrderNumber = domain.NewOrderNumber(order.CreatedAt)
	}
	switch {
	case err == nil:
		return order, nil
	case errors.Is(err, repository.ErrCartNotFound):
		// another checkout consumed the cart first
		return nil, ErrEmptyCart
	case errors.Is(err, repository.ErrCartChanged):
		return nil, err
	default:
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
}

// dispatchNotifications runs detached from the request: a client disconnect must not cancel it
func (s *orderService) dispatchNotifications(ctx context.Context, order *domain.Order) {
	dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.dispatchTimeout)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()

		if err := s.notifier.NotifyAdmin(dispatchCtx, order); err != nil {
			s.logNotificationFailure(order, domain.NotificationAdminOrderNotice, err)
		}
		if err := s.notifier.NotifyCustomer(dispatchCtx, order); err != nil {
			s.logNotificationFailure(order, domain.NotificationCustomerConfirmation, err)
		}
	}()
}

func (s *orderService) logNotificationFailure(order *domain.Order, kind domain.NotificationKind, err error) {
	s.logger.Error("Notification failure",
		zap.String("order_number", order.OrderNumber),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
}

func (s *orderService) Wait() {
	s.inflight.Wait()
}

// UpdateStatus accepts any known status regardless of the current one
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%q: %w", status, ErrInvalidStatus)
	}

	order, err := s.orderRepo.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(status)),
	)
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.FindByID(ctx, orderID)
}

func (s *orderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return s.orderRepo.FindByNumber(ctx, orderNumber)
}

func (s *orderService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.orderRepo.List(ctx)
}

func (s *orderService) ListOrdersForSession(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	if err := validSessionID(sessionID); err != nil {
		return nil, err
	}
	return s.orderRepo.ListBySession(ctx, sessionID)
}
