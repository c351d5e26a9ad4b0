package service

import (
	"context"
	"errors"
	"fmt"

	"aroma-tales/internal/domain"
	"aroma-tales/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService defines the session cart operations
type CartService interface {
	GetOrCreateCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.Cart, error)
	SetItemQuantity(ctx context.Context, sessionID string, lineID uuid.UUID, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID string, lineID uuid.UUID) (*domain.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, logger *zap.Logger) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

func validSessionID(sessionID string) error {
	if sessionID == "" || len(sessionID) > domain.MaxSessionIDLength {
		return ErrInvalidSession
	}
	return nil
}

// quantityError turns a merge that would overflow a line into ErrInvalidQuantity
func quantityError(err error) error {
	if errors.Is(err, repository.ErrQuantityLimit) {
		return fmt.Errorf("%w: %w", ErrInvalidQuantity, err)
	}
	return err
}

func (s *cartService) GetOrCreateCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if err := validSessionID(sessionID); err != nil {
		return nil, err
	}
	return s.cartRepo.GetOrCreate(ctx, sessionID)
}

// AddItem checks the product is sellable before touching the cart
func (s *cartService) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if err := validSessionID(sessionID); err != nil {
		return nil, err
	}
	if quantity < 1 || quantity > domain.MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !product.InStock {
		return nil, fmt.Errorf("%s: %w", product.Name, ErrOutOfStock)
	}

	cart, err := s.cartRepo.AddItem(ctx, sessionID, productID, quantity)
	if err != nil {
		return nil, quantityError(err)
	}

	s.logger.Debug("Cart item added",
		zap.String("session_id", sessionID),
		zap.String("product_id", productID.String()),
		zap.Int("quantity", quantity),
	)
	return cart, nil
}

// SetItemQuantity replaces a line's quantity; zero or less removes the line
func (s *cartService) SetItemQuantity(ctx context.Context, sessionID string, lineID uuid.UUID, quantity int) (*domain.Cart, error) {
	if err := validSessionID(sessionID); err != nil {
		return nil, err
	}
	if quantity > domain.MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}
	return s.cartRepo.SetQuantity(ctx, sessionID, lineID, quantity)
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID string, lineID uuid.UUID) (*domain.Cart, error) {
	if err := validSessionID(sessionID); err != nil {
		return nil, err
	}
	return s.cartRepo.RemoveItem(ctx, sessionID, lineID)
}

func (s *cartService) ClearCart(ctx context.Context, sessionID string) error {
	if err := validSessionID(sessionID); err != nil {
		return err
	}
	return s.cartRepo.Delete(ctx, sessionID)
}
