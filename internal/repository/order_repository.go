package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aroma-tales/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound        = fmt.Errorf("order %w", domain.ErrNotFound)
	ErrDuplicateOrderNumber = errors.New("order number already exists")
)

const orderNumberConstraint = "orders_order_number_key"

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// PlaceFromCart persists order with its lines and deletes the originating cart in one transaction
	PlaceFromCart(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `
	id, order_number, session_id,
	customer_name, customer_email, customer_phone,
	address_street, address_city, address_postal_code, address_country,
	payment_method, subtotal, shipping, total, notes, status, created_at, updated_at
`

// PlaceFromCart inserts the order and its snapshotted lines, then deletes the session cart.
// The cart and its lines stay locked for the whole transaction. A cart that is gone
// yields ErrCartNotFound; one whose lines no longer match order.Lines yields ErrCartChanged.
// Nothing is written unless every statement succeeds.
func (r *orderRepository) PlaceFromCart(ctx context.Context, order *domain.Order) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockCartSnapshot(ctx, tx, order); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`,
			order.ID,
			order.OrderNumber,
			order.SessionID,
			order.Customer.Name,
			order.Customer.Email,
			order.Customer.Phone,
			order.Customer.Address.Street,
			order.Customer.Address.City,
			order.Customer.Address.PostalCode,
			order.Customer.Address.Country,
			order.PaymentMethod,
			order.Subtotal,
			order.Shipping,
			order.Total,
			order.Notes,
			order.Status,
			order.CreatedAt,
			order.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err, orderNumberConstraint) {
				return ErrDuplicateOrderNumber
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range order.Lines {
			line := &order.Lines[i]
			if line.ID == uuid.Nil {
				line.ID = uuid.New()
			}

			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, position)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, line.ID, order.ID, line.ProductID, line.Quantity, line.UnitPrice, i)
			if err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE session_id = $1`, order.SessionID)
		if err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected != 1 {
			return ErrCartNotFound
		}

		return nil
	})
}

// lockCartSnapshot locks the cart row and its lines, then checks they still hold
// exactly the products and quantities the order was priced from.
// Concurrent adds block on the cart lock and fail once the cart is deleted.
func lockCartSnapshot(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	var locked string
	err := tx.QueryRowContext(ctx,
		`SELECT session_id FROM carts WHERE session_id = $1 FOR UPDATE`,
		order.SessionID,
	).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCartNotFound
		}
		return fmt.Errorf("failed to lock cart: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE session_id = $1 FOR UPDATE`,
		order.SessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to lock cart items: %w", err)
	}
	defer rows.Close()

	current := make(map[uuid.UUID]int)
	for rows.Next() {
		var productID uuid.UUID
		var quantity int
		if err := rows.Scan(&productID, &quantity); err != nil {
			return fmt.Errorf("failed to scan cart item: %w", err)
		}
		current[productID] = quantity
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate cart items: %w", err)
	}

	if len(current) != len(order.Lines) {
		return ErrCartChanged
	}
	for _, line := range order.Lines {
		if quantity, ok := current[line.ProductID]; !ok || quantity != line.Quantity {
			return ErrCartChanged
		}
	}

	return nil
}

// FindByID retrieves an order by ID
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// FindByNumber retrieves an order by its human-readable number
func (r *orderRepository) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
}

// List retrieves every order, newest first
func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.findMany(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// ListBySession retrieves the orders placed from a session, newest first
func (r *orderRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	return r.findMany(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE session_id = $1 ORDER BY created_at DESC`,
		sessionID,
	)
}

// UpdateStatus overwrites the order status unconditionally
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrOrderNotFound
	}

	return r.FindByID(ctx, id)
}

func (r *orderRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	if err := r.attachLines(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) findMany(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachLines loads the lines of all orders in one query, resolving display data from the catalog.
// The snapshotted unit price always comes from order_items.
func (r *orderRepository) attachLines(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		o.Lines = []domain.OrderLine{}
		byID[o.ID] = o
		ids = append(ids, o.ID.String())
	}

	query := `
		SELECT oi.order_id, oi.id, oi.product_id, oi.quantity, oi.unit_price, ` + joinedProductColumns + `
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var line domain.OrderLine
		var joined joinedProduct

		dest := append([]any{&orderID, &line.ID, &line.ProductID, &line.Quantity, &line.UnitPrice}, joined.targets()...)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}

		line.Product = joined.product()
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.SessionID,
		&o.Customer.Name,
		&o.Customer.Email,
		&o.Customer.Phone,
		&o.Customer.Address.Street,
		&o.Customer.Address.City,
		&o.Customer.Address.PostalCode,
		&o.Customer.Address.Country,
		&o.PaymentMethod,
		&o.Subtotal,
		&o.Shipping,
		&o.Total,
		&o.Notes,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}
